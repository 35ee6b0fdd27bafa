// packetplot ingests a byte stream from a serial instrument and turns it into
// identified, time-ordered samples for plotting, driven by a declarative
// packet-format configuration instead of per-device code.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/packetplot/packetplot/internal/monitor"
	"github.com/packetplot/packetplot/internal/packetformat"
	"github.com/packetplot/packetplot/internal/pipeline"
	"github.com/packetplot/packetplot/internal/serialmux"
	"github.com/packetplot/packetplot/internal/store"
	"github.com/packetplot/packetplot/internal/timeutil"
	"github.com/packetplot/packetplot/internal/version"
)

var (
	portName   = flag.String("port", "", "Serial port device (e.g. /dev/ttyACM0)")
	baudRate   = flag.Int("baud", 115200, "Baud rate")
	configPath = flag.String("config", "", "Packet configuration JSON file")
	listen     = flag.String("listen", ":8080", "Monitor listen address")
	dbPath     = flag.String("db", "", "Capture database path (disabled when empty)")
	listPorts  = flag.Bool("list-ports", false, "List available serial ports and exit")
	showVer    = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Println(version.String())
		return
	}

	if *listPorts {
		ports, err := serialmux.ListPorts()
		if err != nil {
			log.Fatalf("list serial ports: %v", err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	var desc *packetformat.Descriptor
	if *configPath != "" {
		var err error
		desc, err = packetformat.Load(*configPath)
		var cfgErr *packetformat.ConfigError
		if errors.As(err, &cfgErr) {
			log.Printf("packet configuration %s is invalid:", *configPath)
			for _, v := range cfgErr.Violations {
				log.Printf("  - %s", v)
			}
			os.Exit(1)
		}
		if err != nil {
			log.Fatalf("load packet configuration: %v", err)
		}
		log.Printf("loaded packet configuration %s (type %d, %d packet ids)",
			*configPath, desc.Type, len(desc.PacketIDs))
	} else {
		log.Printf("no packet configuration: raw passthrough mode")
	}

	pipe, err := pipeline.New(desc, timeutil.NewRealClock())
	if err != nil {
		log.Fatalf("build pipeline: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var capture *store.Store
	if *dbPath != "" {
		capture, err = store.Open(*dbPath)
		if err != nil {
			log.Fatalf("open capture database: %v", err)
		}
		defer capture.Close()
	}

	var mux *serialmux.Mux
	var sender monitor.CommandSender
	if *portName != "" {
		mux, err = serialmux.Open(*portName, *baudRate)
		if err != nil {
			log.Fatalf("open serial port: %v", err)
		}
		sender = mux
		log.Printf("connected to %s @ %d baud", *portName, *baudRate)
	} else {
		log.Printf("no serial port given: monitor only (POST /api/config to reload, no input)")
	}

	srv := monitor.NewServer(pipe, sender)

	var wg sync.WaitGroup

	if mux != nil {
		_, chunks := mux.Subscribe()

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := mux.Monitor(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("serial monitor stopped: %v", err)
			}
			// Disconnect is a state-reset signal, not an error: drop all
			// decoder state and series, then stop the pipeline input.
			pipe.Reset()
			cancel()
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := pipe.Run(ctx, chunks); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("pipeline stopped: %v", err)
			}
			pipe.Close()
		}()
	} else {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-ctx.Done()
			pipe.Close()
		}()
	}

	// Drain the emitted streams: the raw packet console and, when enabled,
	// the capture database. Neither may block the pipeline; the pipeline's
	// queues absorb any lag.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for p := range pipe.Packets() {
			srv.ObservePacket(p)
			if capture != nil {
				if err := capture.RecordPacket(pipe.SessionID(), p); err != nil {
					log.Printf("capture packet: %v", err)
				}
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for smp := range pipe.Samples() {
			if capture != nil {
				if err := capture.RecordSample(pipe.SessionID(), smp); err != nil {
					log.Printf("capture sample: %v", err)
				}
			}
		}
	}()

	httpServer := &http.Server{Addr: *listen, Handler: srv.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("http shutdown: %v", err)
		}
	}()

	log.Printf("monitor listening on %s", *listen)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("http server: %v", err)
	}

	cancel()
	if mux != nil {
		if err := mux.Close(); err != nil {
			log.Printf("close serial port: %v", err)
		}
	}
	wg.Wait()
}
