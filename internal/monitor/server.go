// Package monitor exposes the live pipeline over HTTP: series snapshots and
// statistics as JSON, recent raw packets for the console view, chart pages
// rendered with go-echarts, command transmit, and configuration reload.
package monitor

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"

	"github.com/packetplot/packetplot/internal/decode"
	"github.com/packetplot/packetplot/internal/packetformat"
	"github.com/packetplot/packetplot/internal/pipeline"
)

// maxRecentPackets bounds the raw packet console ring.
const maxRecentPackets = 500

// maxBodySize bounds request bodies (config uploads, commands).
const maxBodySize = 1 << 20

// CommandSender writes a command string to the connected device.
type CommandSender interface {
	SendCommand(command string) error
}

// Server serves the monitor API for one pipeline.
type Server struct {
	pipe   *pipeline.Pipeline
	sender CommandSender

	mu     sync.Mutex
	recent []decode.ParsedPacket
}

// NewServer creates a monitor server. sender may be nil when no device is
// connected (replay mode).
func NewServer(pipe *pipeline.Pipeline, sender CommandSender) *Server {
	return &Server{pipe: pipe, sender: sender}
}

// ObservePacket appends a packet to the raw console ring. Called by the
// packet stream drain.
func (s *Server) ObservePacket(p decode.ParsedPacket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recent = append(s.recent, p)
	if len(s.recent) > maxRecentPackets {
		s.recent = s.recent[len(s.recent)-maxRecentPackets:]
	}
}

// Handler returns the monitor HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/series", s.handleSeries)
	mux.HandleFunc("GET /api/series/{id}", s.handleSeriesByID)
	mux.HandleFunc("GET /api/series/{id}/stats", s.handleSeriesStats)
	mux.HandleFunc("GET /api/packets", s.handlePackets)
	mux.HandleFunc("POST /api/send", s.handleSend)
	mux.HandleFunc("POST /api/config", s.handleConfig)
	mux.HandleFunc("GET /charts", s.handleCharts)
	return mux
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"session_id": s.pipe.SessionID(),
		"series":     s.pipe.Snapshot(),
	})
}

func (s *Server) handleSeriesByID(w http.ResponseWriter, r *http.Request) {
	series, ok := s.pipe.SeriesByID(r.PathValue("id"))
	if !ok {
		writeJSONError(w, http.StatusNotFound, "no such series")
		return
	}
	writeJSON(w, series)
}

func (s *Server) handleSeriesStats(w http.ResponseWriter, r *http.Request) {
	series, ok := s.pipe.SeriesByID(r.PathValue("id"))
	if !ok {
		writeJSONError(w, http.StatusNotFound, "no such series")
		return
	}
	writeJSON(w, pipeline.Stats(series))
}

func (s *Server) handlePackets(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	recent := append([]decode.ParsedPacket(nil), s.recent...)
	s.mu.Unlock()

	type packetView struct {
		ID        string `json:"id"`
		Value     string `json:"value"`
		Plaintext string `json:"plaintext"`
		ParseNs   int64  `json:"parse_ns"`
		Seq       uint64 `json:"seq"`
	}
	views := make([]packetView, 0, len(recent))
	for _, p := range recent {
		views = append(views, packetView{
			ID:        p.ID,
			Value:     p.Value,
			Plaintext: p.Plaintext,
			ParseNs:   p.ParseTime,
			Seq:       p.Seq,
		})
	}
	writeJSON(w, map[string]any{"packets": views})
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	if s.sender == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "device is not connected")
		return
	}

	var req struct {
		Command string `json:"command"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("bad request body: %v", err))
		return
	}
	if req.Command == "" {
		writeJSONError(w, http.StatusBadRequest, "there is nothing to send")
		return
	}

	if err := s.sender.SendCommand(req.Command); err != nil {
		writeJSONError(w, http.StatusBadGateway, fmt.Sprintf("send failed: %v", err))
		return
	}
	writeJSON(w, map[string]any{"sent": req.Command})
}

// handleConfig loads a new packet configuration from the request body. On a
// validation failure the previous configuration stays active and the
// violations are returned.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("read body: %v", err))
		return
	}

	desc, err := packetformat.Parse(data)
	if err != nil {
		var cfgErr *packetformat.ConfigError
		if errors.As(err, &cfgErr) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			if encodeErr := json.NewEncoder(w).Encode(map[string]any{
				"error":      "invalid packet configuration",
				"violations": cfgErr.Violations,
			}); encodeErr != nil {
				log.Printf("write config error response: %v", encodeErr)
			}
			return
		}
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.pipe.Reload(desc); err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("reload failed: %v", err))
		return
	}

	s.mu.Lock()
	s.recent = nil
	s.mu.Unlock()

	writeJSON(w, map[string]any{"session_id": s.pipe.SessionID()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write JSON response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		log.Printf("write JSON error response: %v", err)
	}
}
