// Package store persists the emitted sample and packet streams to SQLite so
// a capture session can be inspected after the device disconnects. It is a
// passive downstream consumer: the pipeline never waits on it.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/packetplot/packetplot/internal/decode"
	"github.com/packetplot/packetplot/internal/pipeline"
)

// Store wraps the capture database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) a capture database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open capture database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS samples (
			session_id        TEXT,
			series            TEXT,
			x                 DOUBLE,
			y                 TEXT,
			recorded_at       BIGINT
		);
		CREATE INDEX IF NOT EXISTS idx_samples_session_series
			ON samples (session_id, series);
		CREATE TABLE IF NOT EXISTS packets (
			session_id        TEXT,
			packet_id         TEXT,
			value             TEXT,
			plaintext         TEXT,
			parse_ns          BIGINT,
			seq               BIGINT,
			recorded_at       BIGINT
		);
		CREATE INDEX IF NOT EXISTS idx_packets_session
			ON packets (session_id, seq);
	`)
	if err != nil {
		return nil, fmt.Errorf("create capture schema: %w", err)
	}

	return &Store{db: db}, nil
}

// RecordSample persists one routed sample under the given session.
func (s *Store) RecordSample(sessionID string, smp pipeline.Sample) error {
	_, err := s.db.Exec(
		`INSERT INTO samples (session_id, series, x, y, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		sessionID, smp.Series, smp.X, smp.Y, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record sample: %w", err)
	}
	return nil
}

// RecordPacket persists one parsed packet under the given session.
func (s *Store) RecordPacket(sessionID string, p decode.ParsedPacket) error {
	_, err := s.db.Exec(
		`INSERT INTO packets (session_id, packet_id, value, plaintext, parse_ns, seq, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, p.ID, p.Value, p.Plaintext, p.ParseTime, p.Seq, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record packet: %w", err)
	}
	return nil
}

// SeriesSamples returns the captured samples of one series in insertion
// order.
func (s *Store) SeriesSamples(sessionID, series string) ([]pipeline.Sample, error) {
	rows, err := s.db.Query(
		`SELECT series, x, y FROM samples WHERE session_id = ? AND series = ? ORDER BY rowid`,
		sessionID, series,
	)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var out []pipeline.Sample
	for rows.Next() {
		var smp pipeline.Sample
		if err := rows.Scan(&smp.Series, &smp.X, &smp.Y); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		out = append(out, smp)
	}
	return out, rows.Err()
}

// Sessions returns the distinct session ids present in the capture database,
// most recent first.
func (s *Store) Sessions() ([]string, error) {
	rows, err := s.db.Query(
		`SELECT session_id FROM packets GROUP BY session_id ORDER BY MAX(recorded_at) DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
