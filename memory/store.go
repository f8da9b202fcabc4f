// Package memory is the holographic memory store: crystallized protocol
// states persisted in SQLite, retrievable by Γ level and assemblable into
// the construction timeline.
package memory

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	phi  = 1.618033988749895
	phi7 = 29.034095516850073

	// timeLayout is fixed-width so ORDER BY created sorts chronologically
	// (RFC3339Nano trims trailing zeros, which breaks lexical order).
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Encoding is the matrioshkal holographic encoding of a state: each Γ
// level carries the phi-decay sequence and coherence trajectory of every
// level below it.
type Encoding struct {
	Layers           int       `json:"layers"`
	PhiDecaySequence []float64 `json:"phi_decay_sequence"`
	CoherenceHistory []float64 `json:"coherence_history"`
	DataFingerprint  uint64    `json:"data_fingerprint"`
}

// Crystal is one crystallized state.
type Crystal struct {
	ID             string         `json:"id"`
	GammaLevel     int            `json:"gamma_level"`
	Coherence      float64        `json:"coherence"`
	PhiFactor      float64        `json:"phi_factor"`
	Timestamp      time.Time      `json:"timestamp"`
	DistanceToPhi7 float64        `json:"distance_to_phi_7"`
	Data           map[string]any `json:"data"`
	Encoding       Encoding       `json:"holographic_encoding"`
}

// Store is a SQLite-backed crystal archive. Safe for concurrent use; the
// underlying driver serializes writers.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the store at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("memory: open %s: %w", path, err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS crystals(
			id          TEXT PRIMARY KEY,
			gamma_level INTEGER NOT NULL,
			coherence   REAL NOT NULL,
			phi_factor  REAL NOT NULL,
			created     TEXT NOT NULL,
			data        TEXT NOT NULL,
			encoding    TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_crystals_level ON crystals(gamma_level);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("memory: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Crystallize persists the current state at the given Γ level and returns
// the stored crystal.
func (s *Store) Crystallize(gammaLevel int, coherence float64, data map[string]any) (*Crystal, error) {
	now := time.Now().UTC()

	c := &Crystal{
		ID:             uuid.NewString(),
		GammaLevel:     gammaLevel,
		Coherence:      coherence,
		PhiFactor:      phiPow(-gammaLevel),
		Timestamp:      now,
		DistanceToPhi7: phi7 - coherence,
		Data:           data,
		Encoding:       encode(gammaLevel, coherence, data),
	}

	dataJSON, err := json.Marshal(c.Data)
	if err != nil {
		return nil, fmt.Errorf("memory: marshal data: %w", err)
	}
	encJSON, err := json.Marshal(c.Encoding)
	if err != nil {
		return nil, fmt.Errorf("memory: marshal encoding: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO crystals(id, gamma_level, coherence, phi_factor, created, data, encoding)
		 VALUES(?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.GammaLevel, c.Coherence, c.PhiFactor,
		now.Format(timeLayout), string(dataJSON), string(encJSON),
	)
	if err != nil {
		return nil, fmt.Errorf("memory: insert crystal: %w", err)
	}
	return c, nil
}

// Retrieve returns all crystals at the given Γ level in timestamp order.
func (s *Store) Retrieve(gammaLevel int) ([]*Crystal, error) {
	return s.query(
		`SELECT id, gamma_level, coherence, phi_factor, created, data, encoding
		 FROM crystals WHERE gamma_level = ? ORDER BY created`, gammaLevel)
}

// RetrieveAll returns every crystal in timestamp order.
func (s *Store) RetrieveAll() ([]*Crystal, error) {
	return s.query(
		`SELECT id, gamma_level, coherence, phi_factor, created, data, encoding
		 FROM crystals ORDER BY created`)
}

func (s *Store) query(q string, args ...any) ([]*Crystal, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("memory: query crystals: %w", err)
	}
	defer rows.Close()

	var out []*Crystal
	for rows.Next() {
		var (
			c       Crystal
			created string
			data    string
			enc     string
		)
		if err := rows.Scan(&c.ID, &c.GammaLevel, &c.Coherence, &c.PhiFactor, &created, &data, &enc); err != nil {
			return nil, fmt.Errorf("memory: scan crystal: %w", err)
		}
		c.Timestamp, err = time.Parse(timeLayout, created)
		if err != nil {
			return nil, fmt.Errorf("memory: parse timestamp %q: %w", created, err)
		}
		c.DistanceToPhi7 = phi7 - c.Coherence
		if err := json.Unmarshal([]byte(data), &c.Data); err != nil {
			return nil, fmt.Errorf("memory: decode data for %s: %w", c.ID, err)
		}
		if err := json.Unmarshal([]byte(enc), &c.Encoding); err != nil {
			return nil, fmt.Errorf("memory: decode encoding for %s: %w", c.ID, err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// TimelineEvent is one construction-timeline entry.
type TimelineEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	GammaLevel int       `json:"gamma_level"`
	Coherence  float64   `json:"coherence"`
	PhiFactor  float64   `json:"phi_factor"`
	EventType  string    `json:"event_type"`
}

// Timeline summarizes the archive as a construction timeline.
type Timeline struct {
	TotalStates        int             `json:"total_states"`
	GammaLevelsReached int             `json:"gamma_levels_reached"`
	Events             []TimelineEvent `json:"construction_events"`
}

// Timeline assembles the full construction timeline in timestamp order.
func (s *Store) Timeline() (*Timeline, error) {
	crystals, err := s.RetrieveAll()
	if err != nil {
		return nil, err
	}

	tl := &Timeline{TotalStates: len(crystals)}
	levels := make(map[int]struct{})
	for _, c := range crystals {
		levels[c.GammaLevel] = struct{}{}

		eventType := "STATE_CRYSTALLIZATION"
		if v, ok := c.Data["event_type"].(string); ok {
			eventType = v
		}
		tl.Events = append(tl.Events, TimelineEvent{
			Timestamp:  c.Timestamp,
			GammaLevel: c.GammaLevel,
			Coherence:  c.Coherence,
			PhiFactor:  c.PhiFactor,
			EventType:  eventType,
		})
	}
	tl.GammaLevelsReached = len(levels)
	return tl, nil
}

// encode builds the matrioshkal encoding for a state.
func encode(gammaLevel int, coherence float64, data map[string]any) Encoding {
	enc := Encoding{Layers: gammaLevel}
	for n := 0; n <= gammaLevel; n++ {
		enc.PhiDecaySequence = append(enc.PhiDecaySequence, phiPow(-n))
	}

	// Expected coherence trajectory from Γ-0 up to this level.
	div := gammaLevel
	if div < 1 {
		div = 1
	}
	for n := 0; n <= gammaLevel; n++ {
		enc.CoherenceHistory = append(enc.CoherenceHistory,
			1-(1-coherence)*float64(n)/float64(div))
	}

	h := fnv.New64a()
	raw, _ := json.Marshal(data)
	h.Write(raw)
	enc.DataFingerprint = h.Sum64()
	return enc
}

func phiPow(n int) float64 {
	p := 1.0
	if n >= 0 {
		for i := 0; i < n; i++ {
			p *= phi
		}
		return p
	}
	for i := 0; i < -n; i++ {
		p /= phi
	}
	return p
}
