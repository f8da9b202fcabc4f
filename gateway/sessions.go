package gateway

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gammaproto/gammakit/phys"
)

// Message is a single exchange recorded in a session.
type Message struct {
	Role      string  `json:"role"`
	Content   string  `json:"content"`
	Timestamp string  `json:"timestamp"`
	Coherence float64 `json:"coherence"`
}

// SessionMetadata carries the φ-calibration of a session.
type SessionMetadata struct {
	PhiFactor     float64 `json:"phi_factor"`
	ThinkingLevel string  `json:"thinking_level"`
}

// Session is one gateway conversation, persisted as a JSON file under
// the workspace sessions directory.
type Session struct {
	ID        string          `json:"id"`
	Channel   string          `json:"channel"`
	Created   string          `json:"created"`
	Coherence float64         `json:"coherence"`
	Messages  []Message       `json:"messages"`
	Metadata  SessionMetadata `json:"metadata"`
}

// SessionManager keeps active sessions in memory and mirrors every
// change to disk. Sessions not in memory are loaded on first access.
type SessionManager struct {
	dir string

	mu     sync.Mutex
	active map[string]*Session
}

// NewSessionManager creates the sessions directory under workspace if
// needed.
func NewSessionManager(workspace string) (*SessionManager, error) {
	dir := filepath.Join(workspace, "sessions")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating sessions dir: %w", err)
	}
	return &SessionManager{dir: dir, active: map[string]*Session{}}, nil
}

// Create starts a new session at the φ⁻¹ baseline coherence and
// persists it.
func (m *SessionManager) Create(id, channel string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createLocked(id, channel)
}

func (m *SessionManager) createLocked(id, channel string) (*Session, error) {
	s := &Session{
		ID:        id,
		Channel:   channel,
		Created:   time.Now().UTC().Format(time.RFC3339Nano),
		Coherence: phys.PhiInv,
		Messages:  []Message{},
		Metadata: SessionMetadata{
			PhiFactor:     phys.PhiInv,
			ThinkingLevel: "medium",
		},
	}
	m.active[id] = s
	if err := m.save(s); err != nil {
		return nil, err
	}
	return s, nil
}

// AddMessage appends a message to the session, creating the session on
// the main channel if it does not exist yet.
func (m *SessionManager) AddMessage(id, role, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.lookupLocked(id)
	if !ok {
		var err error
		s, err = m.createLocked(id, "main")
		if err != nil {
			return err
		}
	}

	s.Messages = append(s.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Coherence: s.Coherence,
	})
	return m.save(s)
}

// Get returns the session, loading it from disk when it is not active.
func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookupLocked(id)
}

func (m *SessionManager) lookupLocked(id string) (*Session, bool) {
	if s, ok := m.active[id]; ok {
		return s, true
	}
	data, err := os.ReadFile(m.sessionPath(id))
	if err != nil {
		return nil, false
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false
	}
	m.active[id] = &s
	return &s, true
}

// List returns the ids of active sessions, sorted.
func (m *SessionManager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.active))
	for id := range m.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// UpdateCoherence sets the session coherence and persists it.
func (m *SessionManager) UpdateCoherence(id string, coherence float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.lookupLocked(id)
	if !ok {
		return fmt.Errorf("session %s not found", id)
	}
	s.Coherence = coherence
	return m.save(s)
}

func (m *SessionManager) sessionPath(id string) string {
	return filepath.Join(m.dir, id+".json")
}

func (m *SessionManager) save(s *Session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", s.ID, err)
	}
	if err := os.WriteFile(m.sessionPath(s.ID), data, 0o644); err != nil {
		return fmt.Errorf("writing session %s: %w", s.ID, err)
	}
	return nil
}
