package session

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lai-labs/sales-assistant/internal/core/domain"
)

// snapshotStore writes one JSON file per session so history survives a
// restart. Snapshot failures are logged and never fail the conversation.
type snapshotStore struct {
	dir string
}

func newSnapshotStore(dir string) *snapshotStore {
	return &snapshotStore{dir: dir}
}

func (s *snapshotStore) path(sessionID string) string {
	return filepath.Join(s.dir, "session_"+sanitizeID(sessionID)+".json")
}

func (s *snapshotStore) save(session *domain.Session) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path(session.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path(session.ID))
}

func (s *snapshotStore) remove(sessionID string) {
	_ = os.Remove(s.path(sessionID))
}

func (s *snapshotStore) loadAll() ([]domain.Session, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var sessions []domain.Session
	for _, de := range entries {
		name := de.Name()
		if de.IsDir() || !strings.HasPrefix(name, "session_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			slog.Warn("session snapshot unreadable", "file", name, "error", err)
			continue
		}
		var session domain.Session
		if err := json.Unmarshal(data, &session); err != nil || session.ID == "" {
			slog.Warn("session snapshot malformed", "file", name)
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func sanitizeID(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}

func (m *Manager) restoreSnapshots() {
	sessions, err := m.snapshots.loadAll()
	if err != nil {
		slog.Warn("session snapshots unavailable", "dir", m.snapshots.dir, "error", err)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range sessions {
		if m.expired(&s) {
			m.snapshots.remove(s.ID)
			continue
		}
		m.sessions[s.ID] = &entry{session: s}
	}
}

func (m *Manager) saveSnapshot(s *domain.Session) {
	if m.snapshots == nil {
		return
	}
	if err := m.snapshots.save(s); err != nil {
		slog.Warn("session snapshot write failed", "session_id", s.ID, "error", err)
	}
}

func (m *Manager) removeSnapshot(sessionID string) {
	if m.snapshots == nil {
		return
	}
	m.snapshots.remove(sessionID)
}
