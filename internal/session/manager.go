package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/inkwell-ai/inkwell/internal/chat/contract"
	"github.com/inkwell-ai/inkwell/internal/store"
)

const defaultHistoryLimit = 200

// Manager persists chat sessions through the store worker. A session marked
// incognito is never written: every persistence call silently drops its data,
// which is the whole point of incognito.
type Manager struct {
	store        *store.Worker
	historyLimit int
}

func NewManager(s *store.Worker, historyLimit int) *Manager {
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	return &Manager{
		store:        s,
		historyLimit: historyLimit,
	}
}

// NewSessionID mints a sortable session id.
func NewSessionID() string {
	return ulid.Make().String()
}

// History loads the persisted transcript as messages, newest historyLimit
// entries. Unparseable lines are skipped.
func (m *Manager) History(sessionID string) ([]contract.Message, error) {
	lines, err := m.store.ReadTranscript(sessionID, m.historyLimit)
	if err != nil {
		return nil, err
	}

	var messages []contract.Message
	for _, line := range lines {
		var evt Event
		if err := json.Unmarshal([]byte(line), &evt); err != nil {
			slog.Warn("Skipping unparseable transcript line", "session", sessionID, "error", err)
			continue
		}
		messages = append(messages, evt.ToMessage())
	}
	return messages, nil
}

// Append persists messages to the session transcript. For incognito sessions
// it is a no-op that reports success.
func (m *Manager) Append(sessionID string, incognito bool, messages []contract.Message) error {
	if incognito {
		slog.Debug("Incognito session, dropping transcript writes", "count", len(messages))
		return nil
	}

	for _, msg := range messages {
		evt := Event{
			ID:         ulid.Make().String(),
			Timestamp:  time.Now(),
			Type:       eventTypeForRole(msg.Role),
			Role:       msg.Role,
			Content:    msg.Content,
			Name:       msg.Name,
			ToolCalls:  msg.ToolCalls,
			ToolCallID: msg.ToolCallID,
		}
		line, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("marshal transcript event: %w", err)
		}
		if err := m.store.WriteTranscript(sessionID, line); err != nil {
			return err
		}
	}
	return nil
}

// Save registers or refreshes the session in the index. Incognito sessions
// never reach the index.
func (m *Manager) Save(meta *store.SessionMeta, incognito bool) error {
	if incognito {
		return nil
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now()
	}
	meta.UpdatedAt = time.Now()
	if meta.Status == "" {
		meta.Status = "active"
	}
	return m.store.SaveSession(meta)
}

func (m *Manager) Get(sessionID string) (*store.SessionMeta, error) {
	return m.store.GetSession(sessionID)
}

func (m *Manager) List() ([]store.SessionMeta, error) {
	return m.store.ListSessions()
}

// Reset removes the transcript and the index entry.
func (m *Manager) Reset(sessionID string) error {
	return m.store.ResetSession(sessionID)
}
