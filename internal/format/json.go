package format

import (
	"encoding/json"

	"github.com/inkwell-ai/inkwell/internal/store"
)

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) FormatSessions(sessions []store.SessionMeta) (string, error) {
	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (f *JSONFormatter) FormatSession(s *store.SessionMeta) (string, error) {
	if s == nil {
		return "null", nil
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
