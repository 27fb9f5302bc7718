package format

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/inkwell-ai/inkwell/internal/store"
)

type YAMLFormatter struct{}

func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

func (f *YAMLFormatter) FormatSessions(sessions []store.SessionMeta) (string, error) {
	data, err := yaml.Marshal(sessions)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (f *YAMLFormatter) FormatSession(s *store.SessionMeta) (string, error) {
	if s == nil {
		return "null", nil
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
