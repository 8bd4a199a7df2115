// Package settings loads sync settings from an optional YAML file and keeps
// the settings store in step with it.
package settings

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/ghclip/internal/domain"
)

// Saver persists loaded settings.
type Saver interface {
	SaveSettings(ctx context.Context, s domain.Settings) error
}

// Loader reads a settings file such as:
//
//	repo_owner: octocat
//	repo_name: links
//	branch: main
//	batch_size: 10
//	sync_interval_minutes: 30
//	auto_sync: true
//	partition_strategy: monthly
//
// ${VAR} references are expanded from the environment before parsing.
type Loader struct {
	filePath string
}

func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Path returns the file the loader reads.
func (l *Loader) Path() string { return l.filePath }

// Load parses the file over the defaults and validates the result.
func (l *Loader) Load() (domain.Settings, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("failed to read settings file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML settings over domain.DefaultSettings. Unknown keys are
// rejected so typos do not silently fall back to defaults.
func Parse(data []byte) (domain.Settings, error) {
	s := domain.DefaultSettings()

	dec := yaml.NewDecoder(bytes.NewReader([]byte(os.ExpandEnv(string(data)))))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return domain.Settings{}, fmt.Errorf("failed to parse settings yaml: %w", err)
	}

	s = s.WithDefaults()
	if err := s.Validate(); err != nil {
		return domain.Settings{}, &domain.ConfigError{Reason: err.Error()}
	}
	return s, nil
}

// Apply loads the file and saves it to dst.
func (l *Loader) Apply(ctx context.Context, dst Saver) (domain.Settings, error) {
	s, err := l.Load()
	if err != nil {
		return domain.Settings{}, err
	}
	if err := dst.SaveSettings(ctx, s); err != nil {
		return domain.Settings{}, fmt.Errorf("failed to save settings: %w", err)
	}
	return s, nil
}
