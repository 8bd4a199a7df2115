package redis

import (
	"context"

	"github.com/MrSnakeDoc/ghclip/internal/domain"
)

// Settings returns the stored settings, or the defaults.
func (s *Store) Settings(ctx context.Context) (domain.Settings, error) {
	settings := domain.DefaultSettings()
	if _, err := s.getJSON(ctx, KeySettings, &settings); err != nil {
		return domain.Settings{}, err
	}
	return settings.WithDefaults(), nil
}

// SaveSettings replaces the settings bundle.
func (s *Store) SaveSettings(ctx context.Context, settings domain.Settings) error {
	return s.setJSON(ctx, KeySettings, settings)
}
