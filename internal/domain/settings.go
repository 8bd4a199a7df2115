package domain

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// PartitionStrategy decides which remote shard a bookmark lands in.
type PartitionStrategy string

const (
	StrategySingle   PartitionStrategy = "single"
	StrategyYearly   PartitionStrategy = "yearly"
	StrategyMonthly  PartitionStrategy = "monthly"
	StrategyCategory PartitionStrategy = "category"
)

// Valid reports whether s is one of the known strategies.
func (s PartitionStrategy) Valid() bool {
	switch s {
	case StrategySingle, StrategyYearly, StrategyMonthly, StrategyCategory:
		return true
	default:
		return false
	}
}

// Settings bounds and defaults.
const (
	DefaultBranch       = "main"
	DefaultBatchSize    = 10
	MinBatchSize        = 1
	MaxBatchSize        = 100
	DefaultSyncInterval = 30
	MinSyncInterval     = 5
	MaxSyncInterval     = 1440
	DefaultStrategy     = StrategyMonthly
)

// Settings is the user-editable sync configuration.
type Settings struct {
	RepoOwner           string            `json:"repoOwner" yaml:"repo_owner"`
	RepoName            string            `json:"repoName" yaml:"repo_name"`
	Branch              string            `json:"branch" yaml:"branch"`
	BatchSize           int               `json:"batchSize" yaml:"batch_size"`
	SyncIntervalMinutes int               `json:"syncInterval" yaml:"sync_interval_minutes"`
	AutoSync            bool              `json:"autoSync" yaml:"auto_sync"`
	PartitionStrategy   PartitionStrategy `json:"fileStructure" yaml:"partition_strategy"`
}

// DefaultSettings returns settings with every default applied and no repository.
func DefaultSettings() Settings {
	return Settings{
		Branch:              DefaultBranch,
		BatchSize:           DefaultBatchSize,
		SyncIntervalMinutes: DefaultSyncInterval,
		AutoSync:            true,
		PartitionStrategy:   DefaultStrategy,
	}
}

// WithDefaults fills zero values with their defaults. AutoSync is left alone
// since false is a legitimate choice.
func (s Settings) WithDefaults() Settings {
	s.RepoOwner = strings.TrimSpace(s.RepoOwner)
	s.RepoName = strings.TrimSpace(s.RepoName)
	if s.Branch = strings.TrimSpace(s.Branch); s.Branch == "" {
		s.Branch = DefaultBranch
	}
	if s.BatchSize == 0 {
		s.BatchSize = DefaultBatchSize
	}
	if s.SyncIntervalMinutes == 0 {
		s.SyncIntervalMinutes = DefaultSyncInterval
	}
	if s.PartitionStrategy == "" {
		s.PartitionStrategy = DefaultStrategy
	}
	return s
}

// Validate returns every violation at once, combined with multierr.
func (s Settings) Validate() error {
	var err error
	if s.BatchSize < MinBatchSize || s.BatchSize > MaxBatchSize {
		err = multierr.Append(err, fmt.Errorf("batch size must be between %d and %d, got %d",
			MinBatchSize, MaxBatchSize, s.BatchSize))
	}
	if s.SyncIntervalMinutes < MinSyncInterval || s.SyncIntervalMinutes > MaxSyncInterval {
		err = multierr.Append(err, fmt.Errorf("sync interval must be between %d and %d minutes, got %d",
			MinSyncInterval, MaxSyncInterval, s.SyncIntervalMinutes))
	}
	if !s.PartitionStrategy.Valid() {
		err = multierr.Append(err, fmt.Errorf("unknown partition strategy %q", s.PartitionStrategy))
	}
	if strings.Contains(s.RepoOwner, "/") || strings.Contains(s.RepoName, "/") {
		err = multierr.Append(err, fmt.Errorf("repository owner and name must not contain '/'"))
	}
	return err
}

// Complete reports whether a target repository is configured.
func (s Settings) Complete() bool {
	return s.RepoOwner != "" && s.RepoName != ""
}

// Interval is SyncIntervalMinutes as a duration.
func (s Settings) Interval() time.Duration {
	return time.Duration(s.SyncIntervalMinutes) * time.Minute
}
