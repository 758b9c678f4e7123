// Package director implements the Event Director step loop (C9): the
// per-tick orchestration that advances the clock, decays narrative heat,
// transitions pacing phase, ingests external pressure/milestone events,
// fires forced queue entries, and otherwise runs eligibility, scoring
// and selection to pick (or skip) the next storylet.
package director

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/syn-director/internal/pressure"
	"github.com/talgya/syn-director/internal/scoring"
	"github.com/talgya/syn-director/internal/tiers"
)

// PhaseThresholds gate narrative phase transitions (§4.8.1).
type PhaseThresholds struct {
	LowkeyToRising     float64 `yaml:"lowkey_to_rising"`
	RisingToPeak       float64 `yaml:"rising_to_peak"`
	PeakToFallout      float64 `yaml:"peak_to_fallout"`
	FalloutToRecovery  float64 `yaml:"fallout_to_recovery"`
	RecoveryToLowkey   float64 `yaml:"recovery_to_lowkey"`
}

// DefaultPhaseThresholds mirrors the reference implementation's defaults.
func DefaultPhaseThresholds() PhaseThresholds {
	return PhaseThresholds{
		LowkeyToRising:    25.0,
		RisingToPeak:      60.0,
		PeakToFallout:     45.0,
		FalloutToRecovery: 25.0,
		RecoveryToLowkey:  15.0,
	}
}

// PacingConfig controls narrative heat decay and phase pacing.
type PacingConfig struct {
	MinHeat                    float64         `yaml:"min_heat"`
	MaxHeat                    float64         `yaml:"max_heat"`
	HeatDecayPerTick           float64         `yaml:"heat_decay_per_tick"`
	HeatIncreasePerEventFactor float64         `yaml:"heat_increase_per_event_factor"`
	PhaseThresholds            PhaseThresholds `yaml:"phase_thresholds"`
	MinPhaseDuration           uint64          `yaml:"min_phase_duration"`
	PhaseMatchBonus            float64         `yaml:"phase_match_bonus"`
}

// DefaultPacingConfig mirrors the reference implementation's defaults.
func DefaultPacingConfig() PacingConfig {
	return PacingConfig{
		MinHeat:                    0.0,
		MaxHeat:                    100.0,
		HeatDecayPerTick:           0.5,
		HeatIncreasePerEventFactor: 1.0,
		PhaseThresholds:            DefaultPhaseThresholds(),
		MinPhaseDuration:           8,
		PhaseMatchBonus:            1.5,
	}
}

// ForTestingPacingConfig mirrors PacingConfig::for_testing(): faster
// transitions and faster decay so tests don't need hundreds of ticks.
func ForTestingPacingConfig() PacingConfig {
	cfg := DefaultPacingConfig()
	cfg.MinPhaseDuration = 1
	cfg.HeatDecayPerTick = 1.0
	return cfg
}

// QueueConfig controls event queue bounds and preemption.
type QueueConfig struct {
	MaxSize              int     `yaml:"max_size"`
	FollowUpsSkipQueue   bool    `yaml:"follow_ups_skip_queue"`
	MaxScheduleDelay     uint64  `yaml:"max_schedule_delay"`
	AllowPreemption      bool    `yaml:"allow_preemption"`
	PreemptionThreshold  float64 `yaml:"preemption_threshold"`
}

// DefaultQueueConfig mirrors the reference implementation's defaults.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		MaxSize:             50,
		FollowUpsSkipQueue:  true,
		MaxScheduleDelay:    168,
		AllowPreemption:     true,
		PreemptionThreshold: 80.0,
	}
}

// PersistenceConfig controls Director state auto-save behavior.
type PersistenceConfig struct {
	AutoSaveEnabled   bool   `yaml:"auto_save_enabled"`
	AutoSaveInterval  uint64 `yaml:"auto_save_interval"`
	PersistCooldowns  bool   `yaml:"persist_cooldowns"`
	PersistQueue      bool   `yaml:"persist_queue"`
	PersistLastFired  bool   `yaml:"persist_last_fired"`
}

// DefaultPersistenceConfig mirrors the reference implementation's defaults.
func DefaultPersistenceConfig() PersistenceConfig {
	return PersistenceConfig{
		AutoSaveEnabled:  true,
		AutoSaveInterval: 24,
		PersistCooldowns: true,
		PersistQueue:     true,
		PersistLastFired: true,
	}
}

// Config is the master DirectorConfig (§6.3): all tuning knobs, grouped
// by sub-concern, loadable from YAML.
type Config struct {
	BaseHeatTarget        float64                 `yaml:"base_heat_target"`
	MaxQueueSize          int                     `yaml:"max_queue_size"`
	MinTicksBetweenEvents uint64                  `yaml:"min_ticks_between_events"`

	Pacing      PacingConfig            `yaml:"pacing"`
	Scoring     scoring.Config          `yaml:"scoring"`
	Queue       QueueConfig             `yaml:"queue"`
	Pressure    pressure.Config         `yaml:"pressure"`
	Milestone   pressure.MilestoneConfig `yaml:"milestone"`
	Persistence PersistenceConfig       `yaml:"persistence"`

	// Tiers/TierUpdate tune the NPC fidelity scheduler (C10) that runs
	// ahead of the step loop each tick (§2, §4.9).
	Tiers      tiers.Config       `yaml:"tiers"`
	TierUpdate tiers.UpdateConfig `yaml:"tier_update"`
}

// New returns a Config with the reference implementation's gameplay
// defaults (DirectorConfig::new()).
func New() Config {
	return Config{
		BaseHeatTarget:        30.0,
		MaxQueueSize:          10,
		MinTicksBetweenEvents: 4,
		Pacing:                DefaultPacingConfig(),
		Scoring:               scoring.DefaultConfig(),
		Queue:                 DefaultQueueConfig(),
		Pressure:              defaultPressureConfig(),
		Milestone:             defaultMilestoneConfig(),
		Persistence:           DefaultPersistenceConfig(),
		Tiers:                 tiers.DefaultConfig(),
		TierUpdate:            tiers.DefaultUpdateConfig(),
	}
}

// ForTesting returns a Config tuned for fast, delay-free tests
// (DirectorConfig::for_testing()): tighter phase transitions, no
// min-ticks-between-events gate, no variety penalties.
func ForTesting() Config {
	cfg := New()
	cfg.BaseHeatTarget = 50.0
	cfg.MaxQueueSize = 5
	cfg.MinTicksBetweenEvents = 0
	cfg.Pacing = ForTestingPacingConfig()
	cfg.Scoring = scoring.ForTestingConfig()
	return cfg
}

func defaultPressureConfig() pressure.Config {
	return pressure.Config{
		PressureDecayRate:       0.1,
		DeadlineUrgencyFactor:   0.5,
		OverdueSeverityIncrease: 0.05,
		CrisisThreshold:         0.8,
		ResolvedCleanupTicks:    24,
		BaseSeverityIncrease:    0.01,
		UrgencyThreshold:        0.5,
		MaxPressure:             100.0,
		AddressingBonus:         3.0,
	}
}

func defaultMilestoneConfig() pressure.MilestoneConfig {
	return pressure.MilestoneConfig{
		ProgressPerEvent:     0.1,
		HotMilestoneBonus:    2.0,
		HotThreshold:         0.2,
		ClimaxThreshold:      0.8,
		MinTicksBeforeClimax: 48,
		DomainMatchProgress:  0.05,
		TagMatchProgress:     0.1,
		MaxMilestoneBonus:    3.0,
	}
}

// Load reads a Config from a YAML file, starting from New()'s defaults
// so an incomplete file only overrides the fields it names.
func Load(path string) (Config, error) {
	cfg := New()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
