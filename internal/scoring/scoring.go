// Package scoring implements the Director's weighted scorer (C6):
// multiplicative composition of phase, pressure, variety, personality and
// milestone factors, a min_viable_weight cutoff, and a deterministic
// weighted-random selection over the key-ascending candidate order.
package scoring

import (
	"github.com/talgya/syn-director/internal/drng"
	"github.com/talgya/syn-director/internal/ids"
	"github.com/talgya/syn-director/internal/pressure"
	"github.com/talgya/syn-director/internal/storylet"
)

// Phase is the narrative pacing phase a storylet's heat is scored
// against. Order and names follow the five-phase pacing state machine
// (§4.8.1): LowKey -> Rising -> Peak -> Fallout -> Recovery -> LowKey.
type Phase uint8

const (
	PhaseLowKey Phase = iota
	PhaseRising
	PhasePeak
	PhaseFallout
	PhaseRecovery
)

func (p Phase) String() string {
	switch p {
	case PhaseLowKey:
		return "LowKey"
	case PhaseRising:
		return "Rising"
	case PhasePeak:
		return "Peak"
	case PhaseFallout:
		return "Fallout"
	case PhaseRecovery:
		return "Recovery"
	default:
		return "Unknown"
	}
}

// Config configures the non-pressure, non-milestone scoring factors
// (those two live in pressure.Config/pressure.MilestoneConfig, already
// scoped to the pressure subsystem). PressureMatchBonus is recognized
// per §6.3's config surface but deliberately unused by Score: the
// addressing bonus it would have duplicated is instead owned entirely by
// pressure.Config.AddressingBonus, per the dual-knob Open Question
// resolution documented on pressure.State.PressureMatchBonus.
type Config struct {
	BaseWeightMultiplier  float64 `yaml:"base_weight_multiplier"`
	PressureMatchBonus    float64 `yaml:"pressure_match_bonus"`
	PersonalityMatchBonus float64 `yaml:"personality_match_bonus"`
	RecencyPenalty        float64 `yaml:"recency_penalty"`
	RecencyDecayTicks     uint64  `yaml:"recency_decay_ticks"`
	VarietyBonus          float64 `yaml:"variety_bonus"`
	MinViableWeight       float64 `yaml:"min_viable_weight"`

	MinStoryletRepeatInterval uint64  `yaml:"min_storylet_repeat_interval"`
	MinDomainRepeatInterval   uint64  `yaml:"min_domain_repeat_interval"`
	SameDomainPenalty         float64 `yaml:"same_domain_penalty"`

	// PeakHeatFloor/LowKeyHeatCeiling gate which phases favor which
	// storylet intensities (§4.5: "Peak favors heat >= 7, LowKey favors
	// heat <= 3").
	PeakHeatFloor     uint8   `yaml:"peak_heat_floor"`
	LowKeyHeatCeiling uint8   `yaml:"lowkey_heat_ceiling"`
	PhaseMatchBonus   float64 `yaml:"phase_match_bonus"`
}

// DefaultConfig mirrors the reference implementation's scoring defaults.
func DefaultConfig() Config {
	return Config{
		BaseWeightMultiplier:      1.0,
		PressureMatchBonus:        2.0,
		PersonalityMatchBonus:     1.3,
		RecencyPenalty:            0.5,
		RecencyDecayTicks:         48,
		VarietyBonus:              1.2,
		MinViableWeight:           0.1,
		MinStoryletRepeatInterval: 24,
		MinDomainRepeatInterval:   4,
		SameDomainPenalty:         0.5,
		PeakHeatFloor:             7,
		LowKeyHeatCeiling:         3,
		PhaseMatchBonus:           1.5,
	}
}

// ForTestingConfig mirrors VarietyConfig::for_testing(): no repeat
// penalties, so content fires freely under test.
func ForTestingConfig() Config {
	cfg := DefaultConfig()
	cfg.MinStoryletRepeatInterval = 0
	cfg.MinDomainRepeatInterval = 0
	cfg.SameDomainPenalty = 1.0
	return cfg
}

// RecentFire is what the variety factor needs to know about a candidate's
// firing history.
type RecentFire struct {
	LastFiredAt ids.SimTick
	HasFired    bool
}

// LastFiredDomain describes the most recently fired storylet's domain,
// used by the variety factor's same-domain penalty.
type LastFiredDomain struct {
	Domain ids.StoryDomain
	HasAny bool
}

// PersonalityMatch reports whether a storylet's tags line up with the
// player's personality leanings, as a pass-through predicate the caller
// supplies (the personality model itself is outside this package's
// scope, same as eligibility's trait-threshold pass-through).
type PersonalityMatch func(s *storylet.Compiled) bool

// Candidate is one scoreable storylet plus everything the score formula
// needs about it that isn't already on storylet.Compiled.
type Candidate struct {
	Storylet *storylet.Compiled
	Recent   RecentFire
}

func phaseBonus(phase Phase, heat uint8, cfg Config) float64 {
	switch phase {
	case PhasePeak:
		if heat >= cfg.PeakHeatFloor {
			return cfg.PhaseMatchBonus
		}
	case PhaseLowKey:
		if heat <= cfg.LowKeyHeatCeiling {
			return cfg.PhaseMatchBonus
		}
	}
	return 1.0
}

func varietyFactor(now ids.SimTick, cand Candidate, lastDomain LastFiredDomain, cfg Config) float64 {
	factor := 1.0

	if cand.Recent.HasFired {
		elapsed := uint64(now - cand.Recent.LastFiredAt)
		if elapsed < cfg.MinStoryletRepeatInterval {
			decay := 1.0
			if cfg.RecencyDecayTicks > 0 {
				decay = 1 - float64(elapsed)/float64(cfg.RecencyDecayTicks)
				if decay < 0 {
					decay = 0
				}
			}
			factor *= cfg.RecencyPenalty * decay
		}
	}

	if lastDomain.HasAny {
		if lastDomain.Domain == cand.Storylet.Domain {
			factor *= cfg.SameDomainPenalty
		} else {
			factor *= cfg.VarietyBonus
		}
	}

	return factor
}

// Score computes the full multiplicative score for one candidate.
func Score(
	now ids.SimTick,
	phase Phase,
	cand Candidate,
	pstate *pressure.State,
	pressureCfg pressure.Config,
	milestoneCfg pressure.MilestoneConfig,
	lastDomain LastFiredDomain,
	personalityMatch PersonalityMatch,
	cfg Config,
) float64 {
	s := cand.Storylet

	score := s.Weight * cfg.BaseWeightMultiplier
	score *= phaseBonus(phase, s.Heat, cfg)

	if pstate != nil {
		score *= pstate.PressureMatchBonus(s.Key, s.Tags, pressureCfg)
	}

	score *= varietyFactor(now, cand, lastDomain, cfg)

	if personalityMatch != nil && personalityMatch(s) {
		score *= cfg.PersonalityMatchBonus
	}

	if pstate != nil {
		score *= pstate.MilestoneBonus(s.Tags, milestoneCfg)
	}

	return score
}

// ScoredCandidate pairs a key with its computed score, kept in
// key-ascending order throughout (the caller supplies candidates already
// sorted; ScoreAll preserves that order).
type ScoredCandidate struct {
	Key   ids.StoryletKey
	Score float64
}

// ScoreAll scores every candidate and drops those below MinViableWeight,
// preserving key-ascending order.
func ScoreAll(
	now ids.SimTick,
	phase Phase,
	candidates []Candidate,
	pstate *pressure.State,
	pressureCfg pressure.Config,
	milestoneCfg pressure.MilestoneConfig,
	lastDomain LastFiredDomain,
	personalityMatch PersonalityMatch,
	cfg Config,
) []ScoredCandidate {
	out := make([]ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		score := Score(now, phase, c, pstate, pressureCfg, milestoneCfg, lastDomain, personalityMatch, cfg)
		if score < cfg.MinViableWeight {
			continue
		}
		out = append(out, ScoredCandidate{Key: c.Storylet.Key, Score: score})
	}
	return out
}

// Select performs a deterministic weighted-random pick over scored, each
// assumed already in key-ascending order. rng must be the caller's
// "select"-domain sub-stream (derived once per step via
// drng.WithDomain(worldSeed, tick, "select")).
//
// Ties are broken by lowest key, matching the fixed candidate order —
// no jitter sub-stream is used here, per the Open Question resolution
// to keep selection reproducible from (seed, tick) alone without an
// extra documented side-channel.
func Select(rng *drng.Rng, scored []ScoredCandidate) (ids.StoryletKey, bool) {
	if len(scored) == 0 {
		return 0, false
	}

	var total float64
	for _, sc := range scored {
		total += sc.Score
	}
	if total <= 0 {
		return scored[0].Key, true
	}

	roll := rng.RangeF32(0, total)
	var cursor float64
	for _, sc := range scored {
		cursor += sc.Score
		if roll < cursor {
			return sc.Key, true
		}
	}
	return scored[len(scored)-1].Key, true
}
