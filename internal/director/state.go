package director

import (
	"sort"

	"github.com/talgya/syn-director/internal/cooldown"
	"github.com/talgya/syn-director/internal/equeue"
	"github.com/talgya/syn-director/internal/ids"
	"github.com/talgya/syn-director/internal/pressure"
	"github.com/talgya/syn-director/internal/scoring"
)

// LastFiredState tracks when storylets, domains and tags last fired, the
// input the scoring engine's variety factor reads.
type LastFiredState struct {
	LastStoryletTick map[ids.StoryletKey]ids.SimTick
	LastByDomain     map[ids.StoryDomain]ids.SimTick
	LastByTag        map[ids.Tag]ids.SimTick
	MostRecentDomain *ids.StoryDomain
}

// NewLastFiredState constructs an empty LastFiredState.
func NewLastFiredState() *LastFiredState {
	return &LastFiredState{
		LastStoryletTick: make(map[ids.StoryletKey]ids.SimTick),
		LastByDomain:     make(map[ids.StoryDomain]ids.SimTick),
		LastByTag:        make(map[ids.Tag]ids.SimTick),
	}
}

// RecordFired updates every last-fired index for a storylet that just fired.
func (l *LastFiredState) RecordFired(key ids.StoryletKey, domain ids.StoryDomain, tags []ids.Tag, tick ids.SimTick) {
	l.LastStoryletTick[key] = tick
	l.LastByDomain[domain] = tick
	for _, tag := range tags {
		l.LastByTag[tag] = tick
	}
	d := domain
	l.MostRecentDomain = &d
}

// StoryletFiredSince reports whether key has fired at or after since.
func (l *LastFiredState) StoryletFiredSince(key ids.StoryletKey, since ids.SimTick) bool {
	t, ok := l.LastStoryletTick[key]
	return ok && t >= since
}

// LastTickForStorylet returns when key last fired, if ever.
func (l *LastFiredState) LastTickForStorylet(key ids.StoryletKey) (ids.SimTick, bool) {
	t, ok := l.LastStoryletTick[key]
	return t, ok
}

// NarrativePhase is the Director's current pacing phase.
type NarrativePhase = scoring.Phase

// State is all mutable Director state (§3.3), owned exclusively by one
// Director and mutated only through Step.
type State struct {
	Tick            ids.SimTick
	NarrativeHeat   float64
	HeatMomentum    float64
	NarrativePhase  NarrativePhase
	PhaseStartedAt  ids.SimTick
	LastAnyFiredAt  *ids.SimTick

	PendingQueue    *equeue.Queue
	ActivePressures *pressure.State
	Cooldowns       *cooldown.State
	LastFired       *LastFiredState

	// seenExternalEvents makes external pressure/milestone ingestion
	// idempotent by event identity (§4.8 step 4).
	seenExternalEvents map[string]bool
}

// NewState constructs a fresh Director state at tick 0, phase LowKey.
func NewState(maxQueueSize int) *State {
	return &State{
		Tick:               0,
		NarrativePhase:     scoring.PhaseLowKey,
		PhaseStartedAt:     0,
		PendingQueue:       equeue.New(maxQueueSize),
		ActivePressures:    pressure.NewState(),
		Cooldowns:          cooldown.New(),
		LastFired:          NewLastFiredState(),
		seenExternalEvents: make(map[string]bool),
	}
}

// ExportSeenEvents returns every externally-ingested event id the
// Director has already seen, in sorted order, for the persistence layer.
func (s *State) ExportSeenEvents() []string {
	out := make([]string, 0, len(s.seenExternalEvents))
	for id := range s.seenExternalEvents {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// RestoreSeenEvents re-populates the seen-event set from a previously
// exported list.
func (s *State) RestoreSeenEvents(ids []string) {
	for _, id := range ids {
		s.seenExternalEvents[id] = true
	}
}

// RestoreState reconstructs a State from previously exported components
// (§4.10): the caller is responsible for decoding each sub-component
// (queue, pressures, cooldowns, last-fired) via its own package.
func RestoreState(
	tick ids.SimTick,
	heat, momentum float64,
	phase NarrativePhase,
	phaseStartedAt ids.SimTick,
	lastAnyFiredAt *ids.SimTick,
	queue *equeue.Queue,
	pressures *pressure.State,
	cooldowns *cooldown.State,
	lastFired *LastFiredState,
	seenEvents []string,
) *State {
	s := &State{
		Tick:               tick,
		NarrativeHeat:       heat,
		HeatMomentum:        momentum,
		NarrativePhase:      phase,
		PhaseStartedAt:      phaseStartedAt,
		LastAnyFiredAt:      lastAnyFiredAt,
		PendingQueue:        queue,
		ActivePressures:     pressures,
		Cooldowns:           cooldowns,
		LastFired:           lastFired,
		seenExternalEvents:  make(map[string]bool),
	}
	s.RestoreSeenEvents(seenEvents)
	return s
}

// SetQueueMaxSize rebinds the pending queue's bound after a snapshot
// restore, since the wire format doesn't carry it (it comes from Config).
func (s *State) SetQueueMaxSize(maxSize int) {
	s.PendingQueue.SetMaxSize(maxSize)
}

// TicksInCurrentPhase returns how long the Director has been in its
// current phase.
func (s *State) TicksInCurrentPhase() uint64 {
	if s.Tick < s.PhaseStartedAt {
		return 0
	}
	return uint64(s.Tick - s.PhaseStartedAt)
}

// ClampHeat clamps NarrativeHeat to [minHeat, maxHeat].
func (s *State) ClampHeat(minHeat, maxHeat float64) {
	if s.NarrativeHeat < minHeat {
		s.NarrativeHeat = minHeat
	}
	if s.NarrativeHeat > maxHeat {
		s.NarrativeHeat = maxHeat
	}
}

// UpdatePhase runs the phase transition state machine (§4.8.1). Returns
// true iff a transition occurred.
func (s *State) UpdatePhase(thresholds PhaseThresholds, minPhaseDuration uint64) bool {
	if s.TicksInCurrentPhase() < minPhaseDuration {
		return false
	}

	heat := s.NarrativeHeat
	var next *NarrativePhase
	set := func(p NarrativePhase) { next = &p }

	switch s.NarrativePhase {
	case scoring.PhaseLowKey:
		if heat >= thresholds.LowkeyToRising {
			set(scoring.PhaseRising)
		}
	case scoring.PhaseRising:
		switch {
		case heat >= thresholds.RisingToPeak:
			set(scoring.PhasePeak)
		case heat < thresholds.RecoveryToLowkey:
			set(scoring.PhaseLowKey)
		}
	case scoring.PhasePeak:
		if heat < thresholds.PeakToFallout {
			set(scoring.PhaseFallout)
		}
	case scoring.PhaseFallout:
		switch {
		case heat < thresholds.FalloutToRecovery:
			set(scoring.PhaseRecovery)
		case heat >= thresholds.RisingToPeak:
			set(scoring.PhasePeak)
		}
	case scoring.PhaseRecovery:
		switch {
		case heat < thresholds.RecoveryToLowkey:
			set(scoring.PhaseLowKey)
		case heat >= thresholds.LowkeyToRising:
			set(scoring.PhaseRising)
		}
	}

	if next == nil {
		return false
	}
	s.NarrativePhase = *next
	s.PhaseStartedAt = s.Tick
	return true
}
