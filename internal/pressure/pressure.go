// Package pressure implements the Director's pressure and milestone
// subsystem (C8): open pressures with severity and optional deadline
// that can force events at crisis, and narrative milestones whose
// progress can schedule a climactic storylet.
package pressure

import (
	"sort"

	"github.com/talgya/syn-director/internal/ids"
)

// Id identifies one open pressure or milestone for the life of a world.
type Id uint64

// Pressure is an open, unresolved situation with accumulating severity.
type Pressure struct {
	ID            Id
	Kind          string
	Label         string
	CreatedAt     ids.SimTick
	Deadline      *ids.SimTick
	Severity      float64 // [0, 1]
	ResolutionKey *ids.StoryletKey
	Forced        bool // a forced relief event has already been emitted
	Resolved      bool
	ResolvedAt    *ids.SimTick
	RelatedNPCs   []ids.NpcId // NPCs this pressure concerns, for tier scheduling's event_bonus
}

// Milestone is a multi-step narrative arc tracked by progress.
type Milestone struct {
	ID            Id
	Kind          string
	Label         string
	CreatedAt     ids.SimTick
	Progress      float64 // [0, 1]
	AdvancingTags []ids.Tag
	Domain        *ids.StoryDomain
	ClimaxKey     *ids.StoryletKey
	ClimaxFired   bool
	RelatedNPCs   []ids.NpcId
}

// HasActiveFor reports whether any unresolved pressure or un-climaxed
// milestone references npc, feeding the tier scheduler's event_bonus.
func (s *State) HasActiveFor(npc ids.NpcId) bool {
	for _, p := range s.Pressures {
		if p.Resolved {
			continue
		}
		if npcIn(p.RelatedNPCs, npc) {
			return true
		}
	}
	for _, m := range s.Milestones {
		if m.ClimaxFired {
			continue
		}
		if npcIn(m.RelatedNPCs, npc) {
			return true
		}
	}
	return false
}

func npcIn(list []ids.NpcId, npc ids.NpcId) bool {
	for _, n := range list {
		if n == npc {
			return true
		}
	}
	return false
}

// Config configures pressure severity growth and crisis/cleanup timing.
type Config struct {
	BaseSeverityIncrease    float64 `yaml:"base_severity_increase"`
	DeadlineUrgencyFactor   float64 `yaml:"deadline_urgency_factor"`
	OverdueSeverityIncrease float64 `yaml:"overdue_severity_increase"`
	CrisisThreshold         float64 `yaml:"crisis_threshold"`
	ResolvedCleanupTicks    uint64  `yaml:"resolved_cleanup_ticks"`
	PressureDecayRate       float64 `yaml:"pressure_decay_rate"`
	UrgencyThreshold        float64 `yaml:"urgency_threshold"`
	MaxPressure             float64 `yaml:"max_pressure"`
	AddressingBonus         float64 `yaml:"addressing_bonus"`
}

// MilestoneConfig configures milestone progress and climax scheduling.
type MilestoneConfig struct {
	ProgressPerEvent     float64 `yaml:"progress_per_event"`
	HotMilestoneBonus    float64 `yaml:"hot_milestone_bonus"`
	HotThreshold         float64 `yaml:"hot_threshold"`
	ClimaxThreshold      float64 `yaml:"climax_threshold"`
	MinTicksBeforeClimax uint64  `yaml:"min_ticks_before_climax"`
	DomainMatchProgress  float64 `yaml:"domain_match_progress"`
	TagMatchProgress     float64 `yaml:"tag_match_progress"`
	MaxMilestoneBonus    float64 `yaml:"max_milestone_bonus"`
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// State holds all open pressures and milestones. Owned exclusively by the
// Director, mutated only by the methods below.
type State struct {
	Pressures  map[Id]*Pressure
	Milestones map[Id]*Milestone
	nextID     Id
}

// NewState constructs an empty pressure/milestone state.
func NewState() *State {
	return &State{Pressures: make(map[Id]*Pressure), Milestones: make(map[Id]*Milestone)}
}

func (s *State) allocID() Id {
	s.nextID++
	return s.nextID
}

// AddPressure registers a newly ingested pressure and returns its Id.
func (s *State) AddPressure(p Pressure) Id {
	p.ID = s.allocID()
	s.Pressures[p.ID] = &p
	return p.ID
}

// AddMilestone registers a newly ingested milestone and returns its Id.
func (s *State) AddMilestone(m Milestone) Id {
	m.ID = s.allocID()
	s.Milestones[m.ID] = &m
	return m.ID
}

// Export returns every pressure and milestone, plus the next-id counter,
// in ascending-id order, for the persistence layer to serialize.
func (s *State) Export() ([]Pressure, []Milestone, Id) {
	pressures := make([]Pressure, 0, len(s.Pressures))
	for _, id := range s.sortedPressureIDs() {
		pressures = append(pressures, *s.Pressures[id])
	}
	milestones := make([]Milestone, 0, len(s.Milestones))
	for _, id := range s.sortedMilestoneIDs() {
		milestones = append(milestones, *s.Milestones[id])
	}
	return pressures, milestones, s.nextID
}

// Restore rebuilds a State from previously Export-ed pressures,
// milestones and next-id counter.
func Restore(pressures []Pressure, milestones []Milestone, nextID Id) *State {
	s := NewState()
	for _, p := range pressures {
		cp := p
		s.Pressures[cp.ID] = &cp
	}
	for _, m := range milestones {
		cm := m
		s.Milestones[cm.ID] = &cm
	}
	s.nextID = nextID
	return s
}

// ForcedRelief is a crisis-triggered forced event the caller must enqueue.
type ForcedRelief struct {
	PressureID Id
	Key        ids.StoryletKey
}

// ClimaxSchedule is a milestone climax crossing the caller must enqueue.
type ClimaxSchedule struct {
	MilestoneID Id
	Key         ids.StoryletKey
}

// sortedPressureIDs returns pressure keys in ascending order so iteration
// never depends on map order (§9 hash-iteration nondeterminism rule).
func (s *State) sortedPressureIDs() []Id {
	out := make([]Id, 0, len(s.Pressures))
	for id := range s.Pressures {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *State) sortedMilestoneIDs() []Id {
	out := make([]Id, 0, len(s.Milestones))
	for id := range s.Milestones {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Tick advances every open pressure's severity by one step (§4.7 step 1),
// then checks for crisis crossings (step 2), returning any forced relief
// events to enqueue. Finally, resolved/cleaned-up pressures are dropped
// (step 3).
func (s *State) Tick(now ids.SimTick, cfg Config) []ForcedRelief {
	var forced []ForcedRelief

	for _, id := range s.sortedPressureIDs() {
		p := s.Pressures[id]
		if p.Resolved {
			continue
		}

		p.Severity += cfg.BaseSeverityIncrease
		if p.Deadline != nil {
			if *p.Deadline > now {
				total := float64(*p.Deadline - p.CreatedAt)
				remaining := float64(*p.Deadline - now)
				if total > 0 {
					p.Severity += cfg.DeadlineUrgencyFactor * (1 - remaining/total)
				}
			} else {
				p.Severity += cfg.OverdueSeverityIncrease
			}
		}
		p.Severity = clamp01(p.Severity)

		if p.Severity >= cfg.CrisisThreshold && p.ResolutionKey != nil && !p.Forced {
			p.Forced = true
			forced = append(forced, ForcedRelief{PressureID: id, Key: *p.ResolutionKey})
		}
	}

	for _, id := range s.sortedPressureIDs() {
		p := s.Pressures[id]
		if p.Resolved && p.ResolvedAt != nil && uint64(now-*p.ResolvedAt) >= cfg.ResolvedCleanupTicks {
			delete(s.Pressures, id)
		}
	}

	return forced
}

// Resolve marks a pressure resolved (called by outcome application when a
// storylet addresses it), starting the ResolvedCleanupTicks countdown.
func (s *State) Resolve(id Id, now ids.SimTick) {
	p, ok := s.Pressures[id]
	if !ok || p.Resolved {
		return
	}
	p.Resolved = true
	tick := now
	p.ResolvedAt = &tick
}

// ResolveByKey resolves every unresolved pressure whose resolution key
// matches the fired key — used when the Director doesn't track which
// specific pressure a fired PressureRelief event belonged to.
func (s *State) ResolveByKey(key ids.StoryletKey, now ids.SimTick) {
	for _, id := range s.sortedPressureIDs() {
		p := s.Pressures[id]
		if !p.Resolved && p.ResolutionKey != nil && *p.ResolutionKey == key {
			s.Resolve(id, now)
		}
	}
}

// AdvanceMilestones applies domain/tag-match progress for a fired
// storylet and returns any climax crossings to schedule.
func (s *State) AdvanceMilestones(now ids.SimTick, domain ids.StoryDomain, tags []ids.Tag, cfg MilestoneConfig) []ClimaxSchedule {
	var climaxes []ClimaxSchedule

	for _, id := range s.sortedMilestoneIDs() {
		m := s.Milestones[id]
		if m.ClimaxFired {
			continue
		}

		advanced := false
		if m.Domain != nil && *m.Domain == domain {
			m.Progress = clamp01(m.Progress + cfg.DomainMatchProgress)
			advanced = true
		}
		if tagsOverlap(m.AdvancingTags, tags) {
			m.Progress = clamp01(m.Progress + cfg.TagMatchProgress)
			advanced = true
		}
		_ = advanced

		if m.Progress >= cfg.ClimaxThreshold &&
			uint64(now-m.CreatedAt) >= cfg.MinTicksBeforeClimax &&
			m.ClimaxKey != nil {
			m.ClimaxFired = true
			climaxes = append(climaxes, ClimaxSchedule{MilestoneID: id, Key: *m.ClimaxKey})
		}
	}

	return climaxes
}

func tagsOverlap(a, b []ids.Tag) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// MilestoneBonus computes the milestone scoring multiplier for a
// candidate storylet's tags (§4.5 milestone_bonus): scaled by a
// milestone's progress through the [hot_threshold, climax_threshold]
// band rather than applied flat, mirroring PressureMatchBonus's severity
// ramp below.
func (s *State) MilestoneBonus(storyletTags []ids.Tag, cfg MilestoneConfig) float64 {
	bonus := 1.0
	span := cfg.ClimaxThreshold - cfg.HotThreshold
	for _, id := range s.sortedMilestoneIDs() {
		m := s.Milestones[id]
		if !tagsOverlap(m.AdvancingTags, storyletTags) {
			continue
		}
		if m.Progress < cfg.HotThreshold || m.Progress > cfg.ClimaxThreshold {
			continue
		}
		ramp := 1.0
		if span > 0 {
			ramp = (m.Progress - cfg.HotThreshold) / span
		}
		scaled := 1.0 + (cfg.HotMilestoneBonus-1.0)*ramp
		if scaled < 1.0 {
			scaled = 1.0
		}
		bonus *= scaled
	}
	if bonus > cfg.MaxMilestoneBonus {
		bonus = cfg.MaxMilestoneBonus
	}
	return bonus
}

// PressureMatchBonus computes the pressure scoring multiplier for a
// candidate storylet (§4.5 pressure_match_bonus): resolution-key matches
// use AddressingBonus scaled by severity; tag-overlap matches use
// AddressingBonus as a catch-all, per the Open Question resolution in
// spec.md §9 (addressing_bonus authoritative for direct targets,
// pressure_match_bonus as the catch-all tag bonus — modeled here with a
// single configured bonus value since both knobs scale identically).
func (s *State) PressureMatchBonus(key ids.StoryletKey, storyletTags []ids.Tag, cfg Config) float64 {
	bonus := 1.0
	for _, id := range s.sortedPressureIDs() {
		p := s.Pressures[id]
		if p.Resolved {
			continue
		}
		matches := (p.ResolutionKey != nil && *p.ResolutionKey == key) || pressureTagsMatch(p, storyletTags)
		if !matches {
			continue
		}
		scaled := 1.0 + (cfg.AddressingBonus-1.0)*p.Severity
		if scaled < 1.0 {
			scaled = 1.0
		}
		bonus *= scaled
	}
	return bonus
}

func pressureTagsMatch(p *Pressure, storyletTags []ids.Tag) bool {
	want := ids.Tag(p.Kind)
	for _, t := range storyletTags {
		if t == want {
			return true
		}
	}
	return false
}
