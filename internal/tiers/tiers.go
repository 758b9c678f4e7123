// Package tiers implements the NPC fidelity tier scheduler (C10):
// composite-score ranking assigns every known NPC to Tier0/1/2 each tick,
// and each tier runs stat/relationship drift at its own cadence. Tier
// assignment consumes no RNG and is idempotent given the same world
// state and scheduler state.
package tiers

import (
	"sort"

	"github.com/talgya/syn-director/internal/ids"
	"github.com/talgya/syn-director/internal/pressure"
	"github.com/talgya/syn-director/internal/relationship"
	"github.com/talgya/syn-director/internal/worldview"
)

// Tier is an NPC's current fidelity class.
type Tier uint8

const (
	Tier0 Tier = iota
	Tier1
	Tier2
)

// Config bounds tier bucket sizes and idle-demotion timing. Defaults
// below (5/15/48/1) are carried over from the reference implementation's
// TierUpdateConfig, which the public spec leaves as "implementer picks".
type Config struct {
	MaxTier0Npcs           int
	MaxTier1Npcs           int
	IdleDemoteAfter        uint64
	ProximityPromoteRadius int
}

// DefaultConfig returns the reference defaults.
func DefaultConfig() Config {
	return Config{MaxTier0Npcs: 5, MaxTier1Npcs: 15, IdleDemoteAfter: 48, ProximityPromoteRadius: 1}
}

// UpdateConfig controls per-tier drift cadence.
type UpdateConfig struct {
	Tier0EveryTick     bool
	Tier1UpdateInterval uint64
	Tier2UpdateInterval uint64
}

// DefaultUpdateConfig returns the reference defaults (every tick / 3 / 12).
func DefaultUpdateConfig() UpdateConfig {
	return UpdateConfig{Tier0EveryTick: true, Tier1UpdateInterval: 3, Tier2UpdateInterval: 12}
}

// Scheduler tracks per-NPC tier assignment and last-update ticks across
// calls to RunTick.
type Scheduler struct {
	tier       map[ids.NpcId]Tier
	lastUpdate map[ids.NpcId]*ids.SimTick
}

// NewScheduler constructs an empty Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{tier: make(map[ids.NpcId]Tier), lastUpdate: make(map[ids.NpcId]*ids.SimTick)}
}

// Tier reports an NPC's most recently assigned tier (Tier2 if unseen).
func (s *Scheduler) Tier(npc ids.NpcId) Tier {
	if npc == ids.PlayerID {
		return Tier0
	}
	t, ok := s.tier[npc]
	if !ok {
		return Tier2
	}
	return t
}

type npcScore struct {
	npc       ids.NpcId
	composite float64
}

func relationshipImportance(w worldview.World, npc ids.NpcId) float64 {
	forward := w.Relationship(ids.PlayerID, npc)
	backward := w.Relationship(npc, ids.PlayerID)
	fv := forward.Get(relationship.Affection) + forward.Get(relationship.Trust) + forward.Get(relationship.Familiarity)*0.1
	bv := backward.Get(relationship.Affection) + backward.Get(relationship.Trust) + backward.Get(relationship.Familiarity)*0.1
	if bv > fv {
		return bv
	}
	return fv
}

func proximityBonus(w worldview.World, npc ids.NpcId) float64 {
	npcDistrict, npcOK := w.NpcDistrict(npc)
	playerDistrict, playerOK := w.NpcDistrict(ids.PlayerID)
	if npcOK && playerOK && npcDistrict == playerDistrict {
		return 5.0
	}
	return 0.0
}

func eventBonus(pstate *pressure.State, npc ids.NpcId) float64 {
	if pstate != nil && pstate.HasActiveFor(npc) {
		return 10.0
	}
	return 0.0
}

func recencyScore(lastUpdate *ids.SimTick, now ids.SimTick, idleDemoteAfter uint64) float64 {
	if lastUpdate == nil {
		return 0.0
	}
	elapsed := uint64(now - *lastUpdate)
	if elapsed >= idleDemoteAfter {
		return -10.0
	}
	return (1 - float64(elapsed)/float64(idleDemoteAfter)) * 5.0
}

// AssignTiers recomputes tier assignment for every known NPC, sorted by
// (composite DESC, npc_id ASC), filling Tier0 then Tier1 then Tier2.
func (s *Scheduler) AssignTiers(now ids.SimTick, w worldview.World, pstate *pressure.State, cfg Config) map[ids.NpcId]Tier {
	npcs := w.KnownNPCs()
	scores := make([]npcScore, 0, len(npcs))
	for _, npc := range npcs {
		if npc == ids.PlayerID {
			continue
		}
		composite := relationshipImportance(w, npc) + proximityBonus(w, npc) +
			eventBonus(pstate, npc) + recencyScore(s.lastUpdate[npc], now, cfg.IdleDemoteAfter)
		scores = append(scores, npcScore{npc: npc, composite: composite})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].composite != scores[j].composite {
			return scores[i].composite > scores[j].composite
		}
		return scores[i].npc < scores[j].npc
	})

	result := make(map[ids.NpcId]Tier, len(scores)+1)
	result[ids.PlayerID] = Tier0

	tier0Slots := cfg.MaxTier0Npcs - 1 // player already took one
	if tier0Slots < 0 {
		tier0Slots = 0
	}
	tier1Slots := cfg.MaxTier1Npcs

	for i, sc := range scores {
		switch {
		case i < tier0Slots:
			result[sc.npc] = Tier0
		case i < tier0Slots+tier1Slots:
			result[sc.npc] = Tier1
		default:
			result[sc.npc] = Tier2
		}
	}

	s.tier = result
	return result
}

// ShouldUpdate reports whether npc is due for a drift pass this tick.
func (s *Scheduler) ShouldUpdate(npc ids.NpcId, now ids.SimTick, cfg UpdateConfig) bool {
	tier := s.Tier(npc)
	last := s.lastUpdate[npc]

	switch tier {
	case Tier0:
		return cfg.Tier0EveryTick
	case Tier1:
		return last == nil || uint64(now-*last) >= cfg.Tier1UpdateInterval
	default:
		return last == nil || uint64(now-*last) >= cfg.Tier2UpdateInterval
	}
}

// MarkUpdated records that npc was drifted at tick now.
func (s *Scheduler) MarkUpdated(npc ids.NpcId, now ids.SimTick) {
	tick := now
	s.lastUpdate[npc] = &tick
}

// ApplyDrift nudges the player<->npc relationship toward neutral by the
// reference implementation's small fixed deltas, and grows familiarity
// slowly. Called once per NPC due for a drift pass this tick.
func ApplyDrift(w worldview.World, npc ids.NpcId) {
	driftOne(w, ids.PlayerID, npc)
	driftOne(w, npc, ids.PlayerID)
}

func driftOne(w worldview.World, from, to ids.NpcId) {
	vec := w.Relationship(from, to)
	w.ApplyRelationshipDelta(relationship.Delta{Actor: from, Target: to, Axis: relationship.Affection, Delta: driftTowardZero(vec.Affection, 0.01), Source: "tier_drift"})
	w.ApplyRelationshipDelta(relationship.Delta{Actor: from, Target: to, Axis: relationship.Trust, Delta: driftTowardZero(vec.Trust, 0.005), Source: "tier_drift"})
	w.ApplyRelationshipDelta(relationship.Delta{Actor: from, Target: to, Axis: relationship.Resentment, Delta: driftTowardZero(vec.Resentment, 0.008), Source: "tier_drift"})
	if vec.Familiarity < 10 {
		w.ApplyRelationshipDelta(relationship.Delta{Actor: from, Target: to, Axis: relationship.Familiarity, Delta: 0.001, Source: "tier_drift"})
	}
}

func driftTowardZero(value, amount float64) float64 {
	switch {
	case value > 0:
		if value-amount < 0 {
			return -value
		}
		return -amount
	case value < 0:
		if value+amount > 0 {
			return -value
		}
		return amount
	default:
		return 0
	}
}

// RunTick is the full per-tick orchestration: reassign tiers, then drift
// every NPC due for an update this tick.
func (s *Scheduler) RunTick(now ids.SimTick, w worldview.World, pstate *pressure.State, tierCfg Config, updateCfg UpdateConfig) map[ids.NpcId]Tier {
	assignment := s.AssignTiers(now, w, pstate, tierCfg)

	npcs := w.KnownNPCs()
	sort.Slice(npcs, func(i, j int) bool { return npcs[i] < npcs[j] })

	for _, npc := range npcs {
		if s.ShouldUpdate(npc, now, updateCfg) {
			ApplyDrift(w, npc)
			s.MarkUpdated(npc, now)
		}
	}
	if s.ShouldUpdate(ids.PlayerID, now, updateCfg) {
		s.MarkUpdated(ids.PlayerID, now)
	}

	return assignment
}
