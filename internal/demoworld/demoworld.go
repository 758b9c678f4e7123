// Package demoworld provides a minimal in-memory worldview.World and
// worldview.Journal implementation for exercising a Director outside of
// a real game host — the CLI run subcommand's demo backend.
package demoworld

import (
	"github.com/talgya/syn-director/internal/ids"
	"github.com/talgya/syn-director/internal/relationship"
	"github.com/talgya/syn-director/internal/stats"
	"github.com/talgya/syn-director/internal/worldview"
)

// World is a small in-memory host satisfying worldview.World, seeded
// with a handful of NPCs spread across a couple of districts.
type World struct {
	lifeStage     ids.LifeStage
	playerStats   *stats.Stats
	playerKarma   stats.Karma
	flags         map[string]bool
	relationships map[relationship.OrderedPair]*relationship.Vector
	districtNums  map[string]float64
	districtStrs  map[string]string
	npcDistrict   map[ids.NpcId]string
	npcs          []ids.NpcId
	memory        map[ids.NpcId][]worldview.MemoryEntry

	pendingPressure  []worldview.ExternalPressureEvent
	pendingMilestone []worldview.ExternalMilestoneEvent
}

// New constructs a demo world with npcCount NPCs split evenly across
// "downtown" and "riverside".
func New(npcCount int) *World {
	w := &World{
		lifeStage:     ids.LifeStageYoungAdult,
		playerStats:   &stats.Stats{},
		flags:         make(map[string]bool),
		relationships: make(map[relationship.OrderedPair]*relationship.Vector),
		districtNums:  map[string]float64{"crime_level": 0.1},
		districtStrs:  map[string]string{"weather": "clear"},
		npcDistrict:   make(map[ids.NpcId]string),
		memory:        make(map[ids.NpcId][]worldview.MemoryEntry),
	}
	districts := []string{"downtown", "riverside"}
	for i := 0; i < npcCount; i++ {
		npc := ids.NpcId(i + 1)
		w.npcs = append(w.npcs, npc)
		w.npcDistrict[npc] = districts[i%len(districts)]
	}
	return w
}

func (w *World) PlayerLifeStage() ids.LifeStage { return w.lifeStage }
func (w *World) PlayerStats() *stats.Stats      { return w.playerStats }
func (w *World) PlayerKarma() stats.Karma       { return w.playerKarma }
func (w *World) SetPlayerKarma(k stats.Karma)   { w.playerKarma = k }

func (w *World) HasFlag(name string) bool { return w.flags[name] }
func (w *World) SetFlag(name string, set bool) {
	if set {
		w.flags[name] = true
	} else {
		delete(w.flags, name)
	}
}

func (w *World) Relationship(from, to ids.NpcId) relationship.Vector {
	v, ok := w.relationships[relationship.OrderedPair{From: from, To: to}]
	if !ok {
		return relationship.Vector{}
	}
	return *v
}

func (w *World) ApplyRelationshipDelta(d relationship.Delta) {
	pair := relationship.OrderedPair{From: d.Actor, To: d.Target}
	v, ok := w.relationships[pair]
	if !ok {
		v = &relationship.Vector{}
		w.relationships[pair] = v
	}
	v.ApplyDelta(d.Axis, d.Delta)
}

func (w *World) DistrictNumber(name string) (float64, bool) {
	v, ok := w.districtNums[name]
	return v, ok
}

func (w *World) DistrictString(name string) (string, bool) {
	v, ok := w.districtStrs[name]
	return v, ok
}

func (w *World) NpcDistrict(npc ids.NpcId) (string, bool) {
	if npc == ids.PlayerID {
		return "downtown", true
	}
	d, ok := w.npcDistrict[npc]
	return d, ok
}

func (w *World) KnownNPCs() []ids.NpcId {
	out := make([]ids.NpcId, len(w.npcs))
	copy(out, w.npcs)
	return out
}

func (w *World) AppendMemory(npc ids.NpcId, entry worldview.MemoryEntry) {
	w.memory[npc] = append(w.memory[npc], entry)
}

func (w *World) DrainPressureEvents() []worldview.ExternalPressureEvent {
	out := w.pendingPressure
	w.pendingPressure = nil
	return out
}

func (w *World) DrainMilestoneEvents() []worldview.ExternalMilestoneEvent {
	out := w.pendingMilestone
	w.pendingMilestone = nil
	return out
}

// QueuePressureEvent injects an externally-sourced pressure event, to be
// ingested on the next step.
func (w *World) QueuePressureEvent(ev worldview.ExternalPressureEvent) {
	w.pendingPressure = append(w.pendingPressure, ev)
}

// QueueMilestoneEvent injects an externally-sourced milestone event, to
// be ingested on the next step.
func (w *World) QueueMilestoneEvent(ev worldview.ExternalMilestoneEvent) {
	w.pendingMilestone = append(w.pendingMilestone, ev)
}

// Journal is a trivial in-memory worldview.Journal backed by the same
// per-NPC memory slices World.AppendMemory writes to.
type Journal struct {
	world *World
}

// NewJournal returns a Journal that reads back memories appended to w.
func NewJournal(w *World) *Journal {
	return &Journal{world: w}
}

func (j *Journal) Entries(npc ids.NpcId) []worldview.MemoryEntry {
	return j.world.memory[npc]
}
