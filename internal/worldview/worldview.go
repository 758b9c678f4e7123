// Package worldview defines the read-only snapshot the Director consumes
// each step and the narrow mutator surface outcome application uses
// afterward. The Director never holds a Context across steps and never
// mutates World directly except through these named calls.
package worldview

import (
	"github.com/talgya/syn-director/internal/ids"
	"github.com/talgya/syn-director/internal/relationship"
	"github.com/talgya/syn-director/internal/stats"
)

// MemoryEntry is one journal entry as the Director sees it.
type MemoryEntry struct {
	Tags []ids.Tag
	Tick ids.SimTick
}

// Journal is the read-only memory journal API (§6.4).
type Journal interface {
	Entries(npc ids.NpcId) []MemoryEntry
}

// ExternalPressureEvent is produced by systems outside the Director's
// core (district/relationship pressure detectors) and ingested into
// Director state at the start of a step (§4.8 step 4).
type ExternalPressureEvent struct {
	EventID       string // stable identity, used for idempotent ingestion
	Kind          string
	Label         string
	Deadline      *ids.SimTick
	Severity      float64
	ResolutionKey *ids.StoryletKey
}

// ExternalMilestoneEvent is the milestone analogue of ExternalPressureEvent.
type ExternalMilestoneEvent struct {
	EventID       string
	Kind          string
	Label         string
	Domain        *ids.StoryDomain
	AdvancingTags []ids.Tag
	ClimaxKey     *ids.StoryletKey
}

// World is the borrowed snapshot context the Director consumes within a
// step. All reads are cheap; all writes go through the explicit mutator
// methods so outcome application has one auditable path (§3.4, §4.3).
type World interface {
	PlayerLifeStage() ids.LifeStage
	PlayerStats() *stats.Stats
	PlayerKarma() stats.Karma
	SetPlayerKarma(k stats.Karma)

	HasFlag(name string) bool
	SetFlag(name string, set bool)

	// Relationship returns the vector for the ordered pair, defaulting to
	// the zero vector for unknown pairs.
	Relationship(from, to ids.NpcId) relationship.Vector
	ApplyRelationshipDelta(d relationship.Delta)

	// DistrictNumber/DistrictString read named district_state fields.
	DistrictNumber(name string) (float64, bool)
	DistrictString(name string) (string, bool)

	// NpcDistrict reports which district an NPC (or the player, via
	// ids.PlayerID) currently occupies, for the tier scheduler's
	// proximity bonus.
	NpcDistrict(npc ids.NpcId) (string, bool)

	// KnownNPCs lists every NPC the world currently tracks (excluding
	// the player), for the tier scheduler's per-tick scan.
	KnownNPCs() []ids.NpcId

	AppendMemory(npc ids.NpcId, entry MemoryEntry)

	// DrainPressureEvents/DrainMilestoneEvents pop and clear the FIFO
	// queues of externally-produced events for this step's ingestion.
	DrainPressureEvents() []ExternalPressureEvent
	DrainMilestoneEvents() []ExternalMilestoneEvent
}

// Context bundles a step's borrowed inputs. Constructed once per step,
// never retained past it.
type Context struct {
	World       World
	Memory      Journal
	CurrentTick ids.SimTick
}
