package demoworld

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/syn-director/internal/ids"
	"github.com/talgya/syn-director/internal/relationship"
	"github.com/talgya/syn-director/internal/worldview"
)

func TestNew_SplitsNPCsAcrossTwoDistricts(t *testing.T) {
	w := New(4)
	require.Len(t, w.KnownNPCs(), 4)

	downtown, ok := w.NpcDistrict(ids.NpcId(1))
	require.True(t, ok)
	require.Equal(t, "downtown", downtown)

	riverside, ok := w.NpcDistrict(ids.NpcId(2))
	require.True(t, ok)
	require.Equal(t, "riverside", riverside)
}

func TestNpcDistrict_PlayerIsAlwaysDowntown(t *testing.T) {
	w := New(0)
	d, ok := w.NpcDistrict(ids.PlayerID)
	require.True(t, ok)
	require.Equal(t, "downtown", d)
}

func TestFlags_SetAndUnset(t *testing.T) {
	w := New(0)
	require.False(t, w.HasFlag("met_rival"))

	w.SetFlag("met_rival", true)
	require.True(t, w.HasFlag("met_rival"))

	w.SetFlag("met_rival", false)
	require.False(t, w.HasFlag("met_rival"))
}

func TestRelationship_DefaultsToZeroVectorThenAccumulatesDeltas(t *testing.T) {
	w := New(1)
	require.Equal(t, relationship.Vector{}, w.Relationship(ids.PlayerID, 1))

	w.ApplyRelationshipDelta(relationship.Delta{Actor: ids.PlayerID, Target: 1, Axis: relationship.Trust, Delta: 4})
	require.Equal(t, 4.0, w.Relationship(ids.PlayerID, 1).Trust)
}

func TestPressureAndMilestoneEventQueues_DrainOnce(t *testing.T) {
	w := New(0)
	w.QueuePressureEvent(worldview.ExternalPressureEvent{EventID: "p1"})
	w.QueueMilestoneEvent(worldview.ExternalMilestoneEvent{EventID: "m1"})

	pressures := w.DrainPressureEvents()
	require.Len(t, pressures, 1)
	require.Empty(t, w.DrainPressureEvents())

	milestones := w.DrainMilestoneEvents()
	require.Len(t, milestones, 1)
	require.Empty(t, w.DrainMilestoneEvents())
}

func TestJournal_ReadsBackAppendedMemories(t *testing.T) {
	w := New(0)
	j := NewJournal(w)

	require.Empty(t, j.Entries(ids.PlayerID))

	w.AppendMemory(ids.PlayerID, worldview.MemoryEntry{Tags: []ids.Tag{"betrayal"}, Tick: 5})
	entries := j.Entries(ids.PlayerID)
	require.Len(t, entries, 1)
	require.Equal(t, ids.Tag("betrayal"), entries[0].Tags[0])
}

func TestPlayerKarmaAndLifeStage_DefaultsAndSetters(t *testing.T) {
	w := New(0)
	require.Equal(t, ids.LifeStageYoungAdult, w.PlayerLifeStage())

	w.SetPlayerKarma(42)
	require.Equal(t, 42.0, float64(w.PlayerKarma()))
}
