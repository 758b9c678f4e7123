package tiers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/syn-director/internal/demoworld"
	"github.com/talgya/syn-director/internal/ids"
	"github.com/talgya/syn-director/internal/relationship"
)

func TestTier_PlayerIsAlwaysTier0(t *testing.T) {
	s := NewScheduler()
	require.Equal(t, Tier0, s.Tier(ids.PlayerID))
}

func TestTier_UnseenNPCDefaultsToTier2(t *testing.T) {
	s := NewScheduler()
	require.Equal(t, Tier2, s.Tier(ids.NpcId(1)))
}

func TestAssignTiers_HigherRelationshipImportanceRanksFirst(t *testing.T) {
	w := demoworld.New(2)
	s := NewScheduler()

	w.ApplyRelationshipDelta(relationship.Delta{Actor: ids.PlayerID, Target: 1, Axis: relationship.Affection, Delta: 9})
	cfg := Config{MaxTier0Npcs: 2, MaxTier1Npcs: 0}

	assignment := s.AssignTiers(0, w, nil, cfg)
	require.Equal(t, Tier0, assignment[ids.NpcId(1)])
	require.Equal(t, Tier2, assignment[ids.NpcId(2)])
}

func TestAssignTiers_ProximityBonusFavorsSameDistrictAsPlayer(t *testing.T) {
	w := demoworld.New(2) // npc 1 -> downtown, npc 2 -> riverside; player is fixed to downtown
	s := NewScheduler()

	cfg := Config{MaxTier0Npcs: 2, MaxTier1Npcs: 0}
	assignment := s.AssignTiers(0, w, nil, cfg)
	require.Equal(t, Tier0, assignment[ids.NpcId(1)], "npc 1 shares the player's downtown district")
}

func TestAssignTiers_TiesBreakByAscendingNpcID(t *testing.T) {
	w := demoworld.New(3)
	s := NewScheduler()

	cfg := Config{MaxTier0Npcs: 2, MaxTier1Npcs: 0}
	assignment := s.AssignTiers(0, w, nil, cfg)

	tier0Count := 0
	for _, tier := range assignment {
		if tier == Tier0 {
			tier0Count++
		}
	}
	require.Equal(t, 2, tier0Count)
	require.Equal(t, Tier0, assignment[ids.NpcId(1)], "npc 1 and npc 3 tie; the lower id takes the Tier0 slot")
	require.Equal(t, Tier2, assignment[ids.NpcId(3)])
}

func TestShouldUpdate_Tier0AlwaysUpdatesWhenConfigured(t *testing.T) {
	s := NewScheduler()
	cfg := UpdateConfig{Tier0EveryTick: true}
	require.True(t, s.ShouldUpdate(ids.PlayerID, 100, cfg))
}

func TestShouldUpdate_Tier2RespectsUpdateInterval(t *testing.T) {
	s := NewScheduler()
	npc := ids.NpcId(1)
	cfg := UpdateConfig{Tier2UpdateInterval: 12}

	require.True(t, s.ShouldUpdate(npc, 0, cfg), "never updated before, due immediately")
	s.MarkUpdated(npc, 0)
	require.False(t, s.ShouldUpdate(npc, 5, cfg))
	require.True(t, s.ShouldUpdate(npc, 12, cfg))
}

func TestApplyDrift_NudgesRelationshipTowardZeroBothDirections(t *testing.T) {
	w := demoworld.New(1)
	npc := ids.NpcId(1)
	w.ApplyRelationshipDelta(relationship.Delta{Actor: ids.PlayerID, Target: npc, Axis: relationship.Affection, Delta: 5})
	w.ApplyRelationshipDelta(relationship.Delta{Actor: npc, Target: ids.PlayerID, Axis: relationship.Resentment, Delta: 3})

	ApplyDrift(w, npc)

	forward := w.Relationship(ids.PlayerID, npc)
	require.Less(t, forward.Affection, 5.0)
	require.GreaterOrEqual(t, forward.Affection, 0.0)

	backward := w.Relationship(npc, ids.PlayerID)
	require.Less(t, backward.Resentment, 3.0)
}

func TestApplyDrift_NeverOvershootsPastZero(t *testing.T) {
	w := demoworld.New(1)
	npc := ids.NpcId(1)
	w.ApplyRelationshipDelta(relationship.Delta{Actor: ids.PlayerID, Target: npc, Axis: relationship.Affection, Delta: 0.005})

	ApplyDrift(w, npc)

	forward := w.Relationship(ids.PlayerID, npc)
	require.Equal(t, 0.0, forward.Affection)
}

func TestRunTick_AssignsAndDriftsWithoutPanicking(t *testing.T) {
	w := demoworld.New(4)
	s := NewScheduler()

	assignment := s.RunTick(0, w, nil, DefaultConfig(), DefaultUpdateConfig())
	require.Len(t, assignment, 5, "four NPCs plus the player")
}
