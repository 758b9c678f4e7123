package pressure

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/syn-director/internal/ids"
)

func TestTick_AccumulatesSeverityAndForcesReliefAtCrisis(t *testing.T) {
	s := NewState()
	key := ids.StoryletKey(9)
	id := s.AddPressure(Pressure{Kind: "eviction", Severity: 0, ResolutionKey: &key})

	cfg := Config{BaseSeverityIncrease: 0.5, CrisisThreshold: 0.9}

	forced := s.Tick(1, cfg)
	require.Empty(t, forced, "severity 0.5 should not yet cross a 0.9 crisis threshold")

	forced = s.Tick(2, cfg)
	require.Len(t, forced, 1)
	require.Equal(t, id, forced[0].PressureID)
	require.Equal(t, key, forced[0].Key)
	require.True(t, s.Pressures[id].Forced)
}

func TestTick_DoesNotForceReliefTwice(t *testing.T) {
	s := NewState()
	key := ids.StoryletKey(1)
	s.AddPressure(Pressure{Kind: "eviction", Severity: 1.0, ResolutionKey: &key})

	cfg := Config{CrisisThreshold: 0.5}
	forced := s.Tick(1, cfg)
	require.Len(t, forced, 1)

	forced = s.Tick(2, cfg)
	require.Empty(t, forced, "a pressure already forced must not force a second relief event")
}

func TestTick_OverdueDeadlineAddsOverdueSeverity(t *testing.T) {
	s := NewState()
	deadline := ids.SimTick(5)
	id := s.AddPressure(Pressure{Kind: "eviction", CreatedAt: 0, Deadline: &deadline, Severity: 0})

	cfg := Config{OverdueSeverityIncrease: 0.3}
	s.Tick(10, cfg) // now (10) is past deadline (5)

	require.InDelta(t, 0.3, s.Pressures[id].Severity, 1e-9)
}

func TestTick_SeverityClampsToOne(t *testing.T) {
	s := NewState()
	s.AddPressure(Pressure{Kind: "eviction", Severity: 0.9})

	cfg := Config{BaseSeverityIncrease: 0.5}
	s.Tick(1, cfg)

	for _, p := range s.Pressures {
		require.Equal(t, 1.0, p.Severity)
	}
}

func TestTick_CleansUpResolvedPressuresAfterCleanupWindow(t *testing.T) {
	s := NewState()
	id := s.AddPressure(Pressure{Kind: "eviction"})
	s.Resolve(id, 10)

	cfg := Config{ResolvedCleanupTicks: 5}
	s.Tick(12, cfg)
	require.Contains(t, s.Pressures, id, "cleanup window has not elapsed yet")

	s.Tick(15, cfg)
	require.NotContains(t, s.Pressures, id)
}

func TestResolveByKey_ResolvesAllMatchingUnresolvedPressures(t *testing.T) {
	s := NewState()
	key := ids.StoryletKey(4)
	a := s.AddPressure(Pressure{Kind: "eviction", ResolutionKey: &key})
	b := s.AddPressure(Pressure{Kind: "breakup", ResolutionKey: &key})
	other := ids.StoryletKey(5)
	c := s.AddPressure(Pressure{Kind: "debt", ResolutionKey: &other})

	s.ResolveByKey(key, 20)

	require.True(t, s.Pressures[a].Resolved)
	require.True(t, s.Pressures[b].Resolved)
	require.False(t, s.Pressures[c].Resolved)
}

func TestAdvanceMilestones_ProgressesOnDomainAndTagMatch(t *testing.T) {
	s := NewState()
	domain := ids.DomainRomance
	climaxKey := ids.StoryletKey(2)
	id := s.AddMilestone(Milestone{
		Domain:        &domain,
		AdvancingTags: []ids.Tag{"slow-burn"},
		ClimaxKey:     &climaxKey,
		CreatedAt:     0,
	})

	cfg := MilestoneConfig{DomainMatchProgress: 0.3, TagMatchProgress: 0.3, ClimaxThreshold: 0.9, MinTicksBeforeClimax: 2}

	s.AdvanceMilestones(1, ids.DomainRomance, []ids.Tag{"slow-burn"}, cfg)
	require.InDelta(t, 0.6, s.Milestones[id].Progress, 1e-9)
	require.False(t, s.Milestones[id].ClimaxFired)
}

func TestAdvanceMilestones_FiresClimaxOnceThresholdAndMinTicksMet(t *testing.T) {
	s := NewState()
	domain := ids.DomainRomance
	climaxKey := ids.StoryletKey(2)
	id := s.AddMilestone(Milestone{
		Domain:    &domain,
		Progress:  0.85,
		ClimaxKey: &climaxKey,
		CreatedAt: 0,
	})

	cfg := MilestoneConfig{DomainMatchProgress: 0.1, ClimaxThreshold: 0.9, MinTicksBeforeClimax: 5}

	climaxes := s.AdvanceMilestones(1, ids.DomainRomance, nil, cfg)
	require.Empty(t, climaxes, "min ticks before climax has not elapsed")

	climaxes = s.AdvanceMilestones(6, ids.DomainRomance, nil, cfg)
	require.Len(t, climaxes, 1)
	require.Equal(t, id, climaxes[0].MilestoneID)
	require.Equal(t, climaxKey, climaxes[0].Key)
	require.True(t, s.Milestones[id].ClimaxFired)

	climaxes = s.AdvanceMilestones(7, ids.DomainRomance, nil, cfg)
	require.Empty(t, climaxes, "a fired climax must not fire twice")
}

func TestMilestoneBonus_OnlyAppliesWithinHotWindow(t *testing.T) {
	s := NewState()
	s.AddMilestone(Milestone{AdvancingTags: []ids.Tag{"slow-burn"}, Progress: 0.2})
	id2 := s.AddMilestone(Milestone{AdvancingTags: []ids.Tag{"slow-burn"}, Progress: 0.6})

	cfg := MilestoneConfig{HotThreshold: 0.5, ClimaxThreshold: 0.9, HotMilestoneBonus: 2.0, MaxMilestoneBonus: 10.0}

	bonus := s.MilestoneBonus([]ids.Tag{"slow-burn"}, cfg)
	require.InDelta(t, 1.25, bonus, 1e-9, "only the milestone within [HotThreshold, ClimaxThreshold] should contribute, ramped by its progress through the band")
	_ = id2
}

func TestMilestoneBonus_RampsAcrossHotToClimaxBand(t *testing.T) {
	s := NewState()
	atHot := s.AddMilestone(Milestone{AdvancingTags: []ids.Tag{"t"}, Progress: 0.5})

	cfg := MilestoneConfig{HotThreshold: 0.5, ClimaxThreshold: 0.9, HotMilestoneBonus: 3.0, MaxMilestoneBonus: 10.0}
	require.InDelta(t, 1.0, s.MilestoneBonus([]ids.Tag{"t"}, cfg), 1e-9, "progress at hot_threshold contributes no bonus yet")

	s.Milestones[atHot].Progress = 0.9
	require.InDelta(t, 3.0, s.MilestoneBonus([]ids.Tag{"t"}, cfg), 1e-9, "progress at climax_threshold contributes the full bonus")
}

func TestMilestoneBonus_ClampsToMax(t *testing.T) {
	s := NewState()
	s.AddMilestone(Milestone{AdvancingTags: []ids.Tag{"t"}, Progress: 0.9})
	s.AddMilestone(Milestone{AdvancingTags: []ids.Tag{"t"}, Progress: 0.9})

	cfg := MilestoneConfig{HotThreshold: 0.5, ClimaxThreshold: 0.9, HotMilestoneBonus: 3.0, MaxMilestoneBonus: 4.0}

	bonus := s.MilestoneBonus([]ids.Tag{"t"}, cfg)
	require.Equal(t, 4.0, bonus)
}

func TestPressureMatchBonus_ScalesWithSeverityAndNeverDropsBelowOne(t *testing.T) {
	s := NewState()
	key := ids.StoryletKey(1)
	s.AddPressure(Pressure{Kind: "eviction", ResolutionKey: &key, Severity: 0.5})

	cfg := Config{AddressingBonus: 3.0}
	bonus := s.PressureMatchBonus(key, nil, cfg)
	require.InDelta(t, 2.0, bonus, 1e-9) // 1 + (3-1)*0.5
}

func TestPressureMatchBonus_IgnoresResolvedPressures(t *testing.T) {
	s := NewState()
	key := ids.StoryletKey(1)
	id := s.AddPressure(Pressure{Kind: "eviction", ResolutionKey: &key, Severity: 1.0})
	s.Resolve(id, 1)

	cfg := Config{AddressingBonus: 5.0}
	bonus := s.PressureMatchBonus(key, nil, cfg)
	require.Equal(t, 1.0, bonus)
}

func TestHasActiveFor_TracksUnresolvedPressuresAndUnclimaxedMilestones(t *testing.T) {
	s := NewState()
	npc := ids.NpcId(7)
	id := s.AddPressure(Pressure{Kind: "debt", RelatedNPCs: []ids.NpcId{npc}})

	require.True(t, s.HasActiveFor(npc))
	require.False(t, s.HasActiveFor(ids.NpcId(8)))

	s.Resolve(id, 1)
	require.False(t, s.HasActiveFor(npc))
}

func TestExportRestore_RoundTrip(t *testing.T) {
	s := NewState()
	key := ids.StoryletKey(1)
	s.AddPressure(Pressure{Kind: "eviction", ResolutionKey: &key, Severity: 0.4})
	domain := ids.DomainCareer
	s.AddMilestone(Milestone{Domain: &domain, Progress: 0.2})

	pressures, milestones, nextID := s.Export()
	restored := Restore(pressures, milestones, nextID)

	gotPressures, gotMilestones, gotNextID := restored.Export()
	require.Equal(t, pressures, gotPressures)
	require.Equal(t, milestones, gotMilestones)
	require.Equal(t, nextID, gotNextID)
}
