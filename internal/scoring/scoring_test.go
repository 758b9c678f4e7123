package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/syn-director/internal/drng"
	"github.com/talgya/syn-director/internal/ids"
	"github.com/talgya/syn-director/internal/pressure"
	"github.com/talgya/syn-director/internal/storylet"
)

func compiled(key ids.StoryletKey, heat uint8, weight float64, domain ids.StoryDomain) *storylet.Compiled {
	return &storylet.Compiled{Key: key, Heat: heat, Weight: weight, Domain: domain}
}

func TestPhase_String(t *testing.T) {
	cases := []struct {
		phase Phase
		want  string
	}{
		{PhaseLowKey, "LowKey"},
		{PhaseRising, "Rising"},
		{PhasePeak, "Peak"},
		{PhaseFallout, "Fallout"},
		{PhaseRecovery, "Recovery"},
		{Phase(99), "Unknown"},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			require.Equal(t, tc.want, tc.phase.String())
		})
	}
}

func TestScore_PeakPhaseFavorsHighHeat(t *testing.T) {
	cfg := DefaultConfig()
	hot := Candidate{Storylet: compiled(1, 8, 1.0, ids.DomainRomance)}
	cold := Candidate{Storylet: compiled(2, 1, 1.0, ids.DomainRomance)}

	hotScore := Score(0, PhasePeak, hot, nil, pressure.Config{}, pressure.MilestoneConfig{}, LastFiredDomain{}, nil, cfg)
	coldScore := Score(0, PhasePeak, cold, nil, pressure.Config{}, pressure.MilestoneConfig{}, LastFiredDomain{}, nil, cfg)

	require.Greater(t, hotScore, coldScore, "Peak phase must favor heat >= PeakHeatFloor")
}

func TestScore_LowKeyPhaseFavorsLowHeat(t *testing.T) {
	cfg := DefaultConfig()
	low := Candidate{Storylet: compiled(1, 2, 1.0, ids.DomainRomance)}
	high := Candidate{Storylet: compiled(2, 9, 1.0, ids.DomainRomance)}

	lowScore := Score(0, PhaseLowKey, low, nil, pressure.Config{}, pressure.MilestoneConfig{}, LastFiredDomain{}, nil, cfg)
	highScore := Score(0, PhaseLowKey, high, nil, pressure.Config{}, pressure.MilestoneConfig{}, LastFiredDomain{}, nil, cfg)

	require.Greater(t, lowScore, highScore, "LowKey phase must favor heat <= LowKeyHeatCeiling")
}

func TestScore_RisingAndFalloutApplyNoPhaseBonus(t *testing.T) {
	cfg := DefaultConfig()
	hot := Candidate{Storylet: compiled(1, 9, 1.0, ids.DomainRomance)}
	cold := Candidate{Storylet: compiled(2, 1, 1.0, ids.DomainRomance)}

	hotScore := Score(0, PhaseRising, hot, nil, pressure.Config{}, pressure.MilestoneConfig{}, LastFiredDomain{}, nil, cfg)
	coldScore := Score(0, PhaseRising, cold, nil, pressure.Config{}, pressure.MilestoneConfig{}, LastFiredDomain{}, nil, cfg)

	require.Equal(t, hotScore, coldScore)

	hotFallout := Score(0, PhaseFallout, hot, nil, pressure.Config{}, pressure.MilestoneConfig{}, LastFiredDomain{}, nil, cfg)
	coldFallout := Score(0, PhaseFallout, cold, nil, pressure.Config{}, pressure.MilestoneConfig{}, LastFiredDomain{}, nil, cfg)

	require.Equal(t, hotFallout, coldFallout)
}

func TestVarietyFactor_PenalizesRecentRepeat(t *testing.T) {
	cfg := DefaultConfig()
	recent := Candidate{Storylet: compiled(1, 5, 1.0, ids.DomainRomance), Recent: RecentFire{HasFired: true, LastFiredAt: 0}}
	fresh := Candidate{Storylet: compiled(2, 5, 1.0, ids.DomainRomance)}

	recentScore := Score(1, PhaseRising, recent, nil, pressure.Config{}, pressure.MilestoneConfig{}, LastFiredDomain{}, nil, cfg)
	freshScore := Score(1, PhaseRising, fresh, nil, pressure.Config{}, pressure.MilestoneConfig{}, LastFiredDomain{}, nil, cfg)

	require.Less(t, recentScore, freshScore)
}

func TestVarietyFactor_PenalizesSameDomainAndRewardsDifferentDomain(t *testing.T) {
	cfg := DefaultConfig()
	lastDomain := LastFiredDomain{Domain: ids.DomainRomance, HasAny: true}

	same := Candidate{Storylet: compiled(1, 5, 1.0, ids.DomainRomance)}
	different := Candidate{Storylet: compiled(2, 5, 1.0, ids.DomainCareer)}

	sameScore := Score(10, PhaseRising, same, nil, pressure.Config{}, pressure.MilestoneConfig{}, lastDomain, nil, cfg)
	diffScore := Score(10, PhaseRising, different, nil, pressure.Config{}, pressure.MilestoneConfig{}, lastDomain, nil, cfg)

	require.Less(t, sameScore, diffScore)
}

func TestScore_PersonalityMatchAppliesBonus(t *testing.T) {
	cfg := DefaultConfig()
	cand := Candidate{Storylet: compiled(1, 5, 1.0, ids.DomainRomance)}

	noMatch := Score(0, PhaseRising, cand, nil, pressure.Config{}, pressure.MilestoneConfig{}, LastFiredDomain{}, func(*storylet.Compiled) bool { return false }, cfg)
	match := Score(0, PhaseRising, cand, nil, pressure.Config{}, pressure.MilestoneConfig{}, LastFiredDomain{}, func(*storylet.Compiled) bool { return true }, cfg)

	require.InDelta(t, noMatch*cfg.PersonalityMatchBonus, match, 1e-9)
}

func TestScoreAll_DropsBelowMinViableWeightAndKeepsOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinViableWeight = 0.5
	candidates := []Candidate{
		{Storylet: compiled(1, 5, 0.1, ids.DomainRomance)},
		{Storylet: compiled(2, 5, 5.0, ids.DomainRomance)},
		{Storylet: compiled(3, 5, 3.0, ids.DomainRomance)},
	}

	scored := ScoreAll(0, PhaseRising, candidates, nil, pressure.Config{}, pressure.MilestoneConfig{}, LastFiredDomain{}, nil, cfg)

	require.Len(t, scored, 2)
	require.Equal(t, ids.StoryletKey(2), scored[0].Key)
	require.Equal(t, ids.StoryletKey(3), scored[1].Key)
}

func TestSelect_EmptyReturnsFalse(t *testing.T) {
	rng := drng.New(1)
	_, ok := Select(rng, nil)
	require.False(t, ok)
}

func TestSelect_ZeroTotalPicksFirstCandidate(t *testing.T) {
	rng := drng.New(1)
	scored := []ScoredCandidate{{Key: 7, Score: 0}, {Key: 8, Score: 0}}
	key, ok := Select(rng, scored)
	require.True(t, ok)
	require.Equal(t, ids.StoryletKey(7), key)
}

func TestSelect_IsDeterministicForAFixedSeed(t *testing.T) {
	scored := []ScoredCandidate{{Key: 1, Score: 2.0}, {Key: 2, Score: 5.0}, {Key: 3, Score: 1.0}}

	rngA := drng.WithDomain(42, 10, "select")
	keyA, okA := Select(rngA, scored)

	rngB := drng.WithDomain(42, 10, "select")
	keyB, okB := Select(rngB, scored)

	require.True(t, okA)
	require.True(t, okB)
	require.Equal(t, keyA, keyB)
}

func TestSelect_NeverReturnsAKeyOutsideScoredSet(t *testing.T) {
	scored := []ScoredCandidate{{Key: 1, Score: 2.0}, {Key: 2, Score: 5.0}, {Key: 3, Score: 1.0}}
	valid := map[ids.StoryletKey]bool{1: true, 2: true, 3: true}

	for tick := uint64(0); tick < 50; tick++ {
		rng := drng.WithDomain(1, tick, "select")
		key, ok := Select(rng, scored)
		require.True(t, ok)
		require.True(t, valid[key])
	}
}
