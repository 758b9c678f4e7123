package relationship

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/syn-director/internal/ids"
)

func TestVector_SetClampsToAxisRange(t *testing.T) {
	var v Vector
	v.Set(Affection, 999)
	require.Equal(t, 10.0, v.Get(Affection))

	v.Set(Trust, -999)
	require.Equal(t, -10.0, v.Get(Trust))
}

func TestVector_ApplyDeltaAccumulatesAndClamps(t *testing.T) {
	var v Vector
	v.Set(Resentment, 8)
	v.ApplyDelta(Resentment, 5)
	require.Equal(t, 10.0, v.Get(Resentment))
}

func TestAffectionBand_Cutoffs(t *testing.T) {
	cases := []struct {
		value float64
		want  AffectionBand
	}{
		{-10, Stranger},
		{-5, Stranger},
		{-4.9, Acquaintance},
		{0.9, Acquaintance},
		{1, Friendly},
		{4.9, Friendly},
		{5, Close},
		{7.9, Close},
		{8, Devoted},
		{10, Devoted},
	}
	for _, tc := range cases {
		v := Vector{Affection: tc.value}
		require.Equal(t, tc.want, v.AffectionBand(), "affection=%v", tc.value)
	}
}

func TestTrustBand_Cutoffs(t *testing.T) {
	cases := []struct {
		value float64
		want  TrustBand
	}{
		{-10, Unknown},
		{-5, Unknown},
		{-4.9, Wary},
		{-1.1, Wary},
		{-1, Neutral},
		{1.9, Neutral},
		{2, Trusted},
		{6.9, Trusted},
		{7, DeepTrust},
	}
	for _, tc := range cases {
		v := Vector{Trust: tc.value}
		require.Equal(t, tc.want, v.TrustBand(), "trust=%v", tc.value)
	}
}

func TestAttractionBand_Cutoffs(t *testing.T) {
	cases := []struct {
		value float64
		want  AttractionBand
	}{
		{0, NoAttraction},
		{0.1, Curious},
		{2.9, Curious},
		{3, Interested},
		{5.9, Interested},
		{6, Strong},
		{7.9, Strong},
		{8, Intense},
	}
	for _, tc := range cases {
		v := Vector{Attraction: tc.value}
		require.Equal(t, tc.want, v.AttractionBand(), "attraction=%v", tc.value)
	}
}

func TestResentmentBand_Cutoffs(t *testing.T) {
	cases := []struct {
		value float64
		want  ResentmentBand
	}{
		{0, NoResentment},
		{0.1, Irritated},
		{2.9, Irritated},
		{3, Resentful},
		{5.9, Resentful},
		{6, Hostile},
		{7.9, Hostile},
		{8, Vindictive},
	}
	for _, tc := range cases {
		v := Vector{Resentment: tc.value}
		require.Equal(t, tc.want, v.ResentmentBand(), "resentment=%v", tc.value)
	}
}

func TestApplyAll_CreatesVectorsOnDemandAndBatchesDeltas(t *testing.T) {
	store := make(map[OrderedPair]*Vector)
	get := func(actor, target ids.NpcId) *Vector {
		pair := OrderedPair{From: actor, To: target}
		v, ok := store[pair]
		if !ok {
			v = &Vector{}
			store[pair] = v
		}
		return v
	}

	deltas := []Delta{
		{Actor: 1, Target: 2, Axis: Affection, Delta: 3, Source: "storylet-x"},
		{Actor: 1, Target: 2, Axis: Affection, Delta: 2, Source: "storylet-x"},
		{Actor: 2, Target: 1, Axis: Trust, Delta: -1, Source: "storylet-x"},
	}
	ApplyAll(get, deltas)

	require.Equal(t, 5.0, store[OrderedPair{From: 1, To: 2}].Affection)
	require.Equal(t, -1.0, store[OrderedPair{From: 2, To: 1}].Trust)
}
