package ids

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSimTick_DaysElapsed(t *testing.T) {
	cases := []struct {
		tick SimTick
		want uint64
	}{
		{0, 0},
		{23, 0},
		{24, 1},
		{47, 1},
		{48, 2},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, tc.tick.DaysElapsed())
	}
}

func TestStoryletKey_String(t *testing.T) {
	require.Equal(t, "key#5", StoryletKey(5).String())
}

func TestLifeStage_StringRoundTripsThroughYAML(t *testing.T) {
	stages := []LifeStage{
		LifeStagePreSim, LifeStageChild, LifeStageTeen, LifeStageYoungAdult,
		LifeStageAdult, LifeStageElder, LifeStageDigital,
	}
	for _, stage := range stages {
		t.Run(stage.String(), func(t *testing.T) {
			data, err := yaml.Marshal(stage)
			require.NoError(t, err)

			var decoded LifeStage
			require.NoError(t, yaml.Unmarshal(data, &decoded))
			require.Equal(t, stage, decoded)
		})
	}
}

func TestLifeStage_UnmarshalYAML_RejectsUnknownName(t *testing.T) {
	var s LifeStage
	err := yaml.Unmarshal([]byte("Ghost"), &s)
	require.Error(t, err)
}

func TestLifeStage_String_UnknownOrdinalReportsUnknown(t *testing.T) {
	require.Equal(t, "Unknown", LifeStage(200).String())
}

func TestStoryDomain_StringRoundTripsThroughYAML(t *testing.T) {
	domains := []StoryDomain{
		DomainRomance, DomainCareer, DomainFamily, DomainConflict,
		DomainTrauma, DomainSliceOfLife, DomainAdventure, DomainFriendship,
	}
	for _, domain := range domains {
		t.Run(domain.String(), func(t *testing.T) {
			data, err := yaml.Marshal(domain)
			require.NoError(t, err)

			var decoded StoryDomain
			require.NoError(t, yaml.Unmarshal(data, &decoded))
			require.Equal(t, domain, decoded)
		})
	}
}

func TestStoryDomain_UnmarshalYAML_RejectsUnknownName(t *testing.T) {
	var d StoryDomain
	err := yaml.Unmarshal([]byte("Nonexistent"), &d)
	require.Error(t, err)
}

func TestEventSource_String(t *testing.T) {
	cases := map[EventSource]string{
		SourceFollowUp:       "FollowUp",
		SourceMilestone:      "Milestone",
		SourcePressureRelief: "PressureRelief",
		SourceScripted:       "Scripted",
		EventSource(200):     "Unknown",
	}
	for source, want := range cases {
		require.Equal(t, want, source.String())
	}
}

func TestLifeStage_MarshalYAML_EmbedsAsAuthoredName(t *testing.T) {
	type wrapper struct {
		Stage LifeStage `yaml:"stage"`
	}
	data, err := yaml.Marshal(wrapper{Stage: LifeStageAdult})
	require.NoError(t, err)
	require.Contains(t, string(data), "stage: Adult")
}
