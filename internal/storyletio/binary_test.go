package storyletio

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/syn-director/internal/ids"
	"github.com/talgya/syn-director/internal/storylet"
)

func sampleLibrary(t *testing.T) *storylet.Library {
	t.Helper()
	desc := "a storylet about reconciliation"
	defs := []storylet.Definition{
		{
			SourcePath: "a.yaml",
			ID:         "reconcile",
			Name:       "Reconciliation",
			Description: &desc,
			Tags:        []ids.Tag{"heartbreak", "reunion"},
			Domain:      ids.DomainRomance,
			LifeStage:   ids.LifeStageAdult,
			Heat:        6,
			Weight:      2.5,
			Cooldowns:   storylet.Cooldowns{GlobalTicks: 24},
			Outcome: storylet.Outcome{
				HeatSpike: 3.0,
				FollowUps: []storylet.FollowUpSpec{
					{StoryletID: "aftermath", DelayTicks: 12},
				},
			},
		},
		{
			SourcePath: "b.yaml",
			ID:         "aftermath",
			Name:       "Aftermath",
			Domain:     ids.DomainRomance,
			LifeStage:  ids.LifeStageAdult,
			Heat:       2,
			Weight:     1.0,
		},
	}
	lib, err := storylet.Compile(defs)
	require.NoError(t, err)
	return lib
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	lib := sampleLibrary(t)

	data, err := Encode(lib)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	require.Equal(t, lib.TotalCount(), decoded.TotalCount())
	require.Equal(t, lib.Storylets, decoded.Storylets)
	require.Equal(t, lib.IDToKey, decoded.IDToKey)
	require.Equal(t, lib.TagIndex, decoded.TagIndex)
	require.Equal(t, lib.LifeStageIndex, decoded.LifeStageIndex)
	require.Equal(t, lib.DomainIndex, decoded.DomainIndex)
}

func TestWriteFileReadFile_RoundTrip(t *testing.T) {
	lib := sampleLibrary(t)
	path := filepath.Join(t.TempDir(), "storylets.synl")

	require.NoError(t, WriteFile(path, lib))

	decoded, err := ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, lib.Storylets, decoded.Storylets)
}

func TestDecode_RejectsBadMagic(t *testing.T) {
	data := []byte{'X', 'X', 'X', 'X', 1, 0}
	_, err := Decode(data)
	require.Error(t, err)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
}

func TestDecode_RejectsUnsupportedVersion(t *testing.T) {
	lib := sampleLibrary(t)
	data, err := Encode(lib)
	require.NoError(t, err)

	data[4] = 0xFF // corrupt the low byte of the version field
	_, err = Decode(data)
	require.Error(t, err)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
}

func TestDecode_RejectsTruncatedHeader(t *testing.T) {
	_, err := Decode([]byte{'S', 'Y'})
	require.Error(t, err)
}
