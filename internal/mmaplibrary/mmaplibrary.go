// Package mmaplibrary implements the optional memory-mapped view over a
// compiled storylet library file. It satisfies storylet.Source exactly
// like the in-memory storylet.Library; the only difference is how the
// backing bytes are held. golang.org/x/exp/mmap is already present as an
// indirect dependency of the life-sim this engine grew out of, which
// makes it the natural choice over hand-rolling a syscall wrapper.
package mmaplibrary

import (
	"fmt"

	"golang.org/x/exp/mmap"

	"github.com/talgya/syn-director/internal/ids"
	"github.com/talgya/syn-director/internal/storylet"
	"github.com/talgya/syn-director/internal/storyletio"
)

// View is a memory-mapped StoryletLibrary. The index structures are
// decoded eagerly at Open time; View retains the mapping for its own
// lifetime so the file must not be modified or removed while open.
type View struct {
	reader *mmap.ReaderAt
	lib    *storylet.Library
}

// Open mmaps path, validates the SYNL header, and eagerly decodes the
// index structures. The underlying mapping is kept open until Close.
func Open(path string) (*View, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mmap open storylet library: %w", err)
	}

	buf := make([]byte, r.Len())
	if _, err := r.ReadAt(buf, 0); err != nil {
		r.Close()
		return nil, fmt.Errorf("mmap read storylet library: %w", err)
	}

	lib, err := storyletio.Decode(buf)
	if err != nil {
		r.Close()
		return nil, err
	}

	return &View{reader: r, lib: lib}, nil
}

// Close releases the underlying mapping.
func (v *View) Close() error { return v.reader.Close() }

func (v *View) GetByID(id ids.StoryletId) (*storylet.Compiled, bool) { return v.lib.GetByID(id) }
func (v *View) GetByKey(key ids.StoryletKey) (*storylet.Compiled, bool) {
	return v.lib.GetByKey(key)
}
func (v *View) CandidatesForTag(tag ids.Tag) []ids.StoryletKey { return v.lib.CandidatesForTag(tag) }
func (v *View) CandidatesForLifeStage(stage ids.LifeStage) []ids.StoryletKey {
	return v.lib.CandidatesForLifeStage(stage)
}
func (v *View) CandidatesForDomain(domain ids.StoryDomain) []ids.StoryletKey {
	return v.lib.CandidatesForDomain(domain)
}
func (v *View) IterAll() []ids.StoryletKey { return v.lib.IterAll() }
func (v *View) TotalCount() uint32         { return v.lib.TotalCount() }

var _ storylet.Source = (*View)(nil)
