package storylet

import "github.com/talgya/syn-director/internal/ids"

// Source is the read-only query surface the Director uses against compiled
// content. It is implemented by both the in-memory Library and the
// memory-mapped view in package mmaplibrary — the only polymorphism this
// engine needs over storage backends.
type Source interface {
	GetByID(id ids.StoryletId) (*Compiled, bool)
	GetByKey(key ids.StoryletKey) (*Compiled, bool)
	CandidatesForTag(tag ids.Tag) []ids.StoryletKey
	CandidatesForLifeStage(stage ids.LifeStage) []ids.StoryletKey
	CandidatesForDomain(domain ids.StoryDomain) []ids.StoryletKey
	IterAll() []ids.StoryletKey
	TotalCount() uint32
}

// Library is the complete compiled storylet library with all precomputed
// indexes, held in memory.
type Library struct {
	Storylets      []Compiled
	IDToKey        map[ids.StoryletId]ids.StoryletKey
	TagIndex       map[ids.Tag][]ids.StoryletKey
	LifeStageIndex map[ids.LifeStage][]ids.StoryletKey
	DomainIndex    map[ids.StoryDomain][]ids.StoryletKey
	TotalCountVal  uint32
}

// New returns an empty library.
func New() *Library {
	return &Library{
		IDToKey:        make(map[ids.StoryletId]ids.StoryletKey),
		TagIndex:       make(map[ids.Tag][]ids.StoryletKey),
		LifeStageIndex: make(map[ids.LifeStage][]ids.StoryletKey),
		DomainIndex:    make(map[ids.StoryDomain][]ids.StoryletKey),
	}
}

func (l *Library) GetByID(id ids.StoryletId) (*Compiled, bool) {
	key, ok := l.IDToKey[id]
	if !ok {
		return nil, false
	}
	return l.GetByKey(key)
}

func (l *Library) GetByKey(key ids.StoryletKey) (*Compiled, bool) {
	if int(key) < 0 || int(key) >= len(l.Storylets) {
		return nil, false
	}
	return &l.Storylets[key], true
}

func (l *Library) CandidatesForTag(tag ids.Tag) []ids.StoryletKey {
	return l.TagIndex[tag]
}

func (l *Library) CandidatesForLifeStage(stage ids.LifeStage) []ids.StoryletKey {
	return l.LifeStageIndex[stage]
}

func (l *Library) CandidatesForDomain(domain ids.StoryDomain) []ids.StoryletKey {
	return l.DomainIndex[domain]
}

// IterAll returns every key in ascending order, the only order the rest
// of the Director is allowed to rely on.
func (l *Library) IterAll() []ids.StoryletKey {
	out := make([]ids.StoryletKey, len(l.Storylets))
	for i := range l.Storylets {
		out[i] = ids.StoryletKey(i)
	}
	return out
}

func (l *Library) TotalCount() uint32 { return l.TotalCountVal }

var _ Source = (*Library)(nil)
