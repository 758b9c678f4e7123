// Package cooldown implements the Director's four-scope cooldown ledger
// (part of §3.3 Director state): global, per-actor, per-district and
// per-relationship "until_tick" maps, the last of which checks both
// orderings of the (actor, target) pair so a cooldown set from either
// direction blocks both.
package cooldown

import "github.com/talgya/syn-director/internal/ids"

type actorKey struct {
	Key ids.StoryletKey
	Who ids.NpcId
}

type districtKey struct {
	Key      ids.StoryletKey
	District string
}

type relationshipKey struct {
	Key    ids.StoryletKey
	Actor  ids.NpcId
	Target ids.NpcId
}

// State holds the four cooldown scopes, each an "until_tick" map.
type State struct {
	Global       map[ids.StoryletKey]ids.SimTick
	Actor        map[actorKey]ids.SimTick
	District     map[districtKey]ids.SimTick
	Relationship map[relationshipKey]ids.SimTick
}

// New constructs an empty cooldown ledger.
func New() *State {
	return &State{
		Global:       make(map[ids.StoryletKey]ids.SimTick),
		Actor:        make(map[actorKey]ids.SimTick),
		District:     make(map[districtKey]ids.SimTick),
		Relationship: make(map[relationshipKey]ids.SimTick),
	}
}

// IsGloballyReady reports whether key has cleared its global cooldown.
func (s *State) IsGloballyReady(key ids.StoryletKey, now ids.SimTick) bool {
	until, ok := s.Global[key]
	return !ok || now >= until
}

// IsActorReady reports whether key has cleared its cooldown for actor.
func (s *State) IsActorReady(key ids.StoryletKey, actor ids.NpcId, now ids.SimTick) bool {
	until, ok := s.Actor[actorKey{key, actor}]
	return !ok || now >= until
}

// IsDistrictReady reports whether key has cleared its cooldown for district.
func (s *State) IsDistrictReady(key ids.StoryletKey, district string, now ids.SimTick) bool {
	until, ok := s.District[districtKey{key, district}]
	return !ok || now >= until
}

// IsRelationshipReady checks both (actor, target) orderings so a
// cooldown recorded from either direction blocks both.
func (s *State) IsRelationshipReady(key ids.StoryletKey, actor, target ids.NpcId, now ids.SimTick) bool {
	forward := true
	if until, ok := s.Relationship[relationshipKey{key, actor, target}]; ok {
		forward = now >= until
	}
	reverse := true
	if until, ok := s.Relationship[relationshipKey{key, target, actor}]; ok {
		reverse = now >= until
	}
	return forward && reverse
}

// MarkGlobal sets a global cooldown expiring cooldownTicks after now.
func (s *State) MarkGlobal(key ids.StoryletKey, cooldownTicks uint64, now ids.SimTick) {
	s.Global[key] = now + ids.SimTick(cooldownTicks)
}

// MarkActor sets an actor-scoped cooldown.
func (s *State) MarkActor(key ids.StoryletKey, actor ids.NpcId, cooldownTicks uint64, now ids.SimTick) {
	s.Actor[actorKey{key, actor}] = now + ids.SimTick(cooldownTicks)
}

// MarkDistrict sets a district-scoped cooldown.
func (s *State) MarkDistrict(key ids.StoryletKey, district string, cooldownTicks uint64, now ids.SimTick) {
	s.District[districtKey{key, district}] = now + ids.SimTick(cooldownTicks)
}

// MarkRelationship sets a relationship-scoped cooldown, recorded only in
// the (actor, target) direction it was marked from; IsRelationshipReady
// checks both directions regardless.
func (s *State) MarkRelationship(key ids.StoryletKey, actor, target ids.NpcId, cooldownTicks uint64, now ids.SimTick) {
	s.Relationship[relationshipKey{key, actor, target}] = now + ids.SimTick(cooldownTicks)
}

// GlobalEntry, ActorEntry, DistrictEntry and RelationshipEntry are the
// flattened, exported forms of each scope's map, for the persistence
// layer to serialize (the map key types above are unexported).
type GlobalEntry struct {
	Key   ids.StoryletKey
	Until ids.SimTick
}

type ActorEntry struct {
	Key   ids.StoryletKey
	Who   ids.NpcId
	Until ids.SimTick
}

type DistrictEntry struct {
	Key      ids.StoryletKey
	District string
	Until    ids.SimTick
}

type RelationshipEntry struct {
	Key    ids.StoryletKey
	Actor  ids.NpcId
	Target ids.NpcId
	Until  ids.SimTick
}

// Export flattens all four cooldown scopes into exported entry slices.
func (s *State) Export() ([]GlobalEntry, []ActorEntry, []DistrictEntry, []RelationshipEntry) {
	global := make([]GlobalEntry, 0, len(s.Global))
	for k, until := range s.Global {
		global = append(global, GlobalEntry{Key: k, Until: until})
	}
	actor := make([]ActorEntry, 0, len(s.Actor))
	for k, until := range s.Actor {
		actor = append(actor, ActorEntry{Key: k.Key, Who: k.Who, Until: until})
	}
	district := make([]DistrictEntry, 0, len(s.District))
	for k, until := range s.District {
		district = append(district, DistrictEntry{Key: k.Key, District: k.District, Until: until})
	}
	relationship := make([]RelationshipEntry, 0, len(s.Relationship))
	for k, until := range s.Relationship {
		relationship = append(relationship, RelationshipEntry{Key: k.Key, Actor: k.Actor, Target: k.Target, Until: until})
	}
	return global, actor, district, relationship
}

// Restore rebuilds a State from previously Export-ed entries.
func Restore(global []GlobalEntry, actor []ActorEntry, district []DistrictEntry, relationship []RelationshipEntry) *State {
	s := New()
	for _, e := range global {
		s.Global[e.Key] = e.Until
	}
	for _, e := range actor {
		s.Actor[actorKey{e.Key, e.Who}] = e.Until
	}
	for _, e := range district {
		s.District[districtKey{e.Key, e.District}] = e.Until
	}
	for _, e := range relationship {
		s.Relationship[relationshipKey{e.Key, e.Actor, e.Target}] = e.Until
	}
	return s
}

// CleanupExpired drops every entry whose until_tick has already passed,
// bounding ledger memory growth.
func (s *State) CleanupExpired(now ids.SimTick) {
	for k, until := range s.Global {
		if until <= now {
			delete(s.Global, k)
		}
	}
	for k, until := range s.Actor {
		if until <= now {
			delete(s.Actor, k)
		}
	}
	for k, until := range s.District {
		if until <= now {
			delete(s.District, k)
		}
	}
	for k, until := range s.Relationship {
		if until <= now {
			delete(s.Relationship, k)
		}
	}
}
