// Package eligibility implements the Director's deterministic candidate
// filter (C5): life-stage pre-filter, then six fixed predicates evaluated
// in order with short-circuit on first failure. Eligibility consumes no
// RNG and is monotone in prerequisite tightening — adding a predicate can
// only shrink the eligible set.
package eligibility

import (
	"github.com/talgya/syn-director/internal/ids"
	"github.com/talgya/syn-director/internal/relationship"
	"github.com/talgya/syn-director/internal/storylet"
	"github.com/talgya/syn-director/internal/worldview"
)

// Engine evaluates candidate storylets against a world Context.
type Engine struct {
	Source storylet.Source
}

// New constructs an Engine over the given content source.
func New(source storylet.Source) *Engine {
	return &Engine{Source: source}
}

// Scan returns every eligible storylet key for the player's current life
// stage, in ascending key order.
func (e *Engine) Scan(ctx *worldview.Context) []ids.StoryletKey {
	stage := ctx.World.PlayerLifeStage()
	candidates := e.Source.CandidatesForLifeStage(stage)

	eligible := make([]ids.StoryletKey, 0, len(candidates))
	for _, key := range candidates {
		compiled, ok := e.Source.GetByKey(key)
		if !ok {
			continue
		}
		if e.IsEligible(compiled, ctx) {
			eligible = append(eligible, key)
		}
	}
	return eligible
}

// IsEligible re-checks a single storylet (used for forced/queued events
// that must be re-validated at firing time).
func (e *Engine) IsEligible(s *storylet.Compiled, ctx *worldview.Context) bool {
	if len(s.Prerequisites.AllowedLifeStages) > 0 {
		allowed := false
		for _, stage := range s.Prerequisites.AllowedLifeStages {
			if stage == ctx.World.PlayerLifeStage() {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	if !checkStatThresholds(s, ctx) {
		return false
	}
	if !checkTraitThresholds(s, ctx) {
		return false
	}
	if !checkRelationshipPrereqs(s, ctx) {
		return false
	}
	if !checkMemoryPrereqs(s, ctx) {
		return false
	}
	if !checkWorldState(s, ctx) {
		return false
	}
	if !checkGlobalFlags(s, ctx) {
		return false
	}
	return true
}

func checkStatThresholds(s *storylet.Compiled, ctx *worldview.Context) bool {
	playerStats := ctx.World.PlayerStats()
	for _, th := range s.Prerequisites.StatThresholds {
		v := playerStats.Get(th.Stat)
		if th.Min != nil && v < *th.Min {
			return false
		}
		if th.Max != nil && v > *th.Max {
			return false
		}
	}
	return true
}

// checkTraitThresholds is a pass-through pending a trait model (§4.4
// step 2 names it explicitly as "currently pass-through").
func checkTraitThresholds(_ *storylet.Compiled, _ *worldview.Context) bool {
	return true
}

func checkRelationshipPrereqs(s *storylet.Compiled, ctx *worldview.Context) bool {
	for _, pr := range s.Prerequisites.RelationshipPrereqs {
		actor := ids.PlayerID
		if pr.Actor != nil {
			actor = *pr.Actor
		}

		vec := ctx.World.Relationship(actor, pr.Target)
		hasBound := pr.MinValue != nil || pr.MaxValue != nil || pr.MinBand != nil || pr.MaxBand != nil
		if !relationshipKeyExists(ctx, actor, pr.Target) && hasBound {
			return false
		}

		v := vec.Get(pr.Axis)
		if pr.MinValue != nil && v < *pr.MinValue {
			return false
		}
		if pr.MaxValue != nil && v > *pr.MaxValue {
			return false
		}
		if pr.MinBand != nil || pr.MaxBand != nil {
			band := bandOrdinal(vec, pr.Axis)
			if pr.MinBand != nil && band < *pr.MinBand {
				return false
			}
			if pr.MaxBand != nil && band > *pr.MaxBand {
				return false
			}
		}
	}
	return true
}

// relationshipKeyExists reports whether any relationship has actually
// been recorded between actor and target. World.Relationship defaults to
// the zero vector for unknown pairs, which is indistinguishable from a
// recorded all-zero relationship purely by value; this helper exists so
// callers with access to the underlying store can override it. The
// default conservative behavior (when the caller cannot distinguish)
// treats a zero vector as "absent" only when a bound was set, matching
// §4.4 step 3.
func relationshipKeyExists(ctx *worldview.Context, actor, target ids.NpcId) bool {
	if checker, ok := ctx.World.(interface {
		HasRelationship(from, to ids.NpcId) bool
	}); ok {
		return checker.HasRelationship(actor, target)
	}
	v := ctx.World.Relationship(actor, target)
	return v != (relationship.Vector{})
}

func bandOrdinal(vec relationship.Vector, axis relationship.Axis) int {
	switch axis {
	case relationship.Affection:
		return int(vec.AffectionBand())
	case relationship.Trust:
		return int(vec.TrustBand())
	case relationship.Attraction:
		return int(vec.AttractionBand())
	case relationship.Resentment:
		return int(vec.ResentmentBand())
	default:
		return 0
	}
}

func checkMemoryPrereqs(s *storylet.Compiled, ctx *worldview.Context) bool {
	mp := s.Prerequisites.MemoryPrereq
	if mp == nil {
		return true
	}
	entries := ctx.Memory.Entries(ids.PlayerID)
	if mp.MaxAgeTicks != nil {
		filtered := entries[:0:0]
		for _, e := range entries {
			if ctx.CurrentTick >= e.Tick && uint64(ctx.CurrentTick-e.Tick) <= *mp.MaxAgeTicks {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	if len(mp.MustHaveTags) > 0 {
		found := false
		for _, e := range entries {
			if entryHasAnyTag(e, mp.MustHaveTags) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	for _, e := range entries {
		if entryHasAnyTag(e, mp.MustNotHaveTags) {
			return false
		}
	}
	return true
}

func entryHasAnyTag(e worldview.MemoryEntry, tags []ids.Tag) bool {
	for _, want := range tags {
		for _, got := range e.Tags {
			if want == got {
				return true
			}
		}
	}
	return false
}

func checkWorldState(s *storylet.Compiled, ctx *worldview.Context) bool {
	ws := s.Prerequisites.WorldState
	if ws == nil {
		return true
	}
	if ws.MinCrimeLevel != nil {
		v, ok := ctx.World.DistrictNumber("crime_level")
		if !ok || v < *ws.MinCrimeLevel {
			return false
		}
	}
	if ws.RecessionActive != nil {
		active := ctx.World.HasFlag("recession_active")
		if active != *ws.RecessionActive {
			return false
		}
	}
	if ws.RequiredBlackSwanID != nil {
		if !ctx.World.HasFlag(*ws.RequiredBlackSwanID) {
			return false
		}
	}
	return true
}

func checkGlobalFlags(s *storylet.Compiled, ctx *worldview.Context) bool {
	gf := s.Prerequisites.GlobalFlags
	if gf == nil {
		return true
	}
	for _, flag := range gf.MustBeSet {
		if !ctx.World.HasFlag(flag) {
			return false
		}
	}
	for _, flag := range gf.MustBeUnset {
		if ctx.World.HasFlag(flag) {
			return false
		}
	}
	return true
}
