// Package storylet defines the storylet content model: the authored
// definition shape the compiler consumes, the compiled runtime
// representation the Director queries, and the compiled library with its
// precomputed indexes.
package storylet

import (
	"github.com/talgya/syn-director/internal/ids"
	"github.com/talgya/syn-director/internal/relationship"
	"github.com/talgya/syn-director/internal/stats"
)

// StatThreshold gates eligibility on one player stat falling within an
// inclusive range. A nil bound means "no constraint on that side".
type StatThreshold struct {
	Stat stats.StatKind `cbor:"stat" yaml:"stat" json:"stat"`
	Min  *float64       `cbor:"min,omitempty" yaml:"min,omitempty" json:"min,omitempty"`
	Max  *float64       `cbor:"max,omitempty" yaml:"max,omitempty" json:"max,omitempty"`
}

// TraitThreshold mirrors StatThreshold for trait gating. Currently
// evaluated as a pass-through (§4.4 step 2) pending a trait model, but
// kept as a distinct closed predicate so content authored against it
// round-trips and is ready once traits are wired up.
type TraitThreshold struct {
	Trait string   `cbor:"trait" yaml:"trait" json:"trait"`
	Min   *float64 `cbor:"min,omitempty" yaml:"min,omitempty" json:"min,omitempty"`
	Max   *float64 `cbor:"max,omitempty" yaml:"max,omitempty" json:"max,omitempty"`
}

// RelationshipPrereq gates eligibility on the relationship between an
// actor (defaulting to the player when Actor is nil) and a target.
type RelationshipPrereq struct {
	Actor    *ids.NpcId         `cbor:"actor,omitempty" yaml:"actor,omitempty" json:"actor,omitempty"`
	Target   ids.NpcId          `cbor:"target" yaml:"target" json:"target"`
	Axis     relationship.Axis  `cbor:"axis" yaml:"axis" json:"axis"`
	MinValue *float64           `cbor:"min_value,omitempty" yaml:"min_value,omitempty" json:"min_value,omitempty"`
	MaxValue *float64           `cbor:"max_value,omitempty" yaml:"max_value,omitempty" json:"max_value,omitempty"`
	// MinBand/MaxBand compare against the axis's own band ordinal; the
	// caller is responsible for using the right band enum for Axis.
	MinBand *int `cbor:"min_band,omitempty" yaml:"min_band,omitempty" json:"min_band,omitempty"`
	MaxBand *int `cbor:"max_band,omitempty" yaml:"max_band,omitempty" json:"max_band,omitempty"`
}

// MemoryPrereq gates eligibility on the player's memory journal.
type MemoryPrereq struct {
	MustHaveTags    []ids.Tag `cbor:"must_have_tags,omitempty" yaml:"must_have_tags,omitempty" json:"must_have_tags,omitempty"`
	MustNotHaveTags []ids.Tag `cbor:"must_not_have_tags,omitempty" yaml:"must_not_have_tags,omitempty" json:"must_not_have_tags,omitempty"`
	MaxAgeTicks     *uint64   `cbor:"max_age_ticks,omitempty" yaml:"max_age_ticks,omitempty" json:"max_age_ticks,omitempty"`
}

// WorldStatePrereq gates eligibility on district/world-flag readings.
type WorldStatePrereq struct {
	MinCrimeLevel        *float64 `cbor:"min_crime_level,omitempty" yaml:"min_crime_level,omitempty" json:"min_crime_level,omitempty"`
	RecessionActive      *bool    `cbor:"recession_active,omitempty" yaml:"recession_active,omitempty" json:"recession_active,omitempty"`
	RequiredBlackSwanID  *string  `cbor:"required_black_swan_id,omitempty" yaml:"required_black_swan_id,omitempty" json:"required_black_swan_id,omitempty"`
}

// GlobalFlagsPrereq gates eligibility on process-wide boolean flags.
type GlobalFlagsPrereq struct {
	MustBeSet   []string `cbor:"must_be_set,omitempty" yaml:"must_be_set,omitempty" json:"must_be_set,omitempty"`
	MustBeUnset []string `cbor:"must_be_unset,omitempty" yaml:"must_be_unset,omitempty" json:"must_be_unset,omitempty"`
}

// Prerequisites is the closed set of predicates a storylet may gate on.
// A nil sub-block means "no constraint" for that category.
type Prerequisites struct {
	StatThresholds       []StatThreshold       `cbor:"stat_thresholds,omitempty" yaml:"stat_thresholds,omitempty" json:"stat_thresholds,omitempty"`
	TraitThresholds      []TraitThreshold      `cbor:"trait_thresholds,omitempty" yaml:"trait_thresholds,omitempty" json:"trait_thresholds,omitempty"`
	RelationshipPrereqs  []RelationshipPrereq  `cbor:"relationship_prereqs,omitempty" yaml:"relationship_prereqs,omitempty" json:"relationship_prereqs,omitempty"`
	MemoryPrereq         *MemoryPrereq         `cbor:"memory_prereqs,omitempty" yaml:"memory_prereqs,omitempty" json:"memory_prereqs,omitempty"`
	WorldState           *WorldStatePrereq     `cbor:"world_state,omitempty" yaml:"world_state,omitempty" json:"world_state,omitempty"`
	GlobalFlags          *GlobalFlagsPrereq    `cbor:"global_flags,omitempty" yaml:"global_flags,omitempty" json:"global_flags,omitempty"`
	AllowedLifeStages    []ids.LifeStage       `cbor:"allowed_life_stages,omitempty" yaml:"allowed_life_stages,omitempty" json:"allowed_life_stages,omitempty"`
}

// Cooldowns configures the four cooldown scopes a storylet participates
// in. Nil means that scope is not enforced for this storylet.
type Cooldowns struct {
	GlobalTicks          uint64  `cbor:"global_ticks" yaml:"global_ticks" json:"global_ticks"`
	PerActorTicks        *uint64 `cbor:"per_actor_ticks,omitempty" yaml:"per_actor_ticks,omitempty" json:"per_actor_ticks,omitempty"`
	PerDistrictTicks     *uint64 `cbor:"per_district_ticks,omitempty" yaml:"per_district_ticks,omitempty" json:"per_district_ticks,omitempty"`
	PerRelationshipTicks *uint64 `cbor:"per_relationship_ticks,omitempty" yaml:"per_relationship_ticks,omitempty" json:"per_relationship_ticks,omitempty"`
}

// StatDelta is one stat-mutating outcome line item.
type StatDelta struct {
	Stat  stats.StatKind `cbor:"stat" yaml:"stat" json:"stat"`
	Delta float64        `cbor:"delta" yaml:"delta" json:"delta"`
}

// FlagUpdate toggles one named world flag.
type FlagUpdate struct {
	Name string `cbor:"name" yaml:"name" json:"name"`
	Set  bool   `cbor:"set" yaml:"set" json:"set"`
}

// MemoryTemplate describes the journal entry an outcome writes.
type MemoryTemplate struct {
	Tags []ids.Tag `cbor:"tags,omitempty" yaml:"tags,omitempty" json:"tags,omitempty"`
	Text string    `cbor:"text" yaml:"text" json:"text"`
}

// FollowUpSpec is an authored follow-up reference, by string ID, resolved
// to a StoryletKey at compile time.
type FollowUpSpec struct {
	StoryletID        ids.StoryletId `cbor:"storylet_id" yaml:"storylet_id" json:"storylet_id"`
	DelayTicks        uint32         `cbor:"delay_ticks" yaml:"delay_ticks" json:"delay_ticks"`
	ConditionalOnFlag *string        `cbor:"conditional_on_flag,omitempty" yaml:"conditional_on_flag,omitempty" json:"conditional_on_flag,omitempty"`
}

// ResolvedFollowUp is a FollowUpSpec after compile-time key resolution.
// TargetKey is nil iff the referenced ID did not exist at compile time.
type ResolvedFollowUp struct {
	TargetKey         *ids.StoryletKey
	DelayTicks        uint32
	ConditionalOnFlag *string
}

// Outcome is everything a fired storylet does to the world.
type Outcome struct {
	StatDeltas         []StatDelta           `cbor:"stat_deltas,omitempty" yaml:"stat_deltas,omitempty" json:"stat_deltas,omitempty"`
	RelationshipDeltas []relationship.Delta  `cbor:"relationship_deltas,omitempty" yaml:"relationship_deltas,omitempty" json:"relationship_deltas,omitempty"`
	KarmaDelta         *float64              `cbor:"karma_delta,omitempty" yaml:"karma_delta,omitempty" json:"karma_delta,omitempty"`
	MemoryTemplate     *MemoryTemplate       `cbor:"memory_template,omitempty" yaml:"memory_template,omitempty" json:"memory_template,omitempty"`
	WorldFlagUpdates   []FlagUpdate          `cbor:"world_flag_updates,omitempty" yaml:"world_flag_updates,omitempty" json:"world_flag_updates,omitempty"`
	HeatSpike          float64               `cbor:"heat_spike" yaml:"heat_spike" json:"heat_spike"`
	FollowUps          []FollowUpSpec        `cbor:"follow_ups,omitempty" yaml:"follow_ups,omitempty" json:"follow_ups,omitempty"`
}

// RoleSlot names one actor role a storylet expects to be cast.
type RoleSlot struct {
	Name     string `cbor:"name" yaml:"name" json:"name"`
	Optional bool   `cbor:"optional" yaml:"optional" json:"optional"`
}

// Definition is the authored, pre-compile shape of a storylet: the input
// to the compiler. SourcePath and ID together determine compile-time key
// assignment order.
type Definition struct {
	SourcePath  string         `yaml:"-"`
	ID          ids.StoryletId `yaml:"id"`
	Name        string         `yaml:"name"`
	Description *string        `yaml:"description,omitempty"`
	Tags        []ids.Tag      `yaml:"tags,omitempty"`
	Domain      ids.StoryDomain `yaml:"domain"`
	LifeStage   ids.LifeStage  `yaml:"life_stage"`
	Heat        uint8          `yaml:"heat"`
	Weight      float64        `yaml:"weight"`
	Roles       []RoleSlot     `yaml:"roles,omitempty"`
	Prereqs     Prerequisites  `yaml:"prereqs,omitempty"`
	Cooldowns   Cooldowns      `yaml:"cooldowns"`
	Outcome     Outcome        `yaml:"outcome"`
}

// Compiled is a storylet after compilation: follow-up IDs resolved to
// keys, ready for the Director to query.
type Compiled struct {
	ID                ids.StoryletId
	Key               ids.StoryletKey
	Name              string
	Description       *string
	Tags              []ids.Tag
	Domain            ids.StoryDomain
	LifeStage         ids.LifeStage
	Heat              uint8
	Weight            float64
	Roles             []RoleSlot
	Prerequisites     Prerequisites
	Cooldowns         Cooldowns
	Outcomes          Outcome
	FollowUpsResolved []ResolvedFollowUp
}
