// Package ids defines the stable identifier and enum types shared across
// the narrative director: ticks, seeds, NPC/storylet identity, tags, life
// stages and story domains.
package ids

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// SimTick is a monotonic simulation tick. One tick is one game hour;
// 24 ticks make one game day.
type SimTick uint64

// DaysElapsed returns the number of full days represented by the tick.
func (t SimTick) DaysElapsed() uint64 {
	return uint64(t) / 24
}

// WorldSeed seeds every deterministic stream derived for a world.
type WorldSeed uint64

// NpcId stably identifies an NPC (or the player) for the life of a world.
type NpcId uint64

// PlayerID is the fixed identifier reserved for the player character.
const PlayerID NpcId = 0

// StoryletId is the author-assigned string identifier of a storylet.
type StoryletId string

// StoryletKey is a dense, compile-time-assigned index into a compiled
// StoryletLibrary. Stable for the life of that library.
type StoryletKey uint32

func (k StoryletKey) String() string {
	return fmt.Sprintf("key#%d", uint32(k))
}

// Tag is a free-form semantic label attached to storylets and memories.
type Tag string

// LifeStage is a coarse life-phase gate for content eligibility.
type LifeStage uint8

const (
	LifeStagePreSim LifeStage = iota
	LifeStageChild
	LifeStageTeen
	LifeStageYoungAdult
	LifeStageAdult
	LifeStageElder
	LifeStageDigital
)

func (s LifeStage) String() string {
	switch s {
	case LifeStagePreSim:
		return "PreSim"
	case LifeStageChild:
		return "Child"
	case LifeStageTeen:
		return "Teen"
	case LifeStageYoungAdult:
		return "YoungAdult"
	case LifeStageAdult:
		return "Adult"
	case LifeStageElder:
		return "Elder"
	case LifeStageDigital:
		return "Digital"
	default:
		return "Unknown"
	}
}

func lifeStageFromString(s string) (LifeStage, error) {
	switch s {
	case "PreSim":
		return LifeStagePreSim, nil
	case "Child":
		return LifeStageChild, nil
	case "Teen":
		return LifeStageTeen, nil
	case "YoungAdult":
		return LifeStageYoungAdult, nil
	case "Adult":
		return LifeStageAdult, nil
	case "Elder":
		return LifeStageElder, nil
	case "Digital":
		return LifeStageDigital, nil
	default:
		return 0, fmt.Errorf("unknown life stage %q", s)
	}
}

// MarshalYAML renders a LifeStage the way authored content names it.
func (s LifeStage) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// UnmarshalYAML parses a LifeStage from its authored name, so storylet
// content can write life_stage: Adult instead of a raw ordinal.
func (s *LifeStage) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	v, err := lifeStageFromString(name)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// StoryDomain groups storylets by narrative subject matter.
type StoryDomain uint8

const (
	DomainRomance StoryDomain = iota
	DomainCareer
	DomainFamily
	DomainConflict
	DomainTrauma
	DomainSliceOfLife
	DomainAdventure
	DomainFriendship
)

func (d StoryDomain) String() string {
	switch d {
	case DomainRomance:
		return "Romance"
	case DomainCareer:
		return "Career"
	case DomainFamily:
		return "Family"
	case DomainConflict:
		return "Conflict"
	case DomainTrauma:
		return "Trauma"
	case DomainSliceOfLife:
		return "SliceOfLife"
	case DomainAdventure:
		return "Adventure"
	case DomainFriendship:
		return "Friendship"
	default:
		return "Unknown"
	}
}

func storyDomainFromString(s string) (StoryDomain, error) {
	switch s {
	case "Romance":
		return DomainRomance, nil
	case "Career":
		return DomainCareer, nil
	case "Family":
		return DomainFamily, nil
	case "Conflict":
		return DomainConflict, nil
	case "Trauma":
		return DomainTrauma, nil
	case "SliceOfLife":
		return DomainSliceOfLife, nil
	case "Adventure":
		return DomainAdventure, nil
	case "Friendship":
		return DomainFriendship, nil
	default:
		return 0, fmt.Errorf("unknown story domain %q", s)
	}
}

// MarshalYAML renders a StoryDomain the way authored content names it.
func (d StoryDomain) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// UnmarshalYAML parses a StoryDomain from its authored name, so storylet
// content can write domain: Romance instead of a raw ordinal.
func (d *StoryDomain) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	v, err := storyDomainFromString(name)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// EventSource identifies which subsystem scheduled a QueuedEvent.
type EventSource uint8

const (
	SourceFollowUp EventSource = iota
	SourceMilestone
	SourcePressureRelief
	SourceScripted
)

func (s EventSource) String() string {
	switch s {
	case SourceFollowUp:
		return "FollowUp"
	case SourceMilestone:
		return "Milestone"
	case SourcePressureRelief:
		return "PressureRelief"
	case SourceScripted:
		return "Scripted"
	default:
		return "Unknown"
	}
}
