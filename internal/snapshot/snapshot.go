// Package snapshot implements the Director's versioned persistence
// format (C11): magic "SYND", a little-endian u32 version, then a cbor
// payload. Restoring a snapshot with the same compiled library and
// config produces a Director that, stepping forward from the restored
// tick, yields identical outputs to one that reached that tick live.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/talgya/syn-director/internal/cooldown"
	"github.com/talgya/syn-director/internal/director"
	"github.com/talgya/syn-director/internal/equeue"
	"github.com/talgya/syn-director/internal/ids"
	"github.com/talgya/syn-director/internal/pressure"
)

var magic = [4]byte{'S', 'Y', 'N', 'D'}

const currentVersion uint32 = 1

// FormatError is returned for a malformed or incompatible snapshot file.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string { return "director snapshot format: " + e.Reason }

// Snapshot is DirectorSnapshot (§4.10): the Director's complete mutable
// state, a format version, and an optional config version the caller can
// use to detect a config that has drifted since the snapshot was taken.
type Snapshot struct {
	State         *director.State
	FormatVersion uint32
	ConfigVersion *uint32
	// RunID correlates this snapshot with the CLI run invocation that
	// produced it, if any.
	RunID *string
}

type queuedEventPayload struct {
	Key           uint32 `cbor:"key"`
	ScheduledTick uint64 `cbor:"scheduled_tick"`
	Priority      int32  `cbor:"priority"`
	Forced        bool   `cbor:"forced"`
	Source        uint8  `cbor:"source"`
}

type pressurePayload struct {
	ID            uint64  `cbor:"id"`
	Kind          string  `cbor:"kind"`
	Label         string  `cbor:"label"`
	CreatedAt     uint64  `cbor:"created_at"`
	Deadline      *uint64 `cbor:"deadline,omitempty"`
	Severity      float64 `cbor:"severity"`
	ResolutionKey *uint32 `cbor:"resolution_key,omitempty"`
	Forced        bool    `cbor:"forced"`
	Resolved      bool    `cbor:"resolved"`
	ResolvedAt    *uint64 `cbor:"resolved_at,omitempty"`
	RelatedNPCs   []uint64 `cbor:"related_npcs,omitempty"`
}

type milestonePayload struct {
	ID            uint64   `cbor:"id"`
	Kind          string   `cbor:"kind"`
	Label         string   `cbor:"label"`
	CreatedAt     uint64   `cbor:"created_at"`
	Progress      float64  `cbor:"progress"`
	AdvancingTags []string `cbor:"advancing_tags,omitempty"`
	Domain        *uint8   `cbor:"domain,omitempty"`
	ClimaxKey     *uint32  `cbor:"climax_key,omitempty"`
	ClimaxFired   bool     `cbor:"climax_fired"`
	RelatedNPCs   []uint64 `cbor:"related_npcs,omitempty"`
}

type cooldownGlobalPayload struct {
	Key   uint32 `cbor:"key"`
	Until uint64 `cbor:"until"`
}

type cooldownActorPayload struct {
	Key   uint32 `cbor:"key"`
	Who   uint64 `cbor:"who"`
	Until uint64 `cbor:"until"`
}

type cooldownDistrictPayload struct {
	Key      uint32 `cbor:"key"`
	District string `cbor:"district"`
	Until    uint64 `cbor:"until"`
}

type cooldownRelationshipPayload struct {
	Key    uint32 `cbor:"key"`
	Actor  uint64 `cbor:"actor"`
	Target uint64 `cbor:"target"`
	Until  uint64 `cbor:"until"`
}

type lastFiredPayload struct {
	LastStoryletTick map[uint32]uint64 `cbor:"last_storylet_tick"`
	LastByDomain     map[uint8]uint64  `cbor:"last_by_domain"`
	LastByTag        map[string]uint64 `cbor:"last_by_tag"`
	MostRecentDomain *uint8            `cbor:"most_recent_domain,omitempty"`
}

type payload struct {
	Tick             uint64                        `cbor:"tick"`
	NarrativeHeat    float64                       `cbor:"narrative_heat"`
	HeatMomentum     float64                       `cbor:"heat_momentum"`
	NarrativePhase   uint8                         `cbor:"narrative_phase"`
	PhaseStartedAt   uint64                        `cbor:"phase_started_at"`
	LastAnyFiredAt   *uint64                       `cbor:"last_any_fired_at,omitempty"`
	Queue            []queuedEventPayload          `cbor:"queue,omitempty"`
	Pressures        []pressurePayload             `cbor:"pressures,omitempty"`
	Milestones       []milestonePayload            `cbor:"milestones,omitempty"`
	NextPressureID   uint64                        `cbor:"next_pressure_id"`
	CooldownGlobal   []cooldownGlobalPayload       `cbor:"cooldown_global,omitempty"`
	CooldownActor    []cooldownActorPayload        `cbor:"cooldown_actor,omitempty"`
	CooldownDistrict []cooldownDistrictPayload     `cbor:"cooldown_district,omitempty"`
	CooldownRelation []cooldownRelationshipPayload `cbor:"cooldown_relationship,omitempty"`
	LastFired        lastFiredPayload              `cbor:"last_fired"`
	SeenEvents       []string                      `cbor:"seen_events,omitempty"`
	FormatVersion    uint32                        `cbor:"format_version"`
	ConfigVersion    *uint32                       `cbor:"config_version,omitempty"`
	RunID            *string                       `cbor:"run_id,omitempty"`
}

// Encode serializes snap to the SYND binary format.
func Encode(snap *Snapshot) ([]byte, error) {
	p := toPayload(snap)
	body, err := cbor.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode director snapshot payload: %w", err)
	}

	var buf bytes.Buffer
	buf.Write(magic[:])
	var verBuf [4]byte
	binary.LittleEndian.PutUint32(verBuf[:], currentVersion)
	buf.Write(verBuf[:])
	buf.Write(body)
	return buf.Bytes(), nil
}

// Decode parses the SYND binary format, rejecting mismatched magic or
// version with a typed FormatError and leaving no partial state.
func Decode(data []byte) (*Snapshot, error) {
	if len(data) < 8 {
		return nil, &FormatError{Reason: "truncated header"}
	}
	if !bytes.Equal(data[:4], magic[:]) {
		return nil, &FormatError{Reason: fmt.Sprintf("bad magic %q", data[:4])}
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != currentVersion {
		return nil, &FormatError{Reason: fmt.Sprintf("unsupported version %d", version)}
	}

	var p payload
	if err := cbor.Unmarshal(data[8:], &p); err != nil {
		return nil, &FormatError{Reason: fmt.Sprintf("corrupt payload: %v", err)}
	}
	return fromPayload(&p), nil
}

// WriteFile encodes and writes a snapshot to path.
func WriteFile(path string, snap *Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadFile reads and decodes a snapshot from path.
func ReadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read director snapshot file: %w", err)
	}
	return Decode(data)
}

func toPayload(snap *Snapshot) *payload {
	s := snap.State

	queue := s.PendingQueue.AllEvents()
	queuePayload := make([]queuedEventPayload, len(queue))
	for i, ev := range queue {
		queuePayload[i] = queuedEventPayload{
			Key:           uint32(ev.Key),
			ScheduledTick: uint64(ev.ScheduledTick),
			Priority:      ev.Priority,
			Forced:        ev.Forced,
			Source:        uint8(ev.Source),
		}
	}

	pressures, milestones, nextID := s.ActivePressures.Export()
	pressuresPayload := make([]pressurePayload, len(pressures))
	for i, p := range pressures {
		pp := pressurePayload{
			ID:        uint64(p.ID),
			Kind:      p.Kind,
			Label:     p.Label,
			CreatedAt: uint64(p.CreatedAt),
			Severity:  p.Severity,
			Forced:    p.Forced,
			Resolved:  p.Resolved,
		}
		if p.Deadline != nil {
			v := uint64(*p.Deadline)
			pp.Deadline = &v
		}
		if p.ResolutionKey != nil {
			v := uint32(*p.ResolutionKey)
			pp.ResolutionKey = &v
		}
		if p.ResolvedAt != nil {
			v := uint64(*p.ResolvedAt)
			pp.ResolvedAt = &v
		}
		pp.RelatedNPCs = npcsToU64(p.RelatedNPCs)
		pressuresPayload[i] = pp
	}
	milestonesPayload := make([]milestonePayload, len(milestones))
	for i, m := range milestones {
		mp := milestonePayload{
			ID:            uint64(m.ID),
			Kind:          m.Kind,
			Label:         m.Label,
			CreatedAt:     uint64(m.CreatedAt),
			Progress:      m.Progress,
			AdvancingTags: tagsToStrings(m.AdvancingTags),
			ClimaxFired:   m.ClimaxFired,
		}
		if m.Domain != nil {
			v := uint8(*m.Domain)
			mp.Domain = &v
		}
		if m.ClimaxKey != nil {
			v := uint32(*m.ClimaxKey)
			mp.ClimaxKey = &v
		}
		mp.RelatedNPCs = npcsToU64(m.RelatedNPCs)
		milestonesPayload[i] = mp
	}

	global, actor, districtEntries, rel := s.Cooldowns.Export()
	globalPayload := make([]cooldownGlobalPayload, len(global))
	for i, e := range global {
		globalPayload[i] = cooldownGlobalPayload{Key: uint32(e.Key), Until: uint64(e.Until)}
	}
	actorPayload := make([]cooldownActorPayload, len(actor))
	for i, e := range actor {
		actorPayload[i] = cooldownActorPayload{Key: uint32(e.Key), Who: uint64(e.Who), Until: uint64(e.Until)}
	}
	districtPayload := make([]cooldownDistrictPayload, len(districtEntries))
	for i, e := range districtEntries {
		districtPayload[i] = cooldownDistrictPayload{Key: uint32(e.Key), District: e.District, Until: uint64(e.Until)}
	}
	relPayload := make([]cooldownRelationshipPayload, len(rel))
	for i, e := range rel {
		relPayload[i] = cooldownRelationshipPayload{
			Key: uint32(e.Key), Actor: uint64(e.Actor), Target: uint64(e.Target), Until: uint64(e.Until),
		}
	}

	lf := lastFiredPayload{
		LastStoryletTick: make(map[uint32]uint64, len(s.LastFired.LastStoryletTick)),
		LastByDomain:     make(map[uint8]uint64, len(s.LastFired.LastByDomain)),
		LastByTag:        make(map[string]uint64, len(s.LastFired.LastByTag)),
	}
	for k, v := range s.LastFired.LastStoryletTick {
		lf.LastStoryletTick[uint32(k)] = uint64(v)
	}
	for k, v := range s.LastFired.LastByDomain {
		lf.LastByDomain[uint8(k)] = uint64(v)
	}
	for k, v := range s.LastFired.LastByTag {
		lf.LastByTag[string(k)] = uint64(v)
	}
	if s.LastFired.MostRecentDomain != nil {
		v := uint8(*s.LastFired.MostRecentDomain)
		lf.MostRecentDomain = &v
	}

	p := &payload{
		Tick:             uint64(s.Tick),
		NarrativeHeat:    s.NarrativeHeat,
		HeatMomentum:     s.HeatMomentum,
		NarrativePhase:   uint8(s.NarrativePhase),
		PhaseStartedAt:   uint64(s.PhaseStartedAt),
		Queue:            queuePayload,
		Pressures:        pressuresPayload,
		Milestones:       milestonesPayload,
		NextPressureID:   uint64(nextID),
		CooldownGlobal:   globalPayload,
		CooldownActor:    actorPayload,
		CooldownDistrict: districtPayload,
		CooldownRelation: relPayload,
		LastFired:        lf,
		SeenEvents:       s.ExportSeenEvents(),
		FormatVersion:    snap.FormatVersion,
		ConfigVersion:    snap.ConfigVersion,
		RunID:            snap.RunID,
	}
	if s.LastAnyFiredAt != nil {
		v := uint64(*s.LastAnyFiredAt)
		p.LastAnyFiredAt = &v
	}
	return p
}

func fromPayload(p *payload) *Snapshot {
	queue := equeue.New(0)
	for _, qp := range p.Queue {
		queue.PushUnchecked(equeue.Event{
			Key:           ids.StoryletKey(qp.Key),
			ScheduledTick: ids.SimTick(qp.ScheduledTick),
			Priority:      qp.Priority,
			Forced:        qp.Forced,
			Source:        ids.EventSource(qp.Source),
		})
	}

	pressures := make([]pressure.Pressure, len(p.Pressures))
	for i, pp := range p.Pressures {
		pr := pressure.Pressure{
			ID:          pressure.Id(pp.ID),
			Kind:        pp.Kind,
			Label:       pp.Label,
			CreatedAt:   ids.SimTick(pp.CreatedAt),
			Severity:    pp.Severity,
			Forced:      pp.Forced,
			Resolved:    pp.Resolved,
			RelatedNPCs: npcsFromU64(pp.RelatedNPCs),
		}
		if pp.Deadline != nil {
			v := ids.SimTick(*pp.Deadline)
			pr.Deadline = &v
		}
		if pp.ResolutionKey != nil {
			v := ids.StoryletKey(*pp.ResolutionKey)
			pr.ResolutionKey = &v
		}
		if pp.ResolvedAt != nil {
			v := ids.SimTick(*pp.ResolvedAt)
			pr.ResolvedAt = &v
		}
		pressures[i] = pr
	}
	milestones := make([]pressure.Milestone, len(p.Milestones))
	for i, mp := range p.Milestones {
		m := pressure.Milestone{
			ID:            pressure.Id(mp.ID),
			Kind:          mp.Kind,
			Label:         mp.Label,
			CreatedAt:     ids.SimTick(mp.CreatedAt),
			Progress:      mp.Progress,
			AdvancingTags: stringsToTags(mp.AdvancingTags),
			ClimaxFired:   mp.ClimaxFired,
			RelatedNPCs:   npcsFromU64(mp.RelatedNPCs),
		}
		if mp.Domain != nil {
			v := ids.StoryDomain(*mp.Domain)
			m.Domain = &v
		}
		if mp.ClimaxKey != nil {
			v := ids.StoryletKey(*mp.ClimaxKey)
			m.ClimaxKey = &v
		}
		milestones[i] = m
	}
	pstate := pressure.Restore(pressures, milestones, pressure.Id(p.NextPressureID))

	global := make([]cooldown.GlobalEntry, len(p.CooldownGlobal))
	for i, e := range p.CooldownGlobal {
		global[i] = cooldown.GlobalEntry{Key: ids.StoryletKey(e.Key), Until: ids.SimTick(e.Until)}
	}
	actor := make([]cooldown.ActorEntry, len(p.CooldownActor))
	for i, e := range p.CooldownActor {
		actor[i] = cooldown.ActorEntry{Key: ids.StoryletKey(e.Key), Who: ids.NpcId(e.Who), Until: ids.SimTick(e.Until)}
	}
	districtEntries := make([]cooldown.DistrictEntry, len(p.CooldownDistrict))
	for i, e := range p.CooldownDistrict {
		districtEntries[i] = cooldown.DistrictEntry{Key: ids.StoryletKey(e.Key), District: e.District, Until: ids.SimTick(e.Until)}
	}
	rel := make([]cooldown.RelationshipEntry, len(p.CooldownRelation))
	for i, e := range p.CooldownRelation {
		rel[i] = cooldown.RelationshipEntry{
			Key: ids.StoryletKey(e.Key), Actor: ids.NpcId(e.Actor), Target: ids.NpcId(e.Target), Until: ids.SimTick(e.Until),
		}
	}
	cstate := cooldown.Restore(global, actor, districtEntries, rel)

	lastFired := director.NewLastFiredState()
	for k, v := range p.LastFired.LastStoryletTick {
		lastFired.LastStoryletTick[ids.StoryletKey(k)] = ids.SimTick(v)
	}
	for k, v := range p.LastFired.LastByDomain {
		lastFired.LastByDomain[ids.StoryDomain(k)] = ids.SimTick(v)
	}
	for k, v := range p.LastFired.LastByTag {
		lastFired.LastByTag[ids.Tag(k)] = ids.SimTick(v)
	}
	if p.LastFired.MostRecentDomain != nil {
		d := ids.StoryDomain(*p.LastFired.MostRecentDomain)
		lastFired.MostRecentDomain = &d
	}

	var lastAnyFiredAt *ids.SimTick
	if p.LastAnyFiredAt != nil {
		v := ids.SimTick(*p.LastAnyFiredAt)
		lastAnyFiredAt = &v
	}

	state := director.RestoreState(
		ids.SimTick(p.Tick),
		p.NarrativeHeat,
		p.HeatMomentum,
		director.NarrativePhase(p.NarrativePhase),
		ids.SimTick(p.PhaseStartedAt),
		lastAnyFiredAt,
		queue,
		pstate,
		cstate,
		lastFired,
		p.SeenEvents,
	)

	return &Snapshot{
		State:         state,
		FormatVersion: p.FormatVersion,
		ConfigVersion: p.ConfigVersion,
		RunID:         p.RunID,
	}
}

func tagsToStrings(tags []ids.Tag) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = string(t)
	}
	return out
}

func stringsToTags(ss []string) []ids.Tag {
	if len(ss) == 0 {
		return nil
	}
	out := make([]ids.Tag, len(ss))
	for i, s := range ss {
		out[i] = ids.Tag(s)
	}
	return out
}

func npcsToU64(npcs []ids.NpcId) []uint64 {
	if len(npcs) == 0 {
		return nil
	}
	out := make([]uint64, len(npcs))
	for i, n := range npcs {
		out[i] = uint64(n)
	}
	return out
}

func npcsFromU64(vals []uint64) []ids.NpcId {
	if len(vals) == 0 {
		return nil
	}
	out := make([]ids.NpcId, len(vals))
	for i, v := range vals {
		out[i] = ids.NpcId(v)
	}
	return out
}
