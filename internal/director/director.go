package director

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/talgya/syn-director/internal/drng"
	"github.com/talgya/syn-director/internal/eligibility"
	"github.com/talgya/syn-director/internal/equeue"
	"github.com/talgya/syn-director/internal/ids"
	"github.com/talgya/syn-director/internal/pressure"
	"github.com/talgya/syn-director/internal/scoring"
	"github.com/talgya/syn-director/internal/storylet"
	"github.com/talgya/syn-director/internal/tiers"
	"github.com/talgya/syn-director/internal/worldview"
)

// FiredEvent describes the storylet a step selected and fired.
type FiredEvent struct {
	Key         ids.StoryletKey
	Forced      bool
	Source      ids.EventSource
	// IsFromQueue reports whether Key was drained from PendingQueue
	// (forced relief, or a scripted candidate that had been queued)
	// rather than picked fresh off the eligibility scan (§6.5).
	IsFromQueue bool
}

// StepResult is the outcome of one Director.Step call (§4.8 step 9).
type StepResult struct {
	Fired       *FiredEvent
	PhaseChanged bool
	Tick        ids.SimTick
	// SoftErrors records non-fatal step conditions (§7): a queued key no
	// longer resolving, a forced event failing eligibility, no candidate
	// meeting min_viable_weight. None of these poison Director state.
	SoftErrors []string
}

// Director orchestrates one compiled library, one config and one
// mutable State through the step loop.
type Director struct {
	Config     Config
	Source     storylet.Source
	Eligible   *eligibility.Engine
	State      *State
	WorldSeed  ids.WorldSeed
	Log        *slog.Logger
	Tiers      *tiers.Scheduler

	personalityMatch scoring.PersonalityMatch
}

// New constructs a Director over a compiled library at tick 0.
func New(seed ids.WorldSeed, cfg Config, source storylet.Source) *Director {
	return &Director{
		Config:   cfg,
		Source:   source,
		Eligible: eligibility.New(source),
		State:    NewState(cfg.Queue.MaxSize),
		WorldSeed: seed,
		Log:      slog.Default(),
		Tiers:    tiers.NewScheduler(),
	}
}

// AdoptState replaces the Director's state wholesale, as when restoring
// from a persisted snapshot (§4.10), and rebinds the queue bound from
// Config since the wire format doesn't carry it.
func (d *Director) AdoptState(s *State) {
	s.SetQueueMaxSize(d.Config.Queue.MaxSize)
	d.State = s
}

// SetPersonalityMatch installs the personality-match predicate the
// scoring engine consults (§4.5 personality_match_bonus); the
// personality model itself lives outside this package, same as
// eligibility's trait-threshold pass-through.
func (d *Director) SetPersonalityMatch(fn scoring.PersonalityMatch) {
	d.personalityMatch = fn
}

func (d *Director) logSoft(result *StepResult, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	result.SoftErrors = append(result.SoftErrors, msg)
	if d.Log != nil {
		d.Log.Warn("director: step soft error", "tick", d.State.Tick, "detail", msg)
	}
}

// Step runs one full tick of the Director step loop (§4.8), in the
// documented mandatory order.
func (d *Director) Step(now ids.SimTick, ctx *worldview.Context) (StepResult, error) {
	if now != d.State.Tick+1 {
		return StepResult{}, fmt.Errorf("director: step called with tick %d, expected %d", now, d.State.Tick+1)
	}
	d.State.Tick = now
	result := StepResult{Tick: now}

	// Step 1: NPC tier scheduler assigns tiers and runs per-tier NPC
	// updates (stat/relationship drift) ahead of the Director step (§2).
	d.Tiers.RunTick(now, ctx.World, d.State.ActivePressures, d.Config.Tiers, d.Config.TierUpdate)

	// Step 2: decay narrative heat toward base_heat_target.
	d.decayHeat()

	// Step 3: attempt phase transition.
	result.PhaseChanged = d.State.UpdatePhase(d.Config.Pacing.PhaseThresholds, d.Config.Pacing.MinPhaseDuration)

	// Step 4: ingest external pressure/milestone events, idempotent by id.
	d.ingestExternalEvents(ctx.World)

	// Step 5: check pressure crises -> forced relief events.
	d.checkPressureCrises(now)
	d.State.Cooldowns.CleanupExpired(now)

	// Step 6: drain forced-ready and attempt to fire them in order.
	forced := d.State.PendingQueue.PopForcedReady(now)
	for _, ev := range forced {
		compiled, ok := d.Source.GetByKey(ev.Key)
		if !ok {
			d.logSoft(&result, "forced event key %s no longer resolves", ev.Key)
			continue
		}
		if !d.Eligible.IsEligible(compiled, ctx) {
			d.logSoft(&result, "forced event %s failed eligibility", ev.Key)
			continue
		}
		d.applyOutcome(compiled, ctx, now)
		result.Fired = &FiredEvent{Key: ev.Key, Forced: true, Source: ev.Source, IsFromQueue: true}
		break
	}
	if result.Fired != nil {
		return result, nil
	}

	// Step 7: full eligibility + scoring pipeline, gated by the
	// min-ticks-between-events cooldown.
	if d.State.LastAnyFiredAt != nil && uint64(now-*d.State.LastAnyFiredAt) < d.Config.MinTicksBetweenEvents {
		return result, nil
	}

	candidates := d.collectCandidates(now, ctx)
	if len(candidates) == 0 {
		return result, nil
	}

	lastDomain := scoring.LastFiredDomain{}
	if d.State.LastFired.MostRecentDomain != nil {
		lastDomain.HasAny = true
		lastDomain.Domain = *d.State.LastFired.MostRecentDomain
	}

	scored := scoring.ScoreAll(now, d.State.NarrativePhase, candidates, d.State.ActivePressures,
		d.Config.Pressure, d.Config.Milestone, lastDomain, d.personalityMatch, d.Config.Scoring)
	if len(scored) == 0 {
		d.logSoft(&result, "no candidate met min_viable_weight")
		return result, nil
	}

	rng := drng.WithDomain(uint64(d.WorldSeed), uint64(now), "select")
	key, ok := scoring.Select(rng, scored)
	if !ok {
		return result, nil
	}

	compiled, ok := d.Source.GetByKey(key)
	if !ok {
		d.logSoft(&result, "selected key %s no longer resolves", key)
		return result, nil
	}

	wasQueued := d.State.PendingQueue.Contains(key)
	d.State.PendingQueue.RemoveStorylet(key)
	d.applyOutcome(compiled, ctx, now)
	result.Fired = &FiredEvent{Key: key, Forced: false, Source: ids.SourceScripted, IsFromQueue: wasQueued}
	return result, nil
}

func (d *Director) decayHeat() {
	target := d.Config.BaseHeatTarget
	decay := d.Config.Pacing.HeatDecayPerTick
	heat := d.State.NarrativeHeat
	before := heat

	if heat > target {
		heat -= decay
		if heat < target {
			heat = target
		}
	} else if heat < target {
		heat += decay
		if heat > target {
			heat = target
		}
	}

	d.State.NarrativeHeat = heat
	d.State.ClampHeat(d.Config.Pacing.MinHeat, d.Config.Pacing.MaxHeat)
	d.State.HeatMomentum = d.State.NarrativeHeat - before
}

func (d *Director) ingestExternalEvents(world worldview.World) {
	for _, pe := range world.DrainPressureEvents() {
		if d.State.seenExternalEvents[pe.EventID] {
			continue
		}
		d.State.seenExternalEvents[pe.EventID] = true
		d.State.ActivePressures.AddPressure(pressure.Pressure{
			Kind:          pe.Kind,
			Label:         pe.Label,
			CreatedAt:     d.State.Tick,
			Deadline:      pe.Deadline,
			Severity:      pe.Severity,
			ResolutionKey: pe.ResolutionKey,
		})
	}
	for _, me := range world.DrainMilestoneEvents() {
		if d.State.seenExternalEvents[me.EventID] {
			continue
		}
		d.State.seenExternalEvents[me.EventID] = true
		d.State.ActivePressures.AddMilestone(pressure.Milestone{
			Kind:          me.Kind,
			Label:         me.Label,
			CreatedAt:     d.State.Tick,
			AdvancingTags: me.AdvancingTags,
			Domain:        me.Domain,
			ClimaxKey:     me.ClimaxKey,
		})
	}
}

func (d *Director) checkPressureCrises(now ids.SimTick) {
	forced := d.State.ActivePressures.Tick(now, d.Config.Pressure)
	for _, fr := range forced {
		d.State.PendingQueue.Push(equeue.Event{
			Key:           fr.Key,
			ScheduledTick: now,
			Priority:      1000,
			Forced:        true,
			Source:        ids.SourcePressureRelief,
		})
	}
}

// collectCandidates runs eligibility (§4.4), merges in ready,
// still-eligible queue entries, filters by the cooldown ledger (which
// eligibility.Engine does not consult), and returns them in key-ascending order, annotated with last-fired
// data for the variety factor.
func (d *Director) collectCandidates(now ids.SimTick, ctx *worldview.Context) []scoring.Candidate {
	eligibleKeys := d.Eligible.Scan(ctx)

	merged := make(map[ids.StoryletKey]struct{}, len(eligibleKeys))
	for _, k := range eligibleKeys {
		merged[k] = struct{}{}
	}

	ready := d.State.PendingQueue.PeekReady(now)
	for _, ev := range ready {
		if ev.Forced {
			continue // forced entries are handled exclusively in step 6
		}
		compiled, ok := d.Source.GetByKey(ev.Key)
		if !ok {
			continue
		}
		if d.Eligible.IsEligible(compiled, ctx) {
			merged[ev.Key] = struct{}{}
		}
	}

	keys := make([]ids.StoryletKey, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]scoring.Candidate, 0, len(keys))
	for _, k := range keys {
		compiled, ok := d.Source.GetByKey(k)
		if !ok {
			continue
		}
		if !d.cooldownsClear(compiled, now, ctx.World) {
			continue
		}
		cand := scoring.Candidate{Storylet: compiled}
		if t, ok := d.State.LastFired.LastTickForStorylet(k); ok {
			cand.Recent = scoring.RecentFire{LastFiredAt: t, HasFired: true}
		}
		out = append(out, cand)
	}
	return out
}

// primaryActorTarget resolves the (actor, target) pair a storylet's
// per-actor/per-relationship cooldown scopes apply to, from its first
// relationship prerequisite, defaulting the actor to the player. Full
// role-casting is outside this engine's scope (the roles list only
// names slots; binding them to concrete NPCs is an external concern),
// so this is a deliberately narrow grounding of "the actor" concept.
func primaryActorTarget(s *storylet.Compiled) (actor ids.NpcId, target ids.NpcId, hasTarget bool) {
	if len(s.Prerequisites.RelationshipPrereqs) == 0 {
		return ids.PlayerID, 0, false
	}
	pr := s.Prerequisites.RelationshipPrereqs[0]
	actor = ids.PlayerID
	if pr.Actor != nil {
		actor = *pr.Actor
	}
	return actor, pr.Target, true
}

func (d *Director) cooldownsClear(s *storylet.Compiled, now ids.SimTick, world worldview.World) bool {
	if !d.State.Cooldowns.IsGloballyReady(s.Key, now) {
		return false
	}
	actor, target, hasTarget := primaryActorTarget(s)
	if s.Cooldowns.PerActorTicks != nil && !d.State.Cooldowns.IsActorReady(s.Key, actor, now) {
		return false
	}
	if s.Cooldowns.PerRelationshipTicks != nil && hasTarget &&
		!d.State.Cooldowns.IsRelationshipReady(s.Key, actor, target, now) {
		return false
	}
	if s.Cooldowns.PerDistrictTicks != nil {
		district, ok := world.NpcDistrict(ids.PlayerID)
		if ok && !d.State.Cooldowns.IsDistrictReady(s.Key, district, now) {
			return false
		}
	}
	return true
}

func (d *Director) markCooldowns(s *storylet.Compiled, now ids.SimTick, world worldview.World) {
	d.State.Cooldowns.MarkGlobal(s.Key, s.Cooldowns.GlobalTicks, now)
	actor, target, hasTarget := primaryActorTarget(s)
	if s.Cooldowns.PerActorTicks != nil {
		d.State.Cooldowns.MarkActor(s.Key, actor, *s.Cooldowns.PerActorTicks, now)
	}
	if s.Cooldowns.PerRelationshipTicks != nil && hasTarget {
		d.State.Cooldowns.MarkRelationship(s.Key, actor, target, *s.Cooldowns.PerRelationshipTicks, now)
	}
	if s.Cooldowns.PerDistrictTicks != nil {
		if district, ok := world.NpcDistrict(ids.PlayerID); ok {
			d.State.Cooldowns.MarkDistrict(s.Key, district, *s.Cooldowns.PerDistrictTicks, now)
		}
	}
}

// applyOutcome is the single, atomic mutation path for a fired storylet
// (§5 Transactionality): stat deltas, relationship deltas, karma,
// flags, memory, heat spike, follow-ups, cooldowns and last-fired are
// all applied here.
func (d *Director) applyOutcome(s *storylet.Compiled, ctx *worldview.Context, now ids.SimTick) {
	outcome := s.Outcomes
	world := ctx.World

	playerStats := world.PlayerStats()
	for _, sd := range outcome.StatDeltas {
		playerStats.Delta(sd.Stat, sd.Delta)
	}

	for _, rd := range outcome.RelationshipDeltas {
		world.ApplyRelationshipDelta(rd)
	}

	if outcome.KarmaDelta != nil {
		k := world.PlayerKarma()
		k = k.Add(*outcome.KarmaDelta)
		world.SetPlayerKarma(k)
	}

	for _, fu := range outcome.WorldFlagUpdates {
		world.SetFlag(fu.Name, fu.Set)
	}

	if outcome.MemoryTemplate != nil {
		world.AppendMemory(ids.PlayerID, worldview.MemoryEntry{Tags: outcome.MemoryTemplate.Tags, Tick: now})
	}

	d.State.NarrativeHeat += outcome.HeatSpike * d.Config.Pacing.HeatIncreasePerEventFactor
	d.State.ClampHeat(d.Config.Pacing.MinHeat, d.Config.Pacing.MaxHeat)

	for _, fu := range s.FollowUpsResolved {
		if fu.TargetKey == nil {
			continue
		}
		if fu.ConditionalOnFlag != nil && !world.HasFlag(*fu.ConditionalOnFlag) {
			continue
		}
		d.State.PendingQueue.Push(equeue.Event{
			Key:           *fu.TargetKey,
			ScheduledTick: now + ids.SimTick(fu.DelayTicks),
			Priority:      0,
			Forced:        false,
			Source:        ids.SourceFollowUp,
		})
	}

	d.State.ActivePressures.ResolveByKey(s.Key, now)
	for _, cs := range d.State.ActivePressures.AdvanceMilestones(now, s.Domain, s.Tags, d.Config.Milestone) {
		d.State.PendingQueue.Push(equeue.Event{
			Key:           cs.Key,
			ScheduledTick: now,
			Priority:      500,
			Forced:        false,
			Source:        ids.SourceMilestone,
		})
	}

	d.markCooldowns(s, now, world)
	d.State.LastFired.RecordFired(s.Key, s.Domain, s.Tags, now)
	tick := now
	d.State.LastAnyFiredAt = &tick
}
