package storylet

import (
	"fmt"
	"sort"
	"strings"

	"github.com/talgya/syn-director/internal/ids"
)

// CompileErrors collects every validation failure found during a single
// Compile call, rather than failing fast on the first one.
type CompileErrors struct {
	Errors []error
}

func (e *CompileErrors) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d storylet compile error(s): %s", len(e.Errors), strings.Join(msgs, "; "))
}

func (e *CompileErrors) add(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Errorf(format, args...))
}

func (e *CompileErrors) any() bool { return len(e.Errors) > 0 }

// Compile assigns dense StoryletKeys in discovery order (sorted by
// SourcePath, ties broken by ID), builds the tag/life-stage/domain
// inverted indexes, and resolves follow-up references to keys. A
// follow-up whose target ID is unknown at compile time resolves to a nil
// TargetKey (§3.2's invariant) rather than failing the compile — it is
// the consumer's job to re-check at firing time (§4.6). Compilation fails
// only on structural problems: duplicate IDs and invariant violations
// (non-positive weight, out-of-range heat).
func Compile(defs []Definition) (*Library, error) {
	sorted := make([]Definition, len(defs))
	copy(sorted, defs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].SourcePath != sorted[j].SourcePath {
			return sorted[i].SourcePath < sorted[j].SourcePath
		}
		return sorted[i].ID < sorted[j].ID
	})

	errs := &CompileErrors{}
	lib := New()
	seen := make(map[ids.StoryletId]bool, len(sorted))

	for i, def := range sorted {
		if seen[def.ID] {
			errs.add("duplicate storylet id %q", def.ID)
			continue
		}
		seen[def.ID] = true

		if def.Weight <= 0 {
			errs.add("storylet %q: weight must be > 0, got %v", def.ID, def.Weight)
		}
		if def.Heat > 10 {
			errs.add("storylet %q: heat must be in [0,10], got %d", def.ID, def.Heat)
		}

		key := ids.StoryletKey(len(lib.Storylets))
		compiled := Compiled{
			ID:            def.ID,
			Key:           key,
			Name:          def.Name,
			Description:   def.Description,
			Tags:          def.Tags,
			Domain:        def.Domain,
			LifeStage:     def.LifeStage,
			Heat:          def.Heat,
			Weight:        def.Weight,
			Roles:         def.Roles,
			Prerequisites: def.Prereqs,
			Cooldowns:     def.Cooldowns,
			Outcomes:      def.Outcome,
		}
		lib.Storylets = append(lib.Storylets, compiled)
		lib.IDToKey[def.ID] = key
		_ = i
	}

	if errs.any() {
		return nil, errs
	}

	// Second pass: resolve follow-ups now that every ID→key mapping
	// exists, and build inverted indexes.
	for i := range lib.Storylets {
		s := &lib.Storylets[i]

		for _, fu := range sorted[i].Outcome.FollowUps {
			resolved := ResolvedFollowUp{
				DelayTicks:        fu.DelayTicks,
				ConditionalOnFlag: fu.ConditionalOnFlag,
			}
			if targetKey, ok := lib.IDToKey[fu.StoryletID]; ok {
				k := targetKey
				resolved.TargetKey = &k
			}
			s.FollowUpsResolved = append(s.FollowUpsResolved, resolved)
		}

		for _, tag := range s.Tags {
			lib.TagIndex[tag] = append(lib.TagIndex[tag], s.Key)
		}
		lib.LifeStageIndex[s.LifeStage] = append(lib.LifeStageIndex[s.LifeStage], s.Key)
		lib.DomainIndex[s.Domain] = append(lib.DomainIndex[s.Domain], s.Key)
	}

	lib.TotalCountVal = uint32(len(lib.Storylets))
	return lib, nil
}
