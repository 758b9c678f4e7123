package storyletio

import "github.com/talgya/syn-director/internal/ids"

func keysToU32(keys []ids.StoryletKey) []uint32 {
	out := make([]uint32, len(keys))
	for i, k := range keys {
		out[i] = uint32(k)
	}
	return out
}

func keysFromU32(keys []uint32) []ids.StoryletKey {
	out := make([]ids.StoryletKey, len(keys))
	for i, k := range keys {
		out[i] = ids.StoryletKey(k)
	}
	return out
}

func storyletIDOf(s string) ids.StoryletId   { return ids.StoryletId(s) }
func tagOf(s string) ids.Tag                 { return ids.Tag(s) }
func lifeStageOf(v uint8) ids.LifeStage      { return ids.LifeStage(v) }
func domainOf(v uint8) ids.StoryDomain       { return ids.StoryDomain(v) }
func u32ToKey(v uint32) ids.StoryletKey      { return ids.StoryletKey(v) }
