package model

import (
	"math"
	"math/rand"
	"time"
)

// LootGeneratorConfig comes from the game config's lootGeneratorConfig block.
type LootGeneratorConfig struct {
	Period      time.Duration
	Probability float64
}

// LootGenerator decides how many items appear on a map per tick. The model is
// loss-driven: the fewer items relative to looters, the more likely new ones
// spawn. A fractional time debt is carried between calls so short ticks
// accumulate instead of being lost.
type LootGenerator struct {
	period      time.Duration
	probability float64
	carry       float64
	rnd         *rand.Rand
}

func NewLootGenerator(cfg LootGeneratorConfig, rnd *rand.Rand) *LootGenerator {
	return &LootGenerator{period: cfg.Period, probability: cfg.Probability, rnd: rnd}
}

// Generate returns how many new items to create after dt has elapsed with
// lootCount items present and looterCount dogs in the session. Never exceeds
// the looter deficit, so a session cannot hold more generated loot than it
// has dogs to chase it.
func (g *LootGenerator) Generate(dt time.Duration, lootCount, looterCount int) int {
	if g.period <= 0 {
		return 0
	}
	g.carry += float64(dt) / float64(g.period)
	deficit := looterCount - lootCount
	if deficit <= 0 || g.probability <= 0 {
		return 0
	}
	rate := float64(deficit) * g.probability
	expected := g.carry * rate
	u := g.rnd.Float64()
	n := int(math.Floor(-math.Log(1-u) * expected))
	if n < 0 {
		n = 0
	}
	if n > deficit {
		n = deficit
	}
	g.carry -= float64(n) / math.Max(1, rate)
	return n
}
