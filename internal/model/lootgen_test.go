package model

import (
	"math/rand"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLootGenerator(t *testing.T) {
	Convey("Given a loot generator", t, func() {
		cfg := LootGeneratorConfig{Period: time.Second, Probability: 0.5}

		Convey("When the period is not configured", func() {
			gen := NewLootGenerator(LootGeneratorConfig{}, rand.New(rand.NewSource(1)))
			So(gen.Generate(time.Second, 0, 5), ShouldEqual, 0)
		})

		Convey("When there is no looter deficit", func() {
			gen := NewLootGenerator(cfg, rand.New(rand.NewSource(1)))
			So(gen.Generate(time.Second, 3, 3), ShouldEqual, 0)
			So(gen.Generate(time.Second, 5, 3), ShouldEqual, 0)
			So(gen.Generate(time.Second, 0, 0), ShouldEqual, 0)
		})

		Convey("When the probability is zero", func() {
			gen := NewLootGenerator(LootGeneratorConfig{Period: time.Second}, rand.New(rand.NewSource(1)))
			So(gen.Generate(time.Second, 0, 5), ShouldEqual, 0)
		})

		Convey("When ticks accumulate with a deficit", func() {
			gen := NewLootGenerator(cfg, rand.New(rand.NewSource(42)))
			total := 0
			for i := 0; i < 20; i++ {
				n := gen.Generate(time.Second, 0, 3)
				So(n, ShouldBeLessThanOrEqualTo, 3)
				So(n, ShouldBeGreaterThanOrEqualTo, 0)
				total += n
			}

			Convey("Then loot is eventually generated", func() {
				So(total, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When the deficit shrinks as loot appears", func() {
			gen := NewLootGenerator(cfg, rand.New(rand.NewSource(7)))
			onGround := 0
			for i := 0; i < 50; i++ {
				n := gen.Generate(time.Second, onGround, 2)
				So(n, ShouldBeLessThanOrEqualTo, 2-onGround)
				onGround += n
				So(onGround, ShouldBeLessThanOrEqualTo, 2)
			}
		})
	})
}
