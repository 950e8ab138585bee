package geom

import (
	"math"
	"testing"
)

func TestTryCollectPoint(t *testing.T) {
	cases := []struct {
		name      string
		a, b, c   Point2D
		wantOK    bool
		wantRatio float64
		wantSqD   float64
	}{
		{
			name:      "point on segment",
			a:         Point2D{X: 0, Y: 0},
			b:         Point2D{X: 10, Y: 0},
			c:         Point2D{X: 4, Y: 0},
			wantOK:    true,
			wantRatio: 0.4,
			wantSqD:   0,
		},
		{
			name:      "point beside segment",
			a:         Point2D{X: 0, Y: 0},
			b:         Point2D{X: 10, Y: 0},
			c:         Point2D{X: 5, Y: 0.3},
			wantOK:    true,
			wantRatio: 0.5,
			wantSqD:   0.09,
		},
		{
			name:      "projection before start",
			a:         Point2D{X: 0, Y: 0},
			b:         Point2D{X: 10, Y: 0},
			c:         Point2D{X: -2, Y: 0},
			wantOK:    true,
			wantRatio: -0.2,
			wantSqD:   0,
		},
		{
			name:      "projection past end",
			a:         Point2D{X: 0, Y: 0},
			b:         Point2D{X: 10, Y: 0},
			c:         Point2D{X: 12, Y: 1},
			wantOK:    true,
			wantRatio: 1.2,
			wantSqD:   1,
		},
		{
			name:   "degenerate segment",
			a:      Point2D{X: 3, Y: 3},
			b:      Point2D{X: 3, Y: 3},
			c:      Point2D{X: 3, Y: 3},
			wantOK: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, ok := TryCollectPoint(tc.a, tc.b, tc.c)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if !ok {
				return
			}
			if math.Abs(res.ProjRatio-tc.wantRatio) > 1e-9 {
				t.Errorf("ProjRatio = %v, want %v", res.ProjRatio, tc.wantRatio)
			}
			if math.Abs(res.SqDistance-tc.wantSqD) > 1e-9 {
				t.Errorf("SqDistance = %v, want %v", res.SqDistance, tc.wantSqD)
			}
		})
	}
}

func TestIsCollected(t *testing.T) {
	hit := CollectionResult{SqDistance: 0.04, ProjRatio: 0.5}
	if !hit.IsCollected(0.3) {
		t.Error("expected collection within radius")
	}
	farAway := CollectionResult{SqDistance: 0.25, ProjRatio: 0.5}
	if farAway.IsCollected(0.3) {
		t.Error("expected no collection outside radius")
	}
	offSegment := CollectionResult{SqDistance: 0, ProjRatio: 1.1}
	if offSegment.IsCollected(0.3) {
		t.Error("expected no collection past the segment end")
	}
}

func TestFindGatherEventsOrdering(t *testing.T) {
	items := []Item{
		{Position: Point2D{X: 8, Y: 0}, Width: 0},
		{Position: Point2D{X: 2, Y: 0}, Width: 0},
		{Position: Point2D{X: 5, Y: 0}, Width: 0},
	}
	gatherers := []Gatherer{
		{StartPos: Point2D{X: 0, Y: 0}, EndPos: Point2D{X: 10, Y: 0}, Width: 0.3},
	}

	events := FindGatherEvents(items, gatherers)
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	wantOrder := []int{1, 2, 0}
	for i, ev := range events {
		if ev.ItemIndex != wantOrder[i] {
			t.Errorf("event %d hit item %d, want %d", i, ev.ItemIndex, wantOrder[i])
		}
	}
	for i := 1; i < len(events); i++ {
		if events[i].Time < events[i-1].Time {
			t.Error("events are not sorted by time")
		}
	}
}

func TestFindGatherEventsTieBreak(t *testing.T) {
	// Both gatherers cross the same item at the same ratio; the lower
	// gatherer index must come first.
	items := []Item{
		{Position: Point2D{X: 5, Y: 0}, Width: 0},
		{Position: Point2D{X: 5, Y: 0.1}, Width: 0},
	}
	gatherers := []Gatherer{
		{StartPos: Point2D{X: 0, Y: 0}, EndPos: Point2D{X: 10, Y: 0}, Width: 0.3},
		{StartPos: Point2D{X: 0, Y: 0}, EndPos: Point2D{X: 10, Y: 0}, Width: 0.3},
	}

	events := FindGatherEvents(items, gatherers)
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	want := []GatherEvent{
		{ItemIndex: 0, GathererIndex: 0},
		{ItemIndex: 1, GathererIndex: 0},
		{ItemIndex: 0, GathererIndex: 1},
		{ItemIndex: 1, GathererIndex: 1},
	}
	for i, ev := range events {
		if ev.ItemIndex != want[i].ItemIndex || ev.GathererIndex != want[i].GathererIndex {
			t.Errorf("event %d = (item %d, gatherer %d), want (item %d, gatherer %d)",
				i, ev.ItemIndex, ev.GathererIndex, want[i].ItemIndex, want[i].GathererIndex)
		}
	}
}

func TestFindGatherEventsStationaryGatherer(t *testing.T) {
	items := []Item{{Position: Point2D{X: 0, Y: 0}, Width: 0.5}}
	gatherers := []Gatherer{
		{StartPos: Point2D{X: 0, Y: 0}, EndPos: Point2D{X: 0, Y: 0}, Width: 0.3},
	}
	if events := FindGatherEvents(items, gatherers); len(events) != 0 {
		t.Fatalf("stationary gatherer produced %d events, want 0", len(events))
	}
}
