package geom

import "sort"

// CollectionResult is the outcome of projecting a point onto a swept segment.
type CollectionResult struct {
	// SqDistance is the squared perpendicular distance from the point to the
	// segment's line.
	SqDistance float64
	// ProjRatio is the fractional projection along the segment. It is not
	// clamped; callers check the [0,1] range via IsCollected.
	ProjRatio float64
}

// IsCollected reports whether the projected point lies on the segment and
// within collectRadius of it.
func (r CollectionResult) IsCollected(collectRadius float64) bool {
	return r.ProjRatio >= 0 && r.ProjRatio <= 1 && r.SqDistance <= collectRadius*collectRadius
}

// TryCollectPoint projects c onto the segment a→b. The second return value is
// false when a == b: a stationary gatherer sweeps nothing and must not
// generate events.
func TryCollectPoint(a, b, c Point2D) (CollectionResult, bool) {
	ux := b.X - a.X
	uy := b.Y - a.Y
	lenSq := ux*ux + uy*uy
	if lenSq == 0 {
		dx := c.X - a.X
		dy := c.Y - a.Y
		return CollectionResult{SqDistance: dx*dx + dy*dy, ProjRatio: 0}, false
	}
	t := ((c.X-a.X)*ux + (c.Y-a.Y)*uy) / lenSq
	dx := c.X - (a.X + t*ux)
	dy := c.Y - (a.Y + t*uy)
	return CollectionResult{SqDistance: dx*dx + dy*dy, ProjRatio: t}, true
}

// Item is a static pickup target: a disk of radius Width around Position.
type Item struct {
	Position Point2D
	Width    float64
}

// Gatherer is a collector sweeping a segment of half-width Width during one
// tick.
type Gatherer struct {
	StartPos Point2D
	EndPos   Point2D
	Width    float64
}

// GatherEvent records a gatherer crossing an item during the tick. Time is
// the fractional position along the gatherer's sweep at which the crossing
// happens.
type GatherEvent struct {
	ItemIndex     int
	GathererIndex int
	SqDistance    float64
	Time          float64
}

// FindGatherEvents returns every (gatherer, item) crossing, ordered by
// ascending Time with ties broken by (gatherer index, item index). This
// ordering is the canonical event order for the session tick.
func FindGatherEvents(items []Item, gatherers []Gatherer) []GatherEvent {
	var events []GatherEvent
	for g, gatherer := range gatherers {
		for i, item := range items {
			res, moving := TryCollectPoint(gatherer.StartPos, gatherer.EndPos, item.Position)
			if !moving || !res.IsCollected(item.Width+gatherer.Width) {
				continue
			}
			events = append(events, GatherEvent{
				ItemIndex:     i,
				GathererIndex: g,
				SqDistance:    res.SqDistance,
				Time:          res.ProjRatio,
			})
		}
	}
	sort.Slice(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		if a.GathererIndex != b.GathererIndex {
			return a.GathererIndex < b.GathererIndex
		}
		return a.ItemIndex < b.ItemIndex
	})
	return events
}
