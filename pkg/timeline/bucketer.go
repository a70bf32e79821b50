// Package timeline lays capabilities out on a recency timeline: each
// capability falls into an age bucket and gets a deterministic grid
// position inside it, with its tools arranged in a small nested sub-grid.
//
// The reference time is an explicit input, so re-running the bucketer with
// identical arguments always reproduces the same positions.
package timeline

import (
	"math"
	"sort"
	"time"

	"github.com/Casys-AI/capgraph/pkg/hierarchy"
)

// Bucket is one recency band. Buckets are evaluated in declaration order;
// a capability with no last-used timestamp has infinite age and lands in
// BucketOlder.
type Bucket string

const (
	BucketToday     Bucket = "today"      // age < 1 day
	BucketThisWeek  Bucket = "this_week"  // age < 7 days
	BucketThisMonth Bucket = "this_month" // age < 30 days
	BucketOlder     Bucket = "older"
)

// bucketOrder fixes the vertical ordering of bands, newest first.
var bucketOrder = []Bucket{BucketToday, BucketThisWeek, BucketThisMonth, BucketOlder}

// Label returns the human-readable separator text for the bucket.
func (b Bucket) Label() string {
	switch b {
	case BucketToday:
		return "Today"
	case BucketThisWeek:
		return "This week"
	case BucketThisMonth:
		return "This month"
	default:
		return "Older"
	}
}

// Classify returns the bucket for a last-used timestamp relative to now.
// A nil timestamp is treated as infinitely old.
func Classify(lastUsed *time.Time, now time.Time) Bucket {
	if lastUsed == nil {
		return BucketOlder
	}
	age := now.Sub(*lastUsed)
	switch {
	case age < 24*time.Hour:
		return BucketToday
	case age < 7*24*time.Hour:
		return BucketThisWeek
	case age < 30*24*time.Hour:
		return BucketThisMonth
	default:
		return BucketOlder
	}
}

// Options controls card geometry. Zero values take defaults.
type Options struct {
	ContainerWidth  float64
	CardWidth       float64
	CardHeight      float64
	GapX            float64
	GapY            float64
	Padding         float64
	SeparatorHeight float64
}

func (o Options) withDefaults() Options {
	if o.ContainerWidth <= 0 {
		o.ContainerWidth = 1200
	}
	if o.CardWidth <= 0 {
		o.CardWidth = 180
	}
	if o.CardHeight <= 0 {
		o.CardHeight = 120
	}
	if o.GapX <= 0 {
		o.GapX = 16
	}
	if o.GapY <= 0 {
		o.GapY = 16
	}
	if o.Padding <= 0 {
		o.Padding = 24
	}
	if o.SeparatorHeight <= 0 {
		o.SeparatorHeight = 36
	}
	return o
}

// PlacedTool is a tool instance offset relative to its parent capability's
// origin.
type PlacedTool struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// PlacedCapability is one capability card on the timeline.
type PlacedCapability struct {
	ID     string       `json:"id"`
	Bucket Bucket       `json:"bucket"`
	Col    int          `json:"col"`
	Row    int          `json:"row"`
	X      float64      `json:"x"`
	Y      float64      `json:"y"`
	Tools  []PlacedTool `json:"tools,omitempty"`
}

// Separator labels the start of a bucket band, positioned just above the
// bucket's first row.
type Separator struct {
	Bucket Bucket  `json:"bucket"`
	Label  string  `json:"label"`
	Y      float64 `json:"y"`
}

// Layout is the full timeline arrangement.
type Layout struct {
	Separators   []Separator        `json:"separators"`
	Capabilities []PlacedCapability `json:"capabilities"`
	Width        float64            `json:"width"`
	Height       float64            `json:"height"`
}

// BuildLayout buckets the capabilities by recency and assigns grid
// positions. Within a bucket, capabilities are ordered most recently used
// first with id as the tiebreaker; empty buckets emit no separator.
func BuildLayout(caps []*hierarchy.CapabilityNode, now time.Time, opts Options) Layout {
	opts = opts.withDefaults()
	layout := Layout{Width: opts.ContainerWidth}

	columns := int(opts.ContainerWidth / opts.CardWidth)
	if columns < 1 {
		columns = 1
	}

	byBucket := make(map[Bucket][]*hierarchy.CapabilityNode, len(bucketOrder))
	for _, c := range caps {
		if c == nil {
			continue
		}
		b := Classify(c.Node.LastUsed, now)
		byBucket[b] = append(byBucket[b], c)
	}

	y := opts.Padding
	for _, b := range bucketOrder {
		members := byBucket[b]
		if len(members) == 0 {
			continue
		}
		sort.Slice(members, func(i, j int) bool {
			ti, tj := members[i].Node.LastUsed, members[j].Node.LastUsed
			switch {
			case ti != nil && tj != nil && !ti.Equal(*tj):
				return ti.After(*tj)
			case ti != nil && tj == nil:
				return true
			case ti == nil && tj != nil:
				return false
			}
			return members[i].Node.ID < members[j].Node.ID
		})

		layout.Separators = append(layout.Separators, Separator{
			Bucket: b,
			Label:  b.Label(),
			Y:      y,
		})
		y += opts.SeparatorHeight

		rows := 0
		for idx, c := range members {
			col := idx % columns
			row := idx / columns
			if row+1 > rows {
				rows = row + 1
			}
			placed := PlacedCapability{
				ID:     c.Node.ID,
				Bucket: b,
				Col:    col,
				Row:    row,
				X:      opts.Padding + float64(col)*(opts.CardWidth+opts.GapX),
				Y:      y + float64(row)*(opts.CardHeight+opts.GapY),
				Tools:  placeTools(c, opts),
			}
			layout.Capabilities = append(layout.Capabilities, placed)
		}
		y += float64(rows) * (opts.CardHeight + opts.GapY)
	}

	layout.Height = y + opts.Padding
	return layout
}

// placeTools arranges a capability's tool instances in a sqrt-sized
// sub-grid inside the card, offsets relative to the card origin.
func placeTools(c *hierarchy.CapabilityNode, opts Options) []PlacedTool {
	n := len(c.Tools)
	if n == 0 {
		return nil
	}
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	inset := 12.0
	cellW := (opts.CardWidth - 2*inset) / float64(cols)
	rowCount := (n + cols - 1) / cols
	cellH := (opts.CardHeight - 2*inset) / float64(rowCount)

	placed := make([]PlacedTool, 0, n)
	for i, t := range c.Tools {
		placed = append(placed, PlacedTool{
			ID: t.ID,
			X:  inset + float64(i%cols)*cellW,
			Y:  inset + float64(i/cols)*cellH,
		})
	}
	return placed
}
