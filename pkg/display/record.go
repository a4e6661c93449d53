package display

import (
	"context"
	"fmt"
	"time"
)

// Record is a single reading to show: one text line per row and one ratio
// per gauge.
type Record struct {
	Away      string
	AwayRatio float64
	Home      string
	HomeRatio float64
}

// String implements fmt.Stringer.
func (r Record) String() string {
	return fmt.Sprintf("%s (%.3f) at %s (%.3f)", r.Away, r.AwayRatio, r.Home, r.HomeRatio)
}

// Source provides the ordered records to show.
type Source interface {
	Fetch(ctx context.Context) ([]Record, error)
}

// SourceFunc is func form of Source.
type SourceFunc func(ctx context.Context) ([]Record, error)

// Fetch implements Source.
func (f SourceFunc) Fetch(ctx context.Context) ([]Record, error) {
	return f(ctx)
}

// Static is a Source always returning the same records.
type Static []Record

// Fetch implements Source.
func (s Static) Fetch(context.Context) ([]Record, error) {
	return []Record(s), nil
}

// Variant selects how long a fetched record list is shown before it is
// refreshed.
type Variant struct {
	Name   string
	Budget time.Duration
}

// Predefined variants.
var (
	Scores = Variant{Name: "scores", Budget: 180 * time.Second}
	Track  = Variant{Name: "track", Budget: 60 * time.Second}
)

// VariantByName looks up a predefined variant.
func VariantByName(name string) (Variant, error) {
	switch name {
	case Scores.Name:
		return Scores, nil
	case Track.Name:
		return Track, nil
	}
	return Variant{}, fmt.Errorf("unknown variant %q", name)
}
