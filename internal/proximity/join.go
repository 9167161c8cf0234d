// Package proximity implements the proximity-join engine: the full cross
// product of cleaned buildings and collisions, filtered to pairs within a
// fixed geodesic radius, classified into before/during/after construction
// exposure buckets, and restricted to a one-year observation window on each
// side of the construction period.
package proximity

import (
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/collidium/collidium-cli/internal/model"
	"github.com/collidium/collidium-cli/internal/table"
)

// Defaults for the join policy.
const (
	DefaultRadiusFt   = 1500
	DefaultWindowDays = 365
)

// Options configures the join.
type Options struct {
	RadiusFt   float64 // proximity radius in feet; default 1500
	WindowDays int     // observation window on each side of construction; default 365
	Workers    int     // outer-loop parallelism; default 1
}

func (o Options) withDefaults() Options {
	if o.RadiusFt <= 0 {
		o.RadiusFt = DefaultRadiusFt
	}
	if o.WindowDays <= 0 {
		o.WindowDays = DefaultWindowDays
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	return o
}

// Result holds the outcome of one proximity-table build.
type Result struct {
	Pairs          []model.ProximityPair
	SkippedRecords int // records dropped for out-of-range coordinates
}

// BuildTable computes the proximity-pair fact rows for the two cleaned
// datasets. Inputs are validated first; any precondition violation returns a
// SchemaError and no output. Records with out-of-range coordinates are
// skipped with a warning rather than aborting the batch. The result is
// ordered by building input order, then collision input order.
func BuildTable(collisions, buildings *table.Table, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	log := zap.L().With(zap.String("component", "proximity"))

	if err := ValidateInputs(collisions, buildings); err != nil {
		return nil, err
	}

	colls, err := parseCollisions(collisions)
	if err != nil {
		return nil, err
	}
	builds, err := parseBuildings(buildings)
	if err != nil {
		return nil, err
	}

	colls, skippedColls := dropInvalidCollisions(colls, log)
	builds, skippedBuilds := dropInvalidBuildings(builds, log)

	perBuilding := make([][]model.ProximityPair, len(builds))

	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for i := range builds {
		g.Go(func() error {
			perBuilding[i] = joinOne(builds[i], colls, opts)
			return nil
		})
	}
	_ = g.Wait() // workers are pure computations and do not fail

	var pairs []model.ProximityPair
	for _, ps := range perBuilding {
		pairs = append(pairs, ps...)
	}

	log.Info("built proximity table",
		zap.Int("buildings", len(builds)),
		zap.Int("collisions", len(colls)),
		zap.Int("pairs", len(pairs)),
		zap.Int("skipped_records", skippedColls+skippedBuilds),
	)
	return &Result{Pairs: pairs, SkippedRecords: skippedColls + skippedBuilds}, nil
}

// joinOne computes all retained pairs for a single building.
func joinOne(b model.Building, colls []model.Collision, opts Options) []model.ProximityPair {
	var out []model.ProximityPair
	for _, c := range colls {
		dist := DistanceFeet(b.Latitude, b.Longitude, c.Latitude, c.Longitude)
		if dist > opts.RadiusFt {
			continue // too far; skip date arithmetic entirely
		}

		before, during, after, days := classify(c, b)
		if days < -opts.WindowDays || days > opts.WindowDays {
			continue
		}

		out = append(out, model.ProximityPair{
			BuildingID:        b.ID,
			CollisionID:       c.ID,
			BuildingLat:       b.Latitude,
			BuildingLong:      b.Longitude,
			BuildingCategory:  b.Category,
			BuildStartDate:    b.IssueDate,
			BuildEndDate:      b.FinalDate,
			CollisionDate:     c.Date,
			CollisionLat:      c.Latitude,
			CollisionLong:     c.Longitude,
			CollisionType:     c.AccidentType,
			CollisionSeverity: strings.ReplaceAll(c.SeverityDesc, " Collision", ""),
			DistanceFt:        dist,
			Before:            before,
			During:            during,
			After:             after,
			DaysFromBuild:     days,
			BaseYear:          b.FinalDate.Year(),
		})
	}
	return out
}

// classify buckets a collision against a building's construction period.
// Exactly one of before, during > 0, after is set. During is annualized as
// 365 over the construction duration in days; a same-day issue/final window
// is clamped to one day to keep the rate finite.
func classify(c model.Collision, b model.Building) (before int, during float64, after int, daysFromBuild int) {
	switch {
	case c.Date.Before(b.IssueDate):
		return 1, 0, 0, -daysBetween(c.Date, b.IssueDate)
	case c.Date.After(b.FinalDate):
		return 0, 0, 1, daysBetween(b.FinalDate, c.Date)
	default:
		duration := daysBetween(b.IssueDate, b.FinalDate)
		if duration < 1 {
			duration = 1
		}
		return 0, 365.0 / float64(duration), 0, 0
	}
}

// daysBetween returns whole days from a to b. Both dates are
// midnight-normalized UTC, so the division is exact.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

func dropInvalidCollisions(colls []model.Collision, log *zap.Logger) ([]model.Collision, int) {
	kept := colls[:0]
	skipped := 0
	for _, c := range colls {
		if !ValidCoordinates(c.Latitude, c.Longitude) {
			skipped++
			gerr := &GeometryError{Side: SideCollisions, ID: c.ID, Lat: c.Latitude, Long: c.Longitude}
			log.Warn("skipping record", zap.Error(gerr))
			continue
		}
		kept = append(kept, c)
	}
	return kept, skipped
}

func dropInvalidBuildings(builds []model.Building, log *zap.Logger) ([]model.Building, int) {
	kept := builds[:0]
	skipped := 0
	for _, b := range builds {
		if !ValidCoordinates(b.Latitude, b.Longitude) {
			skipped++
			gerr := &GeometryError{Side: SideBuildings, ID: b.ID, Lat: b.Latitude, Long: b.Longitude}
			log.Warn("skipping record", zap.Error(gerr))
			continue
		}
		kept = append(kept, b)
	}
	return kept, skipped
}
