// Package query builds validated aggregation queries over the proximity-pair
// fact table. Every filter attribute is checked against a static allowed-value
// set both when it is set and again at render time, so a rendered query string
// can only contain vetted literals.
package query

import (
	"fmt"
	"math"
	"strings"

	"github.com/collidium/collidium-cli/internal/model"
)

// Attribute bounds and defaults.
const (
	MinRadiusFt       = 1
	MaxRadiusFt       = 1500
	MinDurationMonths = 1
	MaxDurationMonths = 12
	DefaultBaseYear   = 2016

	// daysPerMonth converts a duration in months to a day window.
	daysPerMonth = 30.4167
)

// Attribute names used in validation errors.
const (
	AttrCategory = "building_category"
	AttrRadius   = "radius_ft"
	AttrBaseYear = "base_year"
	AttrDuration = "duration_months"
	AttrSeverity = "collision_severity"
	AttrType     = "collision_type"
)

// Allowed values for the string-valued attributes.
var (
	Categories = []string{
		"COMMERCIAL", "MULTIFAMILY", "INDUSTRIAL", "INSTITUTIONAL", "SINGLE FAMILY / DUPLEX",
	}
	Severities = []string{
		"Fatality", "Serious Injury", "Injury", "Property Damage Only",
	}
	CollisionTypes = []string{
		model.TypeVehicleOnly, model.TypeBikePedestrian,
	}
)

// DefaultBaseYears is the standard valid base-year set, bounded by the
// coverage of the two source extracts.
var DefaultBaseYears = []int{2014, 2015, 2016, 2017}

// Builder holds the six query filters and renders them into a single
// aggregation query string. Setters validate eagerly and leave the builder
// unchanged on error; Render re-validates everything before producing output.
type Builder struct {
	category       Filter
	radiusFt       int
	baseYear       int
	durationMonths int
	severity       Filter
	collisionType  Filter

	validYears []int
}

// Option adjusts builder construction.
type Option func(*Builder)

// WithValidYears overrides the allowed base-year set.
func WithValidYears(years []int) Option {
	return func(b *Builder) {
		b.validYears = years
	}
}

// NewBuilder creates a builder with the default filters (everything
// unfiltered, full radius, twelve-month exposure) and renders once so bad
// defaults fail at construction.
func NewBuilder(opts ...Option) (*Builder, error) {
	b := &Builder{
		category:       All(),
		radiusFt:       MaxRadiusFt,
		baseYear:       DefaultBaseYear,
		durationMonths: MaxDurationMonths,
		severity:       All(),
		collisionType:  All(),
		validYears:     DefaultBaseYears,
	}
	for _, opt := range opts {
		opt(b)
	}
	if _, err := b.Render(); err != nil {
		return nil, err
	}
	return b, nil
}

// SetCategory sets the building-category filter.
func (b *Builder) SetCategory(f Filter) error {
	if err := f.validate(AttrCategory, Categories); err != nil {
		return err
	}
	b.category = f
	return nil
}

// SetRadius sets the proximity radius in feet.
func (b *Builder) SetRadius(ft int) error {
	if err := validateRadius(ft); err != nil {
		return err
	}
	b.radiusFt = ft
	return nil
}

// SetBaseYear sets the construction-completion year to analyze.
func (b *Builder) SetBaseYear(year int) error {
	if err := validateBaseYear(year, b.validYears); err != nil {
		return err
	}
	b.baseYear = year
	return nil
}

// SetDuration sets the exposure duration in months.
func (b *Builder) SetDuration(months int) error {
	if err := validateDuration(months); err != nil {
		return err
	}
	b.durationMonths = months
	return nil
}

// SetSeverity sets the collision-severity filter.
func (b *Builder) SetSeverity(f Filter) error {
	if err := f.validate(AttrSeverity, Severities); err != nil {
		return err
	}
	b.severity = f
	return nil
}

// SetCollisionType sets the collision-type filter.
func (b *Builder) SetCollisionType(f Filter) error {
	if err := f.validate(AttrType, CollisionTypes); err != nil {
		return err
	}
	b.collisionType = f
	return nil
}

// Getters mirror the setters.

func (b *Builder) Category() Filter      { return b.category }
func (b *Builder) Radius() int           { return b.radiusFt }
func (b *Builder) BaseYear() int         { return b.baseYear }
func (b *Builder) Duration() int         { return b.durationMonths }
func (b *Builder) Severity() Filter      { return b.severity }
func (b *Builder) CollisionType() Filter { return b.collisionType }

// Render produces the aggregation query: per-building before/during/after
// sums over the fact table, filtered by radius, base year, and the optional
// attribute filters, with the during sum scaled to the requested exposure
// duration. Rendering is deterministic and has no side effects.
func (b *Builder) Render() (string, error) {
	if err := b.validateAll(); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("SELECT building_id, building_lat, building_long, ")
	sb.WriteString("SUM(before) AS before, ")
	fmt.Fprintf(&sb, "SUM(during)*%f AS during, ", float64(b.durationMonths)/12)
	sb.WriteString("SUM(after) AS after ")
	fmt.Fprintf(&sb, "FROM %s ", model.FactTable)
	fmt.Fprintf(&sb, "WHERE distance_ft < %d ", b.radiusFt)
	fmt.Fprintf(&sb, "AND base_year = %d ", b.baseYear)

	if b.durationMonths != MaxDurationMonths {
		window := int(math.Round(daysPerMonth * float64(b.durationMonths)))
		fmt.Fprintf(&sb, "AND (days_from_build BETWEEN 0 AND %d OR days_from_build BETWEEN -%d AND -1) ",
			window, window)
	}

	sb.WriteString(b.category.clause(AttrCategory))
	sb.WriteString(b.severity.clause(AttrSeverity))
	sb.WriteString(b.collisionType.clause(AttrType))

	sb.WriteString("GROUP BY building_id, building_lat, building_long")
	return sb.String(), nil
}

// validateAll re-runs every per-attribute validator against the stored
// values, mirroring the checks done at set time.
func (b *Builder) validateAll() error {
	if err := validateRadius(b.radiusFt); err != nil {
		return err
	}
	if err := validateDuration(b.durationMonths); err != nil {
		return err
	}
	if err := validateBaseYear(b.baseYear, b.validYears); err != nil {
		return err
	}
	if err := b.category.validate(AttrCategory, Categories); err != nil {
		return err
	}
	if err := b.severity.validate(AttrSeverity, Severities); err != nil {
		return err
	}
	return b.collisionType.validate(AttrType, CollisionTypes)
}

func validateRadius(ft int) error {
	if ft < MinRadiusFt || ft > MaxRadiusFt {
		return &ValidationError{
			Attr:   AttrRadius,
			Reason: fmt.Sprintf("should be an integer between %d and %d, got %d", MinRadiusFt, MaxRadiusFt, ft),
		}
	}
	return nil
}

func validateDuration(months int) error {
	if months < MinDurationMonths || months > MaxDurationMonths {
		return &ValidationError{
			Attr:   AttrDuration,
			Reason: fmt.Sprintf("should be an integer between %d and %d months, got %d", MinDurationMonths, MaxDurationMonths, months),
		}
	}
	return nil
}

func validateBaseYear(year int, valid []int) error {
	for _, y := range valid {
		if y == year {
			return nil
		}
	}
	return &ValidationError{
		Attr:   AttrBaseYear,
		Reason: fmt.Sprintf("year %d is not in the valid set %v", year, valid),
	}
}
