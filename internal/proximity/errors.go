package proximity

import "fmt"

// Sides name the two input datasets in error messages.
const (
	SideCollisions = "collisions"
	SideBuildings  = "buildings"
)

// SchemaError reports an input dataset that violates the join preconditions:
// missing, empty, wrong column set, or an unparseable cell. The join produces
// no output when a SchemaError is returned.
type SchemaError struct {
	Side   string
	Defect string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("proximity: %s input %s", e.Side, e.Defect)
}

// GeometryError reports a record whose coordinates fall outside the valid
// WGS84 ranges. The engine skips such records rather than aborting the batch.
type GeometryError struct {
	Side string
	ID   string
	Lat  float64
	Long float64
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("proximity: %s record %s has out-of-range coordinates (lat=%v, long=%v)",
		e.Side, e.ID, e.Lat, e.Long)
}
