// Package model defines the domain records shared across the pipeline:
// cleaned collision and building-permit observations, the proximity pair
// fact rows they join into, and query result rows.
package model

import "time"

// Accident type labels derived from pedestrian/cyclist involvement.
const (
	TypeBikePedestrian = "Bike/Pedestrian"
	TypeVehicleOnly    = "Vehicle Only"
)

// DeriveAccidentType labels a collision from its pedestrian and cyclist
// counts: any involvement makes it Bike/Pedestrian, otherwise Vehicle Only.
func DeriveAccidentType(ped, cyc int) string {
	if ped+cyc > 0 {
		return TypeBikePedestrian
	}
	return TypeVehicleOnly
}

// Collision is one cleaned collision observation. Date carries no
// time-of-day component.
type Collision struct {
	ID           string
	Longitude    float64
	Latitude     float64
	Date         time.Time
	PedCount     int
	CycCount     int
	SeverityCode string
	SeverityDesc string
	AccidentType string
}

// Building is one cleaned building-permit observation for a large new
// construction project.
type Building struct {
	ID        string
	Category  string
	Value     float64
	IssueDate time.Time
	FinalDate time.Time
	Status    string
	Latitude  float64
	Longitude float64
}

// ProximityPair is one fact row: a (building, collision) combination within
// the proximity radius and the one-year observation window around the
// building's construction period.
//
// Exactly one of Before == 1, During > 0, After == 1 holds. During is
// annualized: 365 divided by the construction duration in days, so summed
// during-counts are comparable across construction periods of different
// lengths.
type ProximityPair struct {
	BuildingID        string
	CollisionID       string
	BuildingLat       float64
	BuildingLong      float64
	BuildingCategory  string
	BuildStartDate    time.Time
	BuildEndDate      time.Time
	CollisionDate     time.Time
	CollisionLat      float64
	CollisionLong     float64
	CollisionType     string
	CollisionSeverity string
	DistanceFt        float64
	Before            int
	During            float64
	After             int
	DaysFromBuild     int
	BaseYear          int
}

// SiteCounts is one aggregated query result row: collision counts around a
// single building, bucketed by construction exposure. BuildingID is unique
// within a result set.
type SiteCounts struct {
	BuildingID string
	Lat        float64
	Long       float64
	Before     float64
	During     float64
	After      float64
}
