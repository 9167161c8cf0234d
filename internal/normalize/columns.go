// Package normalize cleans the two raw municipal open-data extracts into
// fixed-schema tabular datasets: traffic collisions and building permits.
// Rows with missing, unknown, or out-of-policy values are dropped; surviving
// rows are emitted with the canonical column sets the proximity join expects.
package normalize

// Canonical column names for the cleaned collisions dataset.
const (
	ColCollisionID  = "id"
	ColCollisionLon = "long"
	ColCollisionLat = "lat"
	ColCollisionDt  = "datetime"
	ColPed          = "ped"
	ColCyc          = "cyc"
	ColSeverityCode = "severity_code"
	ColSeverityDesc = "severity_desc"
	ColAccidentType = "accident_type"
)

// Canonical column names for the cleaned buildings dataset.
const (
	ColBuildingID  = "id"
	ColCategory    = "category"
	ColValue       = "value"
	ColIssueDate   = "issue_date"
	ColFinalDate   = "final_date"
	ColStatus      = "status"
	ColBuildingLat = "lat"
	ColBuildingLon = "long"
)

// CollisionColumns is the exact column set of the cleaned collisions table.
var CollisionColumns = []string{
	ColCollisionID, ColCollisionLon, ColCollisionLat, ColCollisionDt,
	ColPed, ColCyc, ColSeverityCode, ColSeverityDesc, ColAccidentType,
}

// BuildingColumns is the exact column set of the cleaned buildings table.
var BuildingColumns = []string{
	ColBuildingID, ColCategory, ColValue, ColIssueDate,
	ColFinalDate, ColStatus, ColBuildingLat, ColBuildingLon,
}

// Persisted table names for the two cleaned datasets.
const (
	CollisionsTable = "collisions"
	BuildingsTable  = "buildings"
)

// DateLayout is the date format used in cleaned tables.
const DateLayout = "2006-01-02"
