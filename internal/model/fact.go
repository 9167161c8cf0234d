package model

// FactTable is the persisted proximity-pair table queried by the
// visualization layer.
const FactTable = "collidium_data"

// FactColumns is the column order of the fact table. It matches the field
// order of ProximityPair.
var FactColumns = []string{
	"building_id",
	"collision_id",
	"building_lat",
	"building_long",
	"building_category",
	"build_start_date",
	"build_end_date",
	"collision_date",
	"collision_lat",
	"collision_long",
	"collision_type",
	"collision_severity",
	"distance_ft",
	"before",
	"during",
	"after",
	"days_from_build",
	"base_year",
}
