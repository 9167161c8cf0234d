package proximity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collidium/collidium-cli/internal/normalize"
	"github.com/collidium/collidium-cli/internal/table"
)

func validInputs(t *testing.T) (collisions, buildings *table.Table) {
	t.Helper()
	collisions = collisionsTable(t, collisionRow("C1", siteLong, siteLat, "2016-03-15"))
	buildings = buildingsTable(t, buildingRow("B1", "2016-01-01", "2016-07-01", siteLat, siteLong))
	return collisions, buildings
}

func TestValidateInputsAccepts(t *testing.T) {
	collisions, buildings := validInputs(t)
	assert.NoError(t, ValidateInputs(collisions, buildings))
}

func TestValidateInputsColumnOrderIrrelevant(t *testing.T) {
	collisions, _ := validInputs(t)

	// Same column set, different order.
	buildings := table.New(normalize.BuildingsTable, []string{
		"long", "lat", "status", "final_date", "issue_date", "value", "category", "id",
	})
	require.NoError(t, buildings.Append([]string{
		siteLong, siteLat, "Permit Finaled", "2016-07-01", "2016-01-01", "2500000", "COMMERCIAL", "B1",
	}))

	require.NoError(t, ValidateInputs(collisions, buildings))

	result, err := BuildTable(collisions, buildings, Options{})
	require.NoError(t, err)
	require.Len(t, result.Pairs, 1)
	assert.Equal(t, "B1", result.Pairs[0].BuildingID)
}

func TestValidateInputsRejections(t *testing.T) {
	collisions, buildings := validInputs(t)

	extraCols := table.New(normalize.BuildingsTable, append([]string{"bogus"}, normalize.BuildingColumns...))
	require.NoError(t, extraCols.Append(append([]string{"x"},
		"B1", "COMMERCIAL", "2500000", "2016-01-01", "2016-07-01", "Permit Finaled", siteLat, siteLong)))

	missingCols := table.New(normalize.CollisionsTable, normalize.CollisionColumns[:5])
	require.NoError(t, missingCols.Append([]string{"C1", siteLong, siteLat, "2016-03-15", "0"}))

	tests := []struct {
		name       string
		collisions *table.Table
		buildings  *table.Table
		side       string
		defect     string
	}{
		{"nil buildings", collisions, nil, SideBuildings, "is missing"},
		{"nil collisions", nil, buildings, SideCollisions, "is missing"},
		{"empty buildings", collisions, buildingsTable(t), SideBuildings, "has no rows"},
		{"empty collisions", collisionsTable(t), buildings, SideCollisions, "has no rows"},
		{"extra building column", collisions, extraCols, SideBuildings, "extra: [bogus]"},
		{"missing collision columns", missingCols, buildings, SideCollisions, "missing: [accident_type, cyc, severity_code, severity_desc]"},
		// With both sides defective, buildings is reported.
		{"buildings checked first", nil, nil, SideBuildings, "is missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInputs(tt.collisions, tt.buildings)
			require.Error(t, err)
			var serr *SchemaError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, tt.side, serr.Side)
			assert.Contains(t, serr.Error(), tt.defect)

			// A schema failure must produce no output.
			result, err := BuildTable(tt.collisions, tt.buildings, Options{})
			assert.Error(t, err)
			assert.Nil(t, result)
		})
	}
}

func TestParseRejectsWrongTypes(t *testing.T) {
	_, buildings := validInputs(t)

	tests := []struct {
		name string
		row  []string
		col  string
	}{
		{"bad longitude", collisionRow("C1", "not-a-number", siteLat, "2016-03-15"), "long"},
		{"bad date", collisionRow("C1", siteLong, siteLat, "yesterday"), "datetime"},
		{"bad ped count", []string{"C1", siteLong, siteLat, "2016-03-15", "two", "0", "2", "Injury Collision", "Vehicle Only"}, "ped"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collisions := collisionsTable(t, tt.row)
			result, err := BuildTable(collisions, buildings, Options{})
			require.Error(t, err)
			assert.Nil(t, result)
			var serr *SchemaError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, SideCollisions, serr.Side)
			assert.Contains(t, serr.Error(), "column "+tt.col+" has wrong type")
		})
	}
}
