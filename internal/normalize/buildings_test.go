package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const buildingsFixture = `Application/Permit Number,Category,Action Type,Value,Issue Date,Final Date,Status,Latitude,Longitude
B1,COMMERCIAL,NEW,2500000,2015-01-01,2016-01-01,Permit Finaled,47.6,-122.3
B2,COMMERCIAL,ADD/ALT,2500000,2015-01-01,2016-01-01,Permit Finaled,47.6,-122.3
B3,COMMERCIAL,NEW,500000,2015-01-01,2016-01-01,Permit Finaled,47.6,-122.3
B4,COMMERCIAL,NEW,2500000,2015-01-01,,Permit Issued,47.6,-122.3
B5,COMMERCIAL,NEW,2500000,2015-01-01,2017-06-01,Permit Finaled,47.6,-122.3
B6,COMMERCIAL,NEW,2500000,2015-01-01,2016-01-01,CANCELLED,47.6,-122.3
B7,COMMERCIAL,NEW,2500000,2016-06-01,2016-01-01,Permit Finaled,47.6,-122.3
B8,MULTIFAMILY,NEW,1800000,2015-03-01,2016-09-01,Permit Finaled,47.61,-122.31
`

func TestCleanBuildings(t *testing.T) {
	got, err := CleanBuildings(strings.NewReader(buildingsFixture), DefaultBuildingOptions())
	require.NoError(t, err)

	assert.Equal(t, BuildingsTable, got.Name)
	assert.Equal(t, BuildingColumns, got.Columns)
	require.Equal(t, 2, got.Len())

	assert.Equal(t,
		[]string{"B1", "COMMERCIAL", "2500000", "2015-01-01", "2016-01-01", "Permit Finaled", "47.6", "-122.3"},
		got.Rows[0])
	assert.Equal(t,
		[]string{"B8", "MULTIFAMILY", "1800000", "2015-03-01", "2016-09-01", "Permit Finaled", "47.61", "-122.31"},
		got.Rows[1])
}

func TestCleanBuildingsValueThresholdExclusive(t *testing.T) {
	// A permit exactly at the threshold is dropped.
	fixture := `Application/Permit Number,Category,Action Type,Value,Issue Date,Final Date,Status,Latitude,Longitude
B1,COMMERCIAL,NEW,1000000,2015-01-01,2016-01-01,Permit Finaled,47.6,-122.3
B2,COMMERCIAL,NEW,1000001,2015-01-01,2016-01-01,Permit Finaled,47.6,-122.3
`
	got, err := CleanBuildings(strings.NewReader(fixture), DefaultBuildingOptions())
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	assert.Equal(t, "B2", got.Rows[0][0])
}

func TestCleanBuildingsAllDropped(t *testing.T) {
	fixture := `Application/Permit Number,Category,Action Type,Value,Issue Date,Final Date,Status,Latitude,Longitude
B1,COMMERCIAL,ADD/ALT,2500000,2015-01-01,2016-01-01,Permit Finaled,47.6,-122.3
`
	_, err := CleanBuildings(strings.NewReader(fixture), DefaultBuildingOptions())
	assert.Error(t, err)
}
