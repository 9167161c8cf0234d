package proximity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collidium/collidium-cli/internal/normalize"
	"github.com/collidium/collidium-cli/internal/table"
)

// Test site in central Seattle. An offset of 0.001 degrees latitude is about
// 365 feet; 0.01 degrees is about 3648 feet, well past the default radius.
const (
	siteLat  = "47.6"
	siteLong = "-122.3"
)

func collisionsTable(t *testing.T, rows ...[]string) *table.Table {
	t.Helper()
	out := table.New(normalize.CollisionsTable, normalize.CollisionColumns)
	for _, row := range rows {
		require.NoError(t, out.Append(row))
	}
	return out
}

func buildingsTable(t *testing.T, rows ...[]string) *table.Table {
	t.Helper()
	out := table.New(normalize.BuildingsTable, normalize.BuildingColumns)
	for _, row := range rows {
		require.NoError(t, out.Append(row))
	}
	return out
}

// collisionRow is ordered id, long, lat, datetime, ped, cyc, severity_code,
// severity_desc, accident_type.
func collisionRow(id, long, lat, date string) []string {
	return []string{id, long, lat, date, "0", "0", "2", "Injury Collision", "Vehicle Only"}
}

// buildingRow is ordered id, category, value, issue_date, final_date,
// status, lat, long.
func buildingRow(id, issue, final, lat, long string) []string {
	return []string{id, "COMMERCIAL", "2500000", issue, final, "Permit Finaled", lat, long}
}

func TestBuildTableClassification(t *testing.T) {
	buildings := buildingsTable(t,
		buildingRow("B1", "2016-01-01", "2016-07-01", siteLat, siteLong),
	)
	collisions := collisionsTable(t,
		collisionRow("C-before", siteLong, siteLat, "2015-12-02"), // 30 days before issue
		collisionRow("C-during", siteLong, siteLat, "2016-03-15"),
		collisionRow("C-after", siteLong, siteLat, "2016-07-31"), // 30 days after final
	)

	result, err := BuildTable(collisions, buildings, Options{})
	require.NoError(t, err)
	require.Len(t, result.Pairs, 3)
	assert.Zero(t, result.SkippedRecords)

	before, during, after := result.Pairs[0], result.Pairs[1], result.Pairs[2]

	assert.Equal(t, "C-before", before.CollisionID)
	assert.Equal(t, 1, before.Before)
	assert.Zero(t, before.During)
	assert.Zero(t, before.After)
	assert.Equal(t, -30, before.DaysFromBuild)

	assert.Equal(t, "C-during", during.CollisionID)
	assert.Zero(t, during.Before)
	// 365 annualized over the 182-day construction period.
	assert.InDelta(t, 2.0055, during.During, 0.001)
	assert.Zero(t, during.After)
	assert.Zero(t, during.DaysFromBuild)

	assert.Equal(t, "C-after", after.CollisionID)
	assert.Zero(t, after.Before)
	assert.Zero(t, after.During)
	assert.Equal(t, 1, after.After)
	assert.Equal(t, 30, after.DaysFromBuild)

	for _, p := range result.Pairs {
		assert.Equal(t, "B1", p.BuildingID)
		assert.Equal(t, 2016, p.BaseYear)
		assert.Equal(t, "Injury", p.CollisionSeverity)
		assert.Equal(t, "Vehicle Only", p.CollisionType)
		assert.Zero(t, p.DistanceFt)
	}
}

func TestBuildTableRadiusCutoff(t *testing.T) {
	buildings := buildingsTable(t,
		buildingRow("B1", "2016-01-01", "2016-07-01", siteLat, siteLong),
	)
	collisions := collisionsTable(t,
		collisionRow("C-near", siteLong, "47.601", "2016-03-15"), // ~365 ft
		collisionRow("C-far", siteLong, "47.61", "2016-03-15"),   // ~3648 ft
	)

	result, err := BuildTable(collisions, buildings, Options{})
	require.NoError(t, err)
	require.Len(t, result.Pairs, 1)
	assert.Equal(t, "C-near", result.Pairs[0].CollisionID)
	assert.InDelta(t, 365, result.Pairs[0].DistanceFt, 3)
}

func TestBuildTableObservationWindow(t *testing.T) {
	buildings := buildingsTable(t,
		buildingRow("B1", "2016-01-01", "2016-07-01", siteLat, siteLong),
	)
	collisions := collisionsTable(t,
		collisionRow("C-edge-before", siteLong, siteLat, "2015-01-01"), // exactly 365 days before
		collisionRow("C-too-early", siteLong, siteLat, "2014-12-31"),
		collisionRow("C-edge-after", siteLong, siteLat, "2017-07-01"), // exactly 365 days after
		collisionRow("C-too-late", siteLong, siteLat, "2017-07-02"),
	)

	result, err := BuildTable(collisions, buildings, Options{})
	require.NoError(t, err)
	require.Len(t, result.Pairs, 2)
	assert.Equal(t, "C-edge-before", result.Pairs[0].CollisionID)
	assert.Equal(t, -365, result.Pairs[0].DaysFromBuild)
	assert.Equal(t, "C-edge-after", result.Pairs[1].CollisionID)
	assert.Equal(t, 365, result.Pairs[1].DaysFromBuild)
}

func TestBuildTableSameDayWindowClamped(t *testing.T) {
	buildings := buildingsTable(t,
		buildingRow("B1", "2016-06-01", "2016-06-01", siteLat, siteLong),
	)
	collisions := collisionsTable(t,
		collisionRow("C1", siteLong, siteLat, "2016-06-01"),
	)

	result, err := BuildTable(collisions, buildings, Options{})
	require.NoError(t, err)
	require.Len(t, result.Pairs, 1)
	assert.InDelta(t, 365, result.Pairs[0].During, 1e-9)
}

func TestBuildTableSkipsOutOfRangeCoordinates(t *testing.T) {
	buildings := buildingsTable(t,
		buildingRow("B1", "2016-01-01", "2016-07-01", siteLat, siteLong),
		buildingRow("B-bad", "2016-01-01", "2016-07-01", "91", siteLong),
	)
	collisions := collisionsTable(t,
		collisionRow("C1", siteLong, siteLat, "2016-03-15"),
		collisionRow("C-bad", "-200", siteLat, "2016-03-15"),
	)

	result, err := BuildTable(collisions, buildings, Options{})
	require.NoError(t, err)
	require.Len(t, result.Pairs, 1)
	assert.Equal(t, 2, result.SkippedRecords)
	assert.Equal(t, "B1", result.Pairs[0].BuildingID)
	assert.Equal(t, "C1", result.Pairs[0].CollisionID)
}

func TestBuildTableOrderStableAcrossWorkers(t *testing.T) {
	buildings := buildingsTable(t,
		buildingRow("B1", "2016-01-01", "2016-07-01", siteLat, siteLong),
		buildingRow("B2", "2016-02-01", "2016-08-01", siteLat, siteLong),
		buildingRow("B3", "2016-03-01", "2016-09-01", siteLat, siteLong),
	)
	collisions := collisionsTable(t,
		collisionRow("C1", siteLong, siteLat, "2016-03-15"),
		collisionRow("C2", siteLong, siteLat, "2016-04-15"),
	)

	serial, err := BuildTable(collisions, buildings, Options{Workers: 1})
	require.NoError(t, err)
	parallel, err := BuildTable(collisions, buildings, Options{Workers: 8})
	require.NoError(t, err)

	assert.Equal(t, serial.Pairs, parallel.Pairs)

	// Building-major order: all of B1's pairs precede B2's.
	require.Len(t, serial.Pairs, 6)
	for i, want := range []string{"B1", "B1", "B2", "B2", "B3", "B3"} {
		assert.Equal(t, want, serial.Pairs[i].BuildingID)
	}
}

func TestBuildTableExclusiveBuckets(t *testing.T) {
	buildings := buildingsTable(t,
		buildingRow("B1", "2016-01-01", "2016-07-01", siteLat, siteLong),
	)
	collisions := collisionsTable(t,
		collisionRow("C1", siteLong, siteLat, "2015-09-01"),
		collisionRow("C2", siteLong, siteLat, "2016-01-01"), // on issue date: during
		collisionRow("C3", siteLong, siteLat, "2016-07-01"), // on final date: during
		collisionRow("C4", siteLong, siteLat, "2016-10-01"),
	)

	result, err := BuildTable(collisions, buildings, Options{})
	require.NoError(t, err)
	require.Len(t, result.Pairs, 4)

	for _, p := range result.Pairs {
		buckets := 0
		if p.Before == 1 {
			buckets++
		}
		if p.During > 0 {
			buckets++
		}
		if p.After == 1 {
			buckets++
		}
		assert.Equal(t, 1, buckets, "pair %s/%s must land in exactly one bucket", p.BuildingID, p.CollisionID)
	}
	assert.Equal(t, 1, result.Pairs[0].Before)
	assert.Greater(t, result.Pairs[1].During, 0.0)
	assert.Greater(t, result.Pairs[2].During, 0.0)
	assert.Equal(t, 1, result.Pairs[3].After)
}
