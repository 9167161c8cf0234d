package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collidium/collidium-cli/internal/model"
	"github.com/collidium/collidium-cli/internal/normalize"
	"github.com/collidium/collidium-cli/internal/proximity"
	"github.com/collidium/collidium-cli/internal/query"
)

// Full pass through the pipeline: clean both extracts, persist them, rebuild
// the fact table from the stored datasets, and aggregate.
func TestPipelineEndToEnd(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	rawCollisions := `objectid,X,Y,incdttm,pedcount,pedcylcount,severitycode,severitydesc
1,-122.3,47.6,12/2/2015 8:00:00 AM,0,0,2,Injury Collision
2,-122.3,47.6,3/15/2016,1,0,3,Serious Injury Collision
3,-122.3,47.6,7/31/2016,0,0,2,Injury Collision
4,-122.3,47.61,3/15/2016,0,0,2,Injury Collision
`
	rawPermits := `Application/Permit Number,Category,Action Type,Value,Issue Date,Final Date,Status,Latitude,Longitude
B1,COMMERCIAL,NEW,2500000,2016-01-01,2016-07-01,Permit Finaled,47.6,-122.3
`

	collisions, err := normalize.CleanCollisions(strings.NewReader(rawCollisions), normalize.DefaultCollisionOptions())
	require.NoError(t, err)
	buildings, err := normalize.CleanBuildings(strings.NewReader(rawPermits), normalize.DefaultBuildingOptions())
	require.NoError(t, err)

	require.NoError(t, st.ReplaceTable(ctx, collisions))
	require.NoError(t, st.ReplaceTable(ctx, buildings))

	storedCollisions, err := st.LoadTable(ctx, normalize.CollisionsTable, normalize.CollisionColumns)
	require.NoError(t, err)
	storedBuildings, err := st.LoadTable(ctx, normalize.BuildingsTable, normalize.BuildingColumns)
	require.NoError(t, err)

	run, err := st.StartBuildRun(ctx)
	require.NoError(t, err)

	result, err := proximity.BuildTable(storedCollisions, storedBuildings, proximity.Options{})
	require.NoError(t, err)
	// Collision 4 is about a kilometer north, outside the radius.
	require.Len(t, result.Pairs, 3)

	require.NoError(t, st.ReplacePairs(ctx, result.Pairs))

	run.Status = model.RunStatusComplete
	run.Collisions = storedCollisions.Len()
	run.Buildings = storedBuildings.Len()
	run.Pairs = len(result.Pairs)
	require.NoError(t, st.FinishBuildRun(ctx, run))

	b, err := query.NewBuilder()
	require.NoError(t, err)
	qstring, err := b.Render()
	require.NoError(t, err)

	counts, err := st.QueryCounts(ctx, qstring)
	require.NoError(t, err)
	require.Len(t, counts, 1)

	site := counts[0]
	assert.Equal(t, "B1", site.BuildingID)
	assert.InDelta(t, 1, site.Before, 1e-9)
	assert.InDelta(t, 365.0/182, site.During, 1e-6)
	assert.InDelta(t, 1, site.After, 1e-9)

	// Severity filter narrows to the single serious-injury pair.
	require.NoError(t, b.SetSeverity(query.One("Serious Injury")))
	qstring, err = b.Render()
	require.NoError(t, err)
	counts, err = st.QueryCounts(ctx, qstring)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.InDelta(t, 0, counts[0].Before, 1e-9)
	assert.Greater(t, counts[0].During, 0.0)
}
