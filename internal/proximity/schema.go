package proximity

import (
	"fmt"
	"strconv"
	"time"

	"github.com/collidium/collidium-cli/internal/model"
	"github.com/collidium/collidium-cli/internal/normalize"
	"github.com/collidium/collidium-cli/internal/table"
)

// ValidateInputs checks the join preconditions on both cleaned datasets:
// non-nil, non-empty, and exactly the canonical column sets
// (order-independent). It returns a SchemaError naming the offending side on
// the first violation; buildings are checked first.
func ValidateInputs(collisions, buildings *table.Table) error {
	if err := validateSide(SideBuildings, buildings, normalize.BuildingColumns); err != nil {
		return err
	}
	return validateSide(SideCollisions, collisions, normalize.CollisionColumns)
}

func validateSide(side string, t *table.Table, expected []string) error {
	if t == nil {
		return &SchemaError{Side: side, Defect: "is missing"}
	}
	if t.Len() == 0 {
		return &SchemaError{Side: side, Defect: "has no rows"}
	}
	missing, extra := t.ColumnDiff(expected)
	if len(missing) > 0 || len(extra) > 0 {
		return &SchemaError{
			Side: side,
			Defect: fmt.Sprintf("has extra or missing columns (missing: [%s], extra: [%s])",
				table.FormatColumns(missing), table.FormatColumns(extra)),
		}
	}
	return nil
}

// parseCollisions converts a validated collisions table into typed records.
// An unparseable cell is a SchemaError (wrong type), not a skipped row.
func parseCollisions(t *table.Table) ([]model.Collision, error) {
	idx := t.Index()
	records := make([]model.Collision, 0, t.Len())
	for i, row := range t.Rows {
		c := model.Collision{
			ID:           row[idx[normalize.ColCollisionID]],
			SeverityCode: row[idx[normalize.ColSeverityCode]],
			SeverityDesc: row[idx[normalize.ColSeverityDesc]],
			AccidentType: row[idx[normalize.ColAccidentType]],
		}
		var err error
		if c.Longitude, err = parseCell(row, idx, normalize.ColCollisionLon, parseFloatCell); err != nil {
			return nil, typeError(SideCollisions, normalize.ColCollisionLon, i, err)
		}
		if c.Latitude, err = parseCell(row, idx, normalize.ColCollisionLat, parseFloatCell); err != nil {
			return nil, typeError(SideCollisions, normalize.ColCollisionLat, i, err)
		}
		if c.Date, err = parseCell(row, idx, normalize.ColCollisionDt, parseDateCell); err != nil {
			return nil, typeError(SideCollisions, normalize.ColCollisionDt, i, err)
		}
		if c.PedCount, err = parseCell(row, idx, normalize.ColPed, parseIntCell); err != nil {
			return nil, typeError(SideCollisions, normalize.ColPed, i, err)
		}
		if c.CycCount, err = parseCell(row, idx, normalize.ColCyc, parseIntCell); err != nil {
			return nil, typeError(SideCollisions, normalize.ColCyc, i, err)
		}
		records = append(records, c)
	}
	return records, nil
}

// parseBuildings converts a validated buildings table into typed records.
func parseBuildings(t *table.Table) ([]model.Building, error) {
	idx := t.Index()
	records := make([]model.Building, 0, t.Len())
	for i, row := range t.Rows {
		b := model.Building{
			ID:       row[idx[normalize.ColBuildingID]],
			Category: row[idx[normalize.ColCategory]],
			Status:   row[idx[normalize.ColStatus]],
		}
		var err error
		if b.Value, err = parseCell(row, idx, normalize.ColValue, parseFloatCell); err != nil {
			return nil, typeError(SideBuildings, normalize.ColValue, i, err)
		}
		if b.IssueDate, err = parseCell(row, idx, normalize.ColIssueDate, parseDateCell); err != nil {
			return nil, typeError(SideBuildings, normalize.ColIssueDate, i, err)
		}
		if b.FinalDate, err = parseCell(row, idx, normalize.ColFinalDate, parseDateCell); err != nil {
			return nil, typeError(SideBuildings, normalize.ColFinalDate, i, err)
		}
		if b.Latitude, err = parseCell(row, idx, normalize.ColBuildingLat, parseFloatCell); err != nil {
			return nil, typeError(SideBuildings, normalize.ColBuildingLat, i, err)
		}
		if b.Longitude, err = parseCell(row, idx, normalize.ColBuildingLon, parseFloatCell); err != nil {
			return nil, typeError(SideBuildings, normalize.ColBuildingLon, i, err)
		}
		records = append(records, b)
	}
	return records, nil
}

func parseCell[T any](row []string, idx map[string]int, col string, parse func(string) (T, error)) (T, error) {
	return parse(row[idx[col]])
}

func parseFloatCell(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

func parseIntCell(s string) (int, error) {
	return strconv.Atoi(s)
}

func parseDateCell(s string) (time.Time, error) {
	return time.Parse(normalize.DateLayout, s)
}

func typeError(side, col string, row int, err error) *SchemaError {
	return &SchemaError{
		Side:   side,
		Defect: fmt.Sprintf("column %s has wrong type in row %d: %v", col, row, err),
	}
}
