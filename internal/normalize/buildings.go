package normalize

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/collidium/collidium-cli/internal/table"
)

// Raw column names of the building-permits extract (Seattle Open Data).
const (
	rawPermitNumber = "Application/Permit Number"
	rawCategory     = "Category"
	rawActionType   = "Action Type"
	rawValue        = "Value"
	rawIssueDate    = "Issue Date"
	rawFinalDate    = "Final Date"
	rawStatus       = "Status"
	rawBuildingLat  = "Latitude"
	rawBuildingLon  = "Longitude"
)

const (
	actionNew       = "NEW"
	statusCancelled = "CANCELLED"
)

// BuildingOptions configures permit cleaning.
type BuildingOptions struct {
	// MinValue keeps only projects above this dollar value, restricting the
	// dataset to large construction.
	MinValue float64
	// FinalBefore drops permits finalized on or after this date; permits past
	// the collision coverage horizon have no usable after-window.
	FinalBefore time.Time
}

// DefaultBuildingOptions returns the standard cleaning policy.
func DefaultBuildingOptions() BuildingOptions {
	return BuildingOptions{
		MinValue:    1_000_000,
		FinalBefore: time.Date(2017, time.April, 1, 0, 0, 0, 0, time.UTC),
	}
}

// CleanBuildings reads the raw building-permits CSV and produces the cleaned
// buildings table. Only new-construction permits above the value threshold
// with both issue and final dates, finalized before the coverage horizon, and
// not cancelled survive.
func CleanBuildings(r io.Reader, opts BuildingOptions) (*table.Table, error) {
	log := zap.L().With(zap.String("dataset", BuildingsTable))

	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "normalize: read buildings header")
	}
	colIdx := mapColumns(header)

	out := table.New(BuildingsTable, BuildingColumns)
	var total, dropped int

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			dropped++
			continue // skip malformed rows
		}
		total++

		row, ok := cleanBuildingRow(record, colIdx, opts)
		if !ok {
			dropped++
			continue
		}
		if err := out.Append(row); err != nil {
			return nil, err
		}
	}

	if out.Len() == 0 {
		return nil, eris.New("normalize: no permit rows survived cleaning")
	}

	log.Info("cleaned buildings",
		zap.Int("raw_rows", total),
		zap.Int("kept", out.Len()),
		zap.Int("dropped", dropped),
	)
	return out, nil
}

func cleanBuildingRow(record []string, colIdx map[string]int, opts BuildingOptions) ([]string, bool) {
	if getCol(record, colIdx, rawActionType) != actionNew {
		return nil, false
	}
	if getCol(record, colIdx, rawStatus) == statusCancelled {
		return nil, false
	}

	id := getCol(record, colIdx, rawPermitNumber)
	category := getCol(record, colIdx, rawCategory)
	status := getCol(record, colIdx, rawStatus)
	if id == "" || category == "" || status == "" {
		return nil, false
	}

	value, ok := parseFloat(getCol(record, colIdx, rawValue))
	if !ok || value <= opts.MinValue {
		return nil, false
	}

	issue, ok := parsePermitDate(getCol(record, colIdx, rawIssueDate))
	if !ok {
		return nil, false
	}
	final, ok := parsePermitDate(getCol(record, colIdx, rawFinalDate))
	if !ok || !final.Before(opts.FinalBefore) {
		return nil, false
	}
	if final.Before(issue) {
		return nil, false
	}

	lat, ok := parseFloat(getCol(record, colIdx, rawBuildingLat))
	if !ok {
		return nil, false
	}
	lon, ok := parseFloat(getCol(record, colIdx, rawBuildingLon))
	if !ok {
		return nil, false
	}

	return []string{
		id,
		category,
		strconv.FormatFloat(value, 'f', -1, 64),
		issue.Format(DateLayout),
		final.Format(DateLayout),
		status,
		formatFloat(lat),
		formatFloat(lon),
	}, true
}
