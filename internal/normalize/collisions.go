package normalize

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/collidium/collidium-cli/internal/model"
	"github.com/collidium/collidium-cli/internal/table"
)

// Raw column names of the collisions extract (Seattle Open Data).
const (
	rawCollisionID   = "objectid"
	rawCollisionLon  = "X"
	rawCollisionLat  = "Y"
	rawCollisionTime = "incdttm"
	rawPedCount      = "pedcount"
	rawCycCount      = "pedcylcount"
	rawSeverityCode  = "severitycode"
	rawSeverityDesc  = "severitydesc"
)

// severityUnknown marks collision rows with no usable severity information.
const severityUnknown = "Unknown"

// CollisionOptions configures collision cleaning.
type CollisionOptions struct {
	// MinDate drops collisions on or before this date. The permit extract
	// starts in 2014, so earlier collisions carry no construction signal.
	MinDate time.Time
}

// DefaultCollisionOptions returns the standard cleaning policy.
func DefaultCollisionOptions() CollisionOptions {
	return CollisionOptions{MinDate: time.Date(2013, time.January, 1, 0, 0, 0, 0, time.UTC)}
}

// CleanCollisions reads the raw collisions CSV and produces the cleaned
// collisions table. Rows with any missing or malformed field, rows at or
// before the minimum date, and rows with unknown severity are dropped.
func CleanCollisions(r io.Reader, opts CollisionOptions) (*table.Table, error) {
	log := zap.L().With(zap.String("dataset", CollisionsTable))

	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "normalize: read collisions header")
	}
	colIdx := mapColumns(header)

	out := table.New(CollisionsTable, CollisionColumns)
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

		row, ok := cleanCollisionRow(record, colIdx, opts)
		if !ok {
			dropped++
			continue
		}
		if err := out.Append(row); err != nil {
			return nil, err
		}
	}

	if out.Len() == 0 {
		return nil, eris.New("normalize: no collision rows survived cleaning")
	}

	log.Info("cleaned collisions",
		zap.Int("raw_rows", total),
		zap.Int("kept", out.Len()),
		zap.Int("dropped", dropped),
	)
	return out, nil
}

func cleanCollisionRow(record []string, colIdx map[string]int, opts CollisionOptions) ([]string, bool) {
	id := getCol(record, colIdx, rawCollisionID)
	if id == "" {
		return nil, false
	}

	lon, ok := parseFloat(getCol(record, colIdx, rawCollisionLon))
	if !ok {
		return nil, false
	}
	lat, ok := parseFloat(getCol(record, colIdx, rawCollisionLat))
	if !ok {
		return nil, false
	}

	date, ok := parseCollisionDate(getCol(record, colIdx, rawCollisionTime))
	if !ok || !date.After(opts.MinDate) {
		return nil, false
	}

	ped, ok := parseInt(getCol(record, colIdx, rawPedCount))
	if !ok || ped < 0 {
		return nil, false
	}
	cyc, ok := parseInt(getCol(record, colIdx, rawCycCount))
	if !ok || cyc < 0 {
		return nil, false
	}

	code := getCol(record, colIdx, rawSeverityCode)
	desc := getCol(record, colIdx, rawSeverityDesc)
	if code == "" || desc == "" || desc == severityUnknown {
		return nil, false
	}

	return []string{
		id,
		formatFloat(lon),
		formatFloat(lat),
		date.Format(DateLayout),
		strconv.Itoa(ped),
		strconv.Itoa(cyc),
		code,
		desc,
		model.DeriveAccidentType(ped, cyc),
	}, true
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}
