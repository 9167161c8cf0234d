// Package export renders queried per-site collision counts for downstream
// visualization tools. Four formats are supported: an aligned text table for
// terminals, CSV, GeoJSON (one point feature per building site), and XLSX.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/collidium/collidium-cli/internal/model"
)

// Format names accepted by Write.
const (
	FormatTable   = "table"
	FormatCSV     = "csv"
	FormatGeoJSON = "geojson"
	FormatXLSX    = "xlsx"
)

var countsHeader = []string{"building_id", "building_lat", "building_long", "before", "during", "after"}

// Write renders counts in the named format.
func Write(w io.Writer, format string, counts []model.SiteCounts) error {
	switch format {
	case FormatTable, "":
		return WriteTable(w, counts)
	case FormatCSV:
		return WriteCSV(w, counts)
	case FormatGeoJSON:
		return WriteGeoJSON(w, counts)
	case FormatXLSX:
		return WriteXLSX(w, counts)
	default:
		return eris.Errorf("export: unknown format %q", format)
	}
}

// WriteTable renders counts as an aligned text table.
func WriteTable(w io.Writer, counts []model.SiteCounts) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BUILDING\tLAT\tLONG\tBEFORE\tDURING\tAFTER")
	for _, c := range counts {
		fmt.Fprintf(tw, "%s\t%.6f\t%.6f\t%s\t%s\t%s\n",
			c.BuildingID, c.Lat, c.Long,
			formatCount(c.Before), formatCount(c.During), formatCount(c.After))
	}
	return eris.Wrap(tw.Flush(), "export: flush table")
}

// WriteCSV renders counts as CSV with a header row.
func WriteCSV(w io.Writer, counts []model.SiteCounts) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(countsHeader); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, c := range counts {
		row := []string{
			c.BuildingID,
			strconv.FormatFloat(c.Lat, 'f', -1, 64),
			strconv.FormatFloat(c.Long, 'f', -1, 64),
			formatCount(c.Before),
			formatCount(c.During),
			formatCount(c.After),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteGeoJSON renders counts as a FeatureCollection of point features in
// WGS84 longitude/latitude order.
func WriteGeoJSON(w io.Writer, counts []model.SiteCounts) error {
	features := make([]*geojson.Feature, 0, len(counts))
	for _, c := range counts {
		pt := geom.NewPointFlat(geom.XY, []float64{c.Long, c.Lat}).SetSRID(4326)
		features = append(features, &geojson.Feature{
			ID:       c.BuildingID,
			Geometry: pt,
			Properties: map[string]any{
				"building_id": c.BuildingID,
				"before":      c.Before,
				"during":      c.During,
				"after":       c.After,
			},
		})
	}
	fc := geojson.FeatureCollection{Features: features}

	enc := json.NewEncoder(w)
	return eris.Wrap(enc.Encode(&fc), "export: encode geojson")
}

// WriteXLSX renders counts as a single-sheet workbook.
func WriteXLSX(w io.Writer, counts []model.SiteCounts) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("counts")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range countsHeader {
		header.AddCell().Value = col
	}
	for _, c := range counts {
		row := sheet.AddRow()
		row.AddCell().Value = c.BuildingID
		row.AddCell().SetFloat(c.Lat)
		row.AddCell().SetFloat(c.Long)
		row.AddCell().SetFloat(c.Before)
		row.AddCell().SetFloat(c.During)
		row.AddCell().SetFloat(c.After)
	}

	return eris.Wrap(f.Write(w), "export: write xlsx")
}

// formatCount trims trailing zeros so whole counts print without decimals.
func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
