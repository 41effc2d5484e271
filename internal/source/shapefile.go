package source

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/firescope/wildfire-analytics/internal/domain"
	shp "github.com/jonas-p/go-shp"
)

// DecodeShapefile reads point shapes and their DBF attributes from a local
// ESRI shapefile. Non-point shapes are skipped. The .dbf and .shx sidecars
// must sit next to the .shp file, so shapefile sources are local paths only.
func DecodeShapefile(path string) ([]domain.RawFireReport, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile: %w", err)
	}
	defer reader.Close()

	colIdx := make(map[string]int)
	for i, f := range reader.Fields() {
		colIdx[strings.ToUpper(f.String())] = i
	}

	var reports []domain.RawFireReport
	for reader.Next() {
		n, shape := reader.Shape()

		point, ok := shape.(*shp.Point)
		if !ok {
			continue
		}

		attr := func(col string) string {
			i, ok := colIdx[col]
			if !ok {
				return ""
			}
			return strings.TrimSpace(reader.ReadAttribute(n, i))
		}

		reports = append(reports, domain.RawFireReport{
			Name:       attr("FIRENAME"),
			FireYear:   attr("FIREYEAR"),
			TotalAcres: attr("TOTALACRES"),
			StatCause:  attr("STATCAUSE"),
			StateName:  attr("STATENAME"),
			Lat:        strconv.FormatFloat(point.Y, 'f', -1, 64),
			Lon:        strconv.FormatFloat(point.X, 'f', -1, 64),
		})
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("read shapefile: %w", err)
	}
	return reports, nil
}
