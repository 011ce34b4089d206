// Package mapper converts connector rows into typed report records.
//
// Rows arrive as column name to value maps with NULL as nil and text as
// string. Absent columns, NULLs and values that do not parse map to the zero
// value. Every function returns a non-nil slice.
package mapper

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vitebski/world-reports/pkg/models"
)

// Row is a single result row keyed by column label
type Row = map[string]interface{}

// Countries maps country rows
func Countries(rows []Row) []*models.Country {
	countries := make([]*models.Country, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		countries = append(countries, &models.Country{
			Code:       String(row, "Code"),
			Name:       String(row, "Name"),
			Continent:  String(row, "Continent"),
			Region:     String(row, "Region"),
			Population: nonNegative(Int64(row, "Population")),
			Capital:    String(row, "Capital"),
		})
	}
	return countries
}

// Cities maps city and capital rows
func Cities(rows []Row) []*models.City {
	cities := make([]*models.City, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		cities = append(cities, &models.City{
			Name:        String(row, "Name"),
			CountryCode: String(row, "CountryCode"),
			Country:     String(row, "Country"),
			District:    String(row, "District"),
			Population:  nonNegative(Int64(row, "Population")),
			IsCapital:   Bool(row, "IsCapital"),
		})
	}
	return cities
}

// Languages maps per-country language rows
func Languages(rows []Row) []*models.CountryLanguage {
	languages := make([]*models.CountryLanguage, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		languages = append(languages, &models.CountryLanguage{
			CountryCode:       String(row, "CountryCode"),
			Language:          String(row, "Language"),
			IsOfficial:        Bool(row, "IsOfficial"),
			Percentage:        clampPercentage(Float64(row, "Percentage")),
			CountryPopulation: nonNegative(Int64(row, "CountryPopulation")),
		})
	}
	return languages
}

// Urbanization maps rollup rows. The percentage is left for the aggregator.
func Urbanization(rows []Row) []*models.UrbanizationStat {
	stats := make([]*models.UrbanizationStat, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		stats = append(stats, &models.UrbanizationStat{
			Name:            String(row, "Name"),
			TotalPopulation: nonNegative(Int64(row, "TotalPopulation")),
			UrbanPopulation: nonNegative(Int64(row, "UrbanPopulation")),
		})
	}
	return stats
}

// Population maps population rollup rows
func Population(rows []Row) []*models.PopulationStat {
	stats := make([]*models.PopulationStat, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		stats = append(stats, &models.PopulationStat{
			Name:       String(row, "Name"),
			Population: nonNegative(Int64(row, "Population")),
		})
	}
	return stats
}

// String returns the column as text, "" when absent or NULL
func String(row Row, col string) string {
	switch v := row[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Int64 returns the column as an integer, 0 when absent, NULL or unparsable.
// Decimal text such as SUM results is truncated.
func Int64(row Row, col string) int64 {
	switch v := row[col].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case uint64:
		if v > math.MaxInt64 {
			return math.MaxInt64
		}
		return int64(v)
	case uint32:
		return int64(v)
	case float64:
		return floatToInt(v)
	case float32:
		return floatToInt(float64(v))
	case bool:
		if v {
			return 1
		}
		return 0
	case string, []byte:
		s := strings.TrimSpace(String(row, col))
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatToInt(f)
		}
	}
	return 0
}

// Float64 returns the column as a float, 0 when absent, NULL or unparsable
func Float64(row Row, col string) float64 {
	var f float64
	switch v := row[col].(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int64:
		f = float64(v)
	case int:
		f = float64(v)
	case uint64:
		f = float64(v)
	case string, []byte:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(String(row, col)), 64)
		if err != nil {
			return 0
		}
		f = parsed
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Bool returns the column as a flag. Non-zero numbers and the texts
// "1", "T", "true" and "Y" are true.
func Bool(row Row, col string) bool {
	switch v := row[col].(type) {
	case bool:
		return v
	case string, []byte:
		switch strings.ToUpper(strings.TrimSpace(String(row, col))) {
		case "1", "T", "TRUE", "Y", "YES":
			return true
		}
		return false
	case nil:
		return false
	}
	return Int64(row, col) != 0
}

func floatToInt(f float64) int64 {
	if math.IsNaN(f) {
		return 0
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64
	}
	if f <= math.MinInt64 {
		return math.MinInt64
	}
	return int64(f)
}

// population is never negative
func nonNegative(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

func clampPercentage(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
