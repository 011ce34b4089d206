// Package aggregator computes derived population metrics. All functions are
// pure; percentages use guarded division and are never NaN or Inf.
package aggregator

import (
	"math"
	"sort"

	"github.com/vitebski/world-reports/pkg/models"
)

// Percentage returns part/total*100, or 0 when total is not positive
func Percentage(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	p := part / total * 100.0
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}
	return p
}

// UrbanPercentage returns urban/total*100 bounded to [0,100], or 0 when
// total is 0. City figures can exceed the country figure in the source
// data (Singapore), so urban is capped at total.
func UrbanPercentage(total, urban int64) float64 {
	if urban > total {
		urban = total
	}
	return Percentage(float64(urban), float64(total))
}

// UrbanPopulation sums the populations of the cities that inScope accepts.
// A nil inScope accepts every city.
func UrbanPopulation(cities []*models.City, inScope func(*models.City) bool) int64 {
	var sum int64
	for _, c := range cities {
		if c == nil || c.Population <= 0 {
			continue
		}
		if inScope != nil && !inScope(c) {
			continue
		}
		sum += c.Population
	}
	return sum
}

// Urbanization builds the stat for a named scope
func Urbanization(name string, total, urban int64) models.UrbanizationStat {
	if total < 0 {
		total = 0
	}
	if urban < 0 {
		urban = 0
	}
	return models.UrbanizationStat{
		Name:            name,
		TotalPopulation: total,
		UrbanPopulation: urban,
		UrbanPercentage: UrbanPercentage(total, urban),
	}
}

// CountryUrbanization fills the derived urban fields of country from the
// cities that belong to it by country code.
func CountryUrbanization(country *models.Country, cities []*models.City) {
	if country == nil {
		return
	}
	country.UrbanPopulation = UrbanPopulation(cities, func(c *models.City) bool {
		return c.CountryCode == country.Code
	})
	country.UrbanPercentage = UrbanPercentage(country.Population, country.UrbanPopulation)
}

// LanguageSpeakers estimates speakers in a country from its population and
// the percentage speaking the language.
func LanguageSpeakers(countryPopulation int64, percentage float64) float64 {
	if countryPopulation <= 0 || percentage <= 0 {
		return 0
	}
	return float64(countryPopulation) * (percentage / 100.0)
}

// WorldShare returns speakers as a percentage of the world population
func WorldShare(speakers float64, worldPopulation int64) float64 {
	return Percentage(speakers, float64(worldPopulation))
}

// LanguageTotals sums per-country speaker estimates per language and
// computes each language's world share. Results are sorted by speakers
// descending then language name.
func LanguageTotals(rows []*models.CountryLanguage, worldPopulation int64) []*models.CountryLanguage {
	speakers := make(map[string]float64)
	var order []string
	for _, row := range rows {
		if row == nil || row.Language == "" {
			continue
		}
		if _, seen := speakers[row.Language]; !seen {
			order = append(order, row.Language)
		}
		speakers[row.Language] += LanguageSpeakers(row.CountryPopulation, row.Percentage)
	}

	totals := make([]*models.CountryLanguage, 0, len(order))
	for _, language := range order {
		total := speakers[language]
		totals = append(totals, &models.CountryLanguage{
			Language:         language,
			NumberOfSpeakers: int64(math.Round(total)),
			WorldPercentage:  WorldShare(total, worldPopulation),
		})
	}

	sort.SliceStable(totals, func(i, j int) bool {
		if totals[i].NumberOfSpeakers != totals[j].NumberOfSpeakers {
			return totals[i].NumberOfSpeakers > totals[j].NumberOfSpeakers
		}
		return totals[i].Language < totals[j].Language
	})
	return totals
}
