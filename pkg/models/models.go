package models

import (
	"fmt"
	"sort"
)

// EntityType identifies the kind of record a report produces
type EntityType int

const (
	EntityCountry EntityType = iota
	EntityCity
	EntityCapital
	EntityLanguage
	EntityUrbanization
	EntityPopulation
)

var entityNames = map[EntityType]string{
	EntityCountry:      "country",
	EntityCity:         "city",
	EntityCapital:      "capital",
	EntityLanguage:     "language",
	EntityUrbanization: "urbanization",
	EntityPopulation:   "population",
}

func (e EntityType) String() string {
	if name, ok := entityNames[e]; ok {
		return name
	}
	return fmt.Sprintf("entity(%d)", int(e))
}

// Valid reports whether e is one of the known entity types
func (e EntityType) Valid() bool {
	_, ok := entityNames[e]
	return ok
}

// Record is implemented by every typed report row
type Record interface {
	Entity() EntityType
}

// Country represents a row of the country table
type Country struct {
	Code            string
	Name            string
	Continent       string
	Region          string
	Population      int64
	Capital         string
	UrbanPopulation int64
	UrbanPercentage float64
}

// City represents a row of the city table joined to its country
type City struct {
	Name        string
	CountryCode string
	Country     string
	District    string
	Population  int64
	IsCapital   bool
}

// CountryLanguage represents a language spoken in a country. Aggregated
// language totals reuse it with CountryCode left empty.
type CountryLanguage struct {
	CountryCode       string
	Language          string
	IsOfficial        bool
	Percentage        float64
	CountryPopulation int64
	NumberOfSpeakers  int64
	WorldPercentage   float64
}

// UrbanizationStat is the urban/total population split of a scope
type UrbanizationStat struct {
	Name            string
	TotalPopulation int64
	UrbanPopulation int64
	UrbanPercentage float64
}

// PopulationStat is the total population of a single scope
type PopulationStat struct {
	Name       string
	Population int64
}

func (*Country) Entity() EntityType { return EntityCountry }
func (*CountryLanguage) Entity() EntityType { return EntityLanguage }
func (*UrbanizationStat) Entity() EntityType { return EntityUrbanization }
func (*PopulationStat) Entity() EntityType { return EntityPopulation }

func (*City) Entity() EntityType { return EntityCity }

// RankName and RankPopulation are the ordering keys used by the ranker.

func (c *Country) RankName() string { return c.Name }
func (c *Country) RankPopulation() int64 { return c.Population }
func (c *City) RankName() string { return c.Name }
func (c *City) RankPopulation() int64 { return c.Population }
func (l *CountryLanguage) RankName() string { return l.Language }
func (l *CountryLanguage) RankPopulation() int64 { return l.NumberOfSpeakers }
func (u *UrbanizationStat) RankName() string { return u.Name }
func (u *UrbanizationStat) RankPopulation() int64 { return u.TotalPopulation }

// IsNil reports whether r is nil or wraps a nil record pointer
func IsNil(r Record) bool {
	switch v := r.(type) {
	case nil:
		return true
	case *Country:
		return v == nil
	case *City:
		return v == nil
	case *CountryLanguage:
		return v == nil
	case *UrbanizationStat:
		return v == nil
	case *PopulationStat:
		return v == nil
	}
	return false
}

// AsRecords widens a typed record slice for rendering
func AsRecords[T Record](in []T) []Record {
	out := make([]Record, len(in))
	for i, r := range in {
		out[i] = r
	}
	return out
}

// Column describes a table column found in information_schema
type Column struct {
	Name       string
	DataType   string
	IsNullable bool
	ColumnKey  string
}

// ForeignKey is a declared reference between two tables
type ForeignKey struct {
	Table            string
	Column           string
	ReferencedTable  string
	ReferencedColumn string
	ConstraintName   string
}

// BatchResult represents the outcome of a multi-report run
type BatchResult struct {
	Run       int
	Succeeded []string
	Failed    map[string]error
}

// FailedTitles returns the titles of the failed reports in sorted order
func (b BatchResult) FailedTitles() []string {
	titles := make([]string, 0, len(b.Failed))
	for title := range b.Failed {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}
