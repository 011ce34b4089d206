package render

import (
	"fmt"

	"github.com/vitebski/world-reports/pkg/models"
)

type valueKind int

const (
	kindText valueKind = iota
	kindCount
	kindPercent
)

type column struct {
	header string
	width  int
	kind   valueKind
	value  func(models.Record) interface{}
}

// policy is the rendering contract of one entity type. Console output always
// uses thousands separators and a % suffix; Markdown follows the flags.
type policy struct {
	noData        string
	columns       []column
	mdThousands   bool
	mdPercentSign bool
}

func country(r models.Record) *models.Country { return r.(*models.Country) }
func city(r models.Record) *models.City { return r.(*models.City) }
func language(r models.Record) *models.CountryLanguage { return r.(*models.CountryLanguage) }
func urban(r models.Record) *models.UrbanizationStat { return r.(*models.UrbanizationStat) }
func population(r models.Record) *models.PopulationStat { return r.(*models.PopulationStat) }

// policies is the single source of column sets and number formatting per
// entity type. Language exports keep bare numbers in Markdown.
var policies = map[models.EntityType]policy{
	models.EntityCountry: {
		noData: "No countries found.",
		columns: []column{
			{"Name", 44, kindText, func(r models.Record) interface{} { return country(r).Name }},
			{"Continent", 14, kindText, func(r models.Record) interface{} { return country(r).Continent }},
			{"Region", 26, kindText, func(r models.Record) interface{} { return country(r).Region }},
			{"Capital", 24, kindText, func(r models.Record) interface{} { return country(r).Capital }},
			{"Code", 5, kindText, func(r models.Record) interface{} { return country(r).Code }},
			{"Population", 15, kindCount, func(r models.Record) interface{} { return country(r).Population }},
		},
		mdThousands:   true,
		mdPercentSign: true,
	},
	models.EntityCity: {
		noData: "No cities to display.",
		columns: []column{
			{"Name", 30, kindText, func(r models.Record) interface{} { return city(r).Name }},
			{"Country", 30, kindText, func(r models.Record) interface{} { return city(r).Country }},
			{"District", 22, kindText, func(r models.Record) interface{} { return city(r).District }},
			{"Population", 15, kindCount, func(r models.Record) interface{} { return city(r).Population }},
		},
		mdThousands:   true,
		mdPercentSign: true,
	},
	models.EntityCapital: {
		noData: "No capital cities to display.",
		columns: []column{
			{"Name", 30, kindText, func(r models.Record) interface{} { return city(r).Name }},
			{"Country", 30, kindText, func(r models.Record) interface{} { return city(r).Country }},
			{"Population", 15, kindCount, func(r models.Record) interface{} { return city(r).Population }},
		},
		mdThousands:   true,
		mdPercentSign: true,
	},
	models.EntityLanguage: {
		noData: "No language data available.",
		columns: []column{
			{"Language", 20, kindText, func(r models.Record) interface{} { return language(r).Language }},
			{"Number of Speakers", 20, kindCount, func(r models.Record) interface{} { return language(r).NumberOfSpeakers }},
			{"World Percentage", 17, kindPercent, func(r models.Record) interface{} { return language(r).WorldPercentage }},
		},
		mdThousands:   false,
		mdPercentSign: false,
	},
	models.EntityUrbanization: {
		noData: "No urban population data to display.",
		columns: []column{
			{"Name", 30, kindText, func(r models.Record) interface{} { return urban(r).Name }},
			{"Total Population", 20, kindCount, func(r models.Record) interface{} { return urban(r).TotalPopulation }},
			{"Urban Population", 20, kindCount, func(r models.Record) interface{} { return urban(r).UrbanPopulation }},
			{"Urban Percentage", 17, kindPercent, func(r models.Record) interface{} { return urban(r).UrbanPercentage }},
		},
		mdThousands:   true,
		mdPercentSign: true,
	},
	models.EntityPopulation: {
		noData: "No population data available.",
		columns: []column{
			{"Name", 30, kindText, func(r models.Record) interface{} { return population(r).Name }},
			{"Population", 20, kindCount, func(r models.Record) interface{} { return population(r).Population }},
		},
		mdThousands:   true,
		mdPercentSign: true,
	},
}

func policyFor(entity models.EntityType) policy {
	if !entity.Valid() {
		panic(fmt.Sprintf("render: unknown entity %s", entity))
	}
	p, ok := policies[entity]
	if !ok {
		panic(fmt.Sprintf("render: no column set for %s", entity))
	}
	return p
}
