package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/vitebski/world-reports/internal/query"
	"github.com/vitebski/world-reports/internal/render"
	"github.com/vitebski/world-reports/internal/scope"
	"github.com/vitebski/world-reports/pkg/models"
)

// Spec describes one report of a batch run
type Spec struct {
	Title  string
	Entity models.EntityType
	Family query.Family
	Scope  scope.Scope
	// N is the Top-N size for query.FamilyTopN
	N int
	// By is the grouping dimension for an urbanization breakdown
	By scope.Kind
	// File is the Markdown file name under the reports directory; empty
	// skips the Markdown export
	File string
}

// Run produces the records of a single report spec
func (r *Reporter) Run(spec Spec) ([]models.Record, error) {
	switch spec.Family {
	case query.FamilyList:
		return r.List(spec.Entity, spec.Scope)
	case query.FamilyTopN:
		return r.TopN(spec.Entity, spec.Scope, spec.N)
	case query.FamilyBreakdown:
		return widen(r.Breakdown(spec.Scope, spec.By))
	case query.FamilyAggregate:
		switch spec.Entity {
		case models.EntityUrbanization:
			stat, err := r.Aggregate(spec.Scope)
			if err != nil {
				return nil, err
			}
			return []models.Record{stat}, nil
		case models.EntityPopulation:
			stat, err := r.Population(spec.Scope)
			if err != nil {
				return nil, err
			}
			return []models.Record{stat}, nil
		}
	}
	panic(fmt.Sprintf("report: cannot run %s %s", spec.Entity, spec.Family))
}

// RunBatch runs specs in order, printing each to out and exporting it to dir.
// A failing report is recorded and the run moves on to the next one.
func RunBatch(r *Reporter, specs []Spec, out io.Writer, dir string) models.BatchResult {
	result := models.BatchResult{
		Succeeded: []string{},
		Failed:    make(map[string]error),
	}

	for _, spec := range specs {
		records, err := r.Run(spec)
		if err != nil {
			r.Logger.Errorf("Report %q failed: %v", spec.Title, err)
			result.Failed[spec.Title] = err
			continue
		}

		render.Console(out, spec.Title, spec.Entity, records)

		if spec.File != "" {
			path, err := render.WriteMarkdown(dir, spec.File, spec.Title, spec.Entity, records)
			if err != nil {
				r.Logger.Errorf("Could not export report %q: %v", spec.Title, err)
				result.Failed[spec.Title] = err
				continue
			}
			r.Logger.Infof("Wrote %s", path)
		}
		result.Succeeded = append(result.Succeeded, spec.Title)
	}

	result.Run = len(specs)
	return result
}

// Sample names the scopes used by the standard report set
type Sample struct {
	Continent string
	Region    string
	Country   string
	District  string
	City      string
	N         int
}

// DefaultSample is the scope sample used when none is given
var DefaultSample = Sample{
	Continent: "Asia",
	Region:    "Western Europe",
	Country:   "Brazil",
	District:  "California",
	City:      "Edinburgh",
	N:         10,
}

// StandardSpecs returns the full report set in its fixed run order
func StandardSpecs(s Sample) []Spec {
	continent := scope.New(scope.KindContinent, s.Continent)
	region := scope.New(scope.KindRegion, s.Region)
	country := scope.New(scope.KindCountry, s.Country)
	district := scope.New(scope.KindDistrict, s.District)
	city := scope.New(scope.KindCity, s.City)
	world := scope.World()

	list := func(entity models.EntityType, title string, sc scope.Scope) Spec {
		return Spec{Title: title, Entity: entity, Family: query.FamilyList, Scope: sc, File: fileName(entity, "all", sc)}
	}
	top := func(entity models.EntityType, title string, sc scope.Scope) Spec {
		return Spec{
			Title:  fmt.Sprintf("Top %d %s", s.N, title),
			Entity: entity, Family: query.FamilyTopN, Scope: sc, N: s.N,
			File: fileName(entity, fmt.Sprintf("top%d", s.N), sc),
		}
	}
	breakdown := func(by scope.Kind) Spec {
		return Spec{
			Title:  "Urban population by " + by.String(),
			Entity: models.EntityUrbanization, Family: query.FamilyBreakdown, Scope: world, By: by,
			File: "urbanization_by_" + by.String() + ".md",
		}
	}
	population := func(sc scope.Scope) Spec {
		return Spec{
			Title:  "Population of " + sc.Name(),
			Entity: models.EntityPopulation, Family: query.FamilyAggregate, Scope: sc,
			File: fileName(models.EntityPopulation, "total", sc),
		}
	}

	return []Spec{
		list(models.EntityCountry, "Countries in the world", world),
		list(models.EntityCountry, "Countries in "+s.Continent, continent),
		list(models.EntityCountry, "Countries in "+s.Region, region),
		top(models.EntityCountry, "countries in the world", world),
		top(models.EntityCountry, "countries in "+s.Continent, continent),
		top(models.EntityCountry, "countries in "+s.Region, region),

		list(models.EntityCity, "Cities in the world", world),
		list(models.EntityCity, "Cities in "+s.Continent, continent),
		list(models.EntityCity, "Cities in "+s.Region, region),
		list(models.EntityCity, "Cities in "+s.Country, country),
		list(models.EntityCity, "Cities in "+s.District, district),
		top(models.EntityCity, "cities in the world", world),
		top(models.EntityCity, "cities in "+s.Continent, continent),
		top(models.EntityCity, "cities in "+s.Region, region),
		top(models.EntityCity, "cities in "+s.Country, country),
		top(models.EntityCity, "cities in "+s.District, district),

		list(models.EntityCapital, "Capital cities in the world", world),
		list(models.EntityCapital, "Capital cities in "+s.Continent, continent),
		list(models.EntityCapital, "Capital cities in "+s.Region, region),
		top(models.EntityCapital, "capital cities in the world", world),
		top(models.EntityCapital, "capital cities in "+s.Continent, continent),
		top(models.EntityCapital, "capital cities in "+s.Region, region),

		breakdown(scope.KindContinent),
		breakdown(scope.KindRegion),
		breakdown(scope.KindCountry),

		population(world),
		population(continent),
		population(region),
		population(country),
		population(district),
		population(city),

		list(models.EntityLanguage, "Language speakers", world),
	}
}

func fileName(entity models.EntityType, kind string, sc scope.Scope) string {
	name := strings.ToLower(sc.Name())
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		}
		return '_'
	}, name)
	return fmt.Sprintf("%s_%s_%s.md", entity, kind, name)
}
