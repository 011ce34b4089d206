package query

import (
	"fmt"
	"strings"

	"github.com/vitebski/world-reports/internal/scope"
	"github.com/vitebski/world-reports/pkg/models"
)

// Family selects the shape of the statement
type Family int

const (
	// FamilyList returns every record in scope, ordered
	FamilyList Family = iota
	// FamilyTopN is FamilyList with a bound LIMIT
	FamilyTopN
	// FamilyAggregate returns a single SUM rollup row for the scope
	FamilyAggregate
	// FamilyBreakdown returns one rollup row per value of Request.GroupBy
	FamilyBreakdown
)

func (f Family) String() string {
	switch f {
	case FamilyList:
		return "list"
	case FamilyTopN:
		return "top-n"
	case FamilyAggregate:
		return "aggregate"
	case FamilyBreakdown:
		return "breakdown"
	}
	return fmt.Sprintf("family(%d)", int(f))
}

// Request describes a statement to build
type Request struct {
	Entity models.EntityType
	Family Family
	Scope  scope.Scope
	// Limit is bound last for FamilyTopN. Negative values are bound as 0.
	Limit int
	// GroupBy is the dimension for FamilyBreakdown, continent or region
	GroupBy scope.Kind
	// Languages restricts EntityLanguage rows; empty means every language
	Languages []string
}

// Query is a parameterized statement and its bound arguments, in
// placeholder order.
type Query struct {
	SQL  string
	Args []interface{}
}

const (
	countryColumns = `country.Code AS Code, country.Name AS Name, country.Continent AS Continent,
	country.Region AS Region, country.Population AS Population, capital.Name AS Capital`

	cityColumns = `city.Name AS Name, city.CountryCode AS CountryCode, country.Name AS Country,
	city.District AS District, city.Population AS Population`

	languageColumns = `countrylanguage.CountryCode AS CountryCode, countrylanguage.Language AS Language,
	countrylanguage.IsOfficial AS IsOfficial, countrylanguage.Percentage AS Percentage,
	country.Population AS CountryPopulation`

	urbanJoin = `LEFT JOIN (
		SELECT CountryCode, SUM(Population) AS UrbanPopulation
		FROM city
		GROUP BY CountryCode
	) AS urban ON urban.CountryCode = country.Code`

	urbanColumns = `COALESCE(SUM(country.Population), 0) AS TotalPopulation,
	COALESCE(SUM(urban.UrbanPopulation), 0) AS UrbanPopulation`
)

var countryKinds = []scope.Kind{scope.KindWorld, scope.KindContinent, scope.KindRegion, scope.KindCountry}

var allKinds = []scope.Kind{
	scope.KindWorld, scope.KindContinent, scope.KindRegion,
	scope.KindCountry, scope.KindDistrict, scope.KindCity,
}

// supported lists the scope kinds each entity/family pair accepts
var supported = map[models.EntityType]map[Family][]scope.Kind{
	models.EntityCountry: {
		FamilyList: countryKinds,
		FamilyTopN: countryKinds,
	},
	models.EntityCity: {
		FamilyList: allKinds,
		FamilyTopN: allKinds,
	},
	models.EntityCapital: {
		FamilyList: countryKinds,
		FamilyTopN: countryKinds,
	},
	models.EntityLanguage: {
		FamilyList: countryKinds,
	},
	models.EntityUrbanization: {
		FamilyAggregate: countryKinds,
		FamilyBreakdown: countryKinds,
	},
	models.EntityPopulation: {
		FamilyAggregate: allKinds,
	},
}

// Supports reports whether Build accepts the entity, family and scope kind
func Supports(entity models.EntityType, family Family, kind scope.Kind) bool {
	for _, k := range supported[entity][family] {
		if k == kind {
			return true
		}
	}
	return false
}

// Build composes the statement for req. Scope values, languages and the limit
// are always bound as parameters. An unsupported combination is a programming
// error and panics.
func Build(req Request) Query {
	if !req.Entity.Valid() {
		panic(fmt.Sprintf("query: unknown entity %s", req.Entity))
	}
	if !Supports(req.Entity, req.Family, req.Scope.Kind) {
		panic(fmt.Sprintf("query: %s %s does not support scope %s", req.Entity, req.Family, req.Scope.Kind))
	}
	if req.Family == FamilyBreakdown && req.GroupBy != scope.KindContinent && req.GroupBy != scope.KindRegion {
		panic(fmt.Sprintf("query: cannot group %s by %s", req.Entity, req.GroupBy))
	}

	pred := req.Scope.Predicate()
	b := &builder{}

	switch req.Entity {
	case models.EntityCountry:
		b.line("SELECT " + countryColumns)
		b.line("FROM country")
		b.line("LEFT JOIN city AS capital ON capital.ID = country.Capital")
		b.where(pred.Clause, pred.Args...)
		b.line("ORDER BY country.Population DESC, " + byteOrder("country.Name"))

	case models.EntityCity:
		b.line("SELECT " + cityColumns + ", (country.Capital = city.ID) AS IsCapital")
		b.line("FROM city")
		b.line("JOIN country ON country.Code = city.CountryCode")
		b.where(pred.Clause, pred.Args...)
		b.line("ORDER BY city.Population DESC, " + byteOrder("city.Name"))

	case models.EntityCapital:
		b.line("SELECT " + cityColumns + ", 1 AS IsCapital")
		b.line("FROM country")
		b.line("JOIN city ON city.ID = country.Capital")
		b.where(pred.Clause, pred.Args...)
		b.line("ORDER BY city.Population DESC, " + byteOrder("city.Name"))

	case models.EntityLanguage:
		b.line("SELECT " + languageColumns)
		b.line("FROM countrylanguage")
		b.line("JOIN country ON country.Code = countrylanguage.CountryCode")
		b.where(pred.Clause, pred.Args...)
		if len(req.Languages) > 0 {
			args := make([]interface{}, len(req.Languages))
			for i, l := range req.Languages {
				args[i] = l
			}
			b.where("countrylanguage.Language IN ("+placeholders(len(args))+")", args...)
		}
		b.line("ORDER BY countrylanguage.Language ASC, country.Code ASC")

	case models.EntityUrbanization:
		if req.Family == FamilyBreakdown {
			col := req.GroupBy.Column()
			b.line("SELECT " + col + " AS Name, " + urbanColumns)
		} else {
			b.line("SELECT " + urbanColumns)
		}
		b.line("FROM country")
		b.line(urbanJoin)
		b.where(pred.Clause, pred.Args...)
		if req.Family == FamilyBreakdown {
			b.line("GROUP BY " + req.GroupBy.Column())
			b.line("ORDER BY TotalPopulation DESC, Name ASC")
		}

	case models.EntityPopulation:
		if req.Scope.Kind.CityLevel() {
			b.line("SELECT COALESCE(SUM(city.Population), 0) AS Population")
			b.line("FROM city")
		} else {
			b.line("SELECT COALESCE(SUM(country.Population), 0) AS Population")
			b.line("FROM country")
		}
		b.where(pred.Clause, pred.Args...)
	}

	if req.Family == FamilyTopN {
		limit := req.Limit
		if limit < 0 {
			limit = 0
		}
		b.line("LIMIT ?")
		b.args = append(b.args, limit)
	}

	return Query{SQL: b.String(), Args: b.args}
}

// WorldPopulation is the unscoped total population, the denominator of
// language world shares.
func WorldPopulation() Query {
	return Build(Request{Entity: models.EntityPopulation, Family: FamilyAggregate, Scope: scope.World()})
}

type builder struct {
	sb       strings.Builder
	args     []interface{}
	hasWhere bool
}

// byteOrder sorts names by code point, the order ranker uses, so a LIMIT cut
// on tied populations keeps the same rows an in-memory truncation would
func byteOrder(column string) string {
	return "CAST(" + column + " AS BINARY) ASC"
}

func (b *builder) line(s string) {
	if b.sb.Len() > 0 {
		b.sb.WriteByte('\n')
	}
	b.sb.WriteString(s)
}

// where appends clause joined with AND; an empty clause is skipped
func (b *builder) where(clause string, args ...interface{}) {
	if clause == "" {
		return
	}
	if b.hasWhere {
		b.line("AND " + clause)
	} else {
		b.line("WHERE " + clause)
		b.hasWhere = true
	}
	b.args = append(b.args, args...)
}

func (b *builder) String() string {
	return b.sb.String()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
