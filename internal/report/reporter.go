package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vitebski/world-reports/internal/aggregator"
	"github.com/vitebski/world-reports/internal/mapper"
	"github.com/vitebski/world-reports/internal/query"
	"github.com/vitebski/world-reports/internal/ranker"
	"github.com/vitebski/world-reports/internal/scope"
	"github.com/vitebski/world-reports/pkg/models"
)

// ErrDataSource marks failures of the underlying database, as opposed to
// scopes that simply match nothing
var ErrDataSource = errors.New("data source failure")

// DefaultLanguages is the language set reported when none is configured
var DefaultLanguages = []string{"Chinese", "English", "Hindi", "Spanish", "Arabic"}

// Querier executes a parameterized read and returns one map per row
type Querier interface {
	ExecuteQuery(query string, params ...interface{}) ([]map[string]interface{}, error)
}

// Reporter runs the query, map, aggregate and rank steps for every report
type Reporter struct {
	DB          Querier
	Logger      *logrus.Logger
	// LanguageSet restricts language reports; nil means DefaultLanguages
	LanguageSet []string
}

// NewReporter creates a reporter reading from db
func NewReporter(db Querier, logger *logrus.Logger) *Reporter {
	if logger == nil {
		logger = logrus.New()
	}
	return &Reporter{DB: db, Logger: logger}
}

// List returns every record of entity in scope, sorted by population
// descending then name. Supported entities are country, city, capital and
// language.
func (r *Reporter) List(entity models.EntityType, s scope.Scope) ([]models.Record, error) {
	switch entity {
	case models.EntityCountry:
		return widen(r.Countries(s))
	case models.EntityCity:
		return widen(r.Cities(s))
	case models.EntityCapital:
		return widen(r.Capitals(s))
	case models.EntityLanguage:
		return widen(r.Languages(s))
	}
	panic(fmt.Sprintf("report: %s has no listing", entity))
}

// TopN returns the n most populous records of entity in scope. n <= 0 yields
// an empty result without touching the database.
func (r *Reporter) TopN(entity models.EntityType, s scope.Scope, n int) ([]models.Record, error) {
	switch entity {
	case models.EntityCountry:
		return widen(r.TopCountries(s, n))
	case models.EntityCity:
		return widen(r.TopCities(s, n))
	case models.EntityCapital:
		return widen(r.TopCapitals(s, n))
	case models.EntityLanguage:
		return widen(r.TopLanguages(s, n))
	}
	panic(fmt.Sprintf("report: %s has no top-n", entity))
}

// Countries lists the countries in scope
func (r *Reporter) Countries(s scope.Scope) ([]*models.Country, error) {
	return sorted(fetch(r, query.Request{Entity: models.EntityCountry, Family: query.FamilyList, Scope: s}, mapper.Countries))
}

// TopCountries returns the n most populous countries in scope
func (r *Reporter) TopCountries(s scope.Scope, n int) ([]*models.Country, error) {
	return fetchTop(r, query.Request{Entity: models.EntityCountry, Family: query.FamilyTopN, Scope: s, Limit: n}, mapper.Countries)
}

// Cities lists the cities in scope
func (r *Reporter) Cities(s scope.Scope) ([]*models.City, error) {
	return sorted(fetch(r, query.Request{Entity: models.EntityCity, Family: query.FamilyList, Scope: s}, mapper.Cities))
}

// TopCities returns the n most populous cities in scope
func (r *Reporter) TopCities(s scope.Scope, n int) ([]*models.City, error) {
	return fetchTop(r, query.Request{Entity: models.EntityCity, Family: query.FamilyTopN, Scope: s, Limit: n}, mapper.Cities)
}

// Capitals lists the capital cities in scope
func (r *Reporter) Capitals(s scope.Scope) ([]*models.City, error) {
	return sorted(fetch(r, query.Request{Entity: models.EntityCapital, Family: query.FamilyList, Scope: s}, mapper.Cities))
}

// TopCapitals returns the n most populous capital cities in scope
func (r *Reporter) TopCapitals(s scope.Scope, n int) ([]*models.City, error) {
	return fetchTop(r, query.Request{Entity: models.EntityCapital, Family: query.FamilyTopN, Scope: s, Limit: n}, mapper.Cities)
}

// Languages totals the speakers of the configured languages across the
// countries in scope. World shares are always against the world population.
func (r *Reporter) Languages(s scope.Scope) ([]*models.CountryLanguage, error) {
	req := query.Request{
		Entity:    models.EntityLanguage,
		Family:    query.FamilyList,
		Scope:     s,
		Languages: r.languages(),
	}
	rows, err := fetch(r, req, mapper.Languages)
	if err != nil || len(rows) == 0 {
		return rows, err
	}

	world, err := r.worldPopulation()
	if err != nil {
		return nil, err
	}
	return ranker.Sort(aggregator.LanguageTotals(rows, world)), nil
}

// TopLanguages returns the n most spoken configured languages in scope
func (r *Reporter) TopLanguages(s scope.Scope, n int) ([]*models.CountryLanguage, error) {
	mustSupport(models.EntityLanguage, query.FamilyList, s)
	if n <= 0 {
		r.Logger.Debugf("Top %d languages in %s requested, returning no rows", n, s)
		return []*models.CountryLanguage{}, nil
	}
	totals, err := r.Languages(s)
	if err != nil {
		return nil, err
	}
	return ranker.Rank(totals, n), nil
}

// Aggregate returns the urban and total population of the scope. A scope
// that matches nothing yields zeros.
func (r *Reporter) Aggregate(s scope.Scope) (*models.UrbanizationStat, error) {
	req := query.Request{Entity: models.EntityUrbanization, Family: query.FamilyAggregate, Scope: s}
	stats, err := fetch(r, req, mapper.Urbanization)
	if err != nil {
		return nil, err
	}

	var total, urban int64
	if len(stats) > 0 {
		total, urban = stats[0].TotalPopulation, stats[0].UrbanPopulation
	}
	stat := aggregator.Urbanization(s.Name(), total, urban)
	return &stat, nil
}

// Breakdown returns one urbanization stat per continent, region or country
// within the scope, ordered by total population descending then name
func (r *Reporter) Breakdown(s scope.Scope, by scope.Kind) ([]*models.UrbanizationStat, error) {
	switch by {
	case scope.KindCountry:
		return r.countryBreakdown(s)
	case scope.KindContinent, scope.KindRegion:
	default:
		panic(fmt.Sprintf("report: cannot break urbanization down by %s", by))
	}

	req := query.Request{Entity: models.EntityUrbanization, Family: query.FamilyBreakdown, Scope: s, GroupBy: by}
	stats, err := fetch(r, req, mapper.Urbanization)
	if err != nil {
		return nil, err
	}
	for i, st := range stats {
		full := aggregator.Urbanization(st.Name, st.TotalPopulation, st.UrbanPopulation)
		stats[i] = &full
	}
	return ranker.Sort(stats), nil
}

// countryBreakdown joins countries to their cities in memory. Cities whose
// country code resolves to no listed country are left out.
func (r *Reporter) countryBreakdown(s scope.Scope) ([]*models.UrbanizationStat, error) {
	mustSupport(models.EntityUrbanization, query.FamilyBreakdown, s)

	countries, err := r.Countries(s)
	if err != nil {
		return nil, err
	}
	if len(countries) == 0 {
		return []*models.UrbanizationStat{}, nil
	}
	cities, err := r.Cities(s)
	if err != nil {
		return nil, err
	}

	stats := make([]*models.UrbanizationStat, 0, len(countries))
	for _, c := range countries {
		aggregator.CountryUrbanization(c, cities)
		stat := aggregator.Urbanization(c.Name, c.Population, c.UrbanPopulation)
		stats = append(stats, &stat)
	}
	return ranker.Sort(stats), nil
}

// Population returns the total population of the scope. Scopes below
// country level sum their cities.
func (r *Reporter) Population(s scope.Scope) (*models.PopulationStat, error) {
	req := query.Request{Entity: models.EntityPopulation, Family: query.FamilyAggregate, Scope: s}
	stats, err := fetch(r, req, mapper.Population)
	if err != nil {
		return nil, err
	}

	stat := &models.PopulationStat{Name: s.Name()}
	if len(stats) > 0 {
		stat.Population = stats[0].Population
	}
	return stat, nil
}

func (r *Reporter) worldPopulation() (int64, error) {
	q := query.WorldPopulation()
	rows, err := r.DB.ExecuteQuery(q.SQL, q.Args...)
	if err != nil {
		r.Logger.Errorf("Error reading world population: %v", err)
		return 0, fmt.Errorf("%w: world population: %v", ErrDataSource, err)
	}
	stats := mapper.Population(rows)
	if len(stats) == 0 {
		return 0, nil
	}
	return stats[0].Population, nil
}

func (r *Reporter) languages() []string {
	if len(r.LanguageSet) == 0 {
		return DefaultLanguages
	}
	return r.LanguageSet
}

// fetch runs req unless its scope can match nothing, and maps the rows. The
// result is never nil on success.
func fetch[T any](r *Reporter, req query.Request, mapRows func([]mapper.Row) []T) ([]T, error) {
	mustSupport(req.Entity, req.Family, req.Scope)

	if req.Scope.Predicate().MatchesNone() {
		r.Logger.Debugf("%s %s: scope %s matches no rows", req.Entity, req.Family, req.Scope)
		return []T{}, nil
	}

	q := query.Build(req)
	rows, err := r.DB.ExecuteQuery(q.SQL, q.Args...)
	if err != nil {
		r.Logger.Errorf("Error running %s %s for %s: %v", req.Entity, req.Family, req.Scope, err)
		return nil, fmt.Errorf("%w: %s %s for %s: %v", ErrDataSource, req.Entity, req.Family, req.Scope, err)
	}
	return mapRows(rows), nil
}

// fetchTop limits in SQL and ranks again in memory so ties resolve by name
// regardless of the database collation
func fetchTop[T ranker.Rankable](r *Reporter, req query.Request, mapRows func([]mapper.Row) []T) ([]T, error) {
	mustSupport(req.Entity, req.Family, req.Scope)

	if req.Limit <= 0 {
		r.Logger.Debugf("Top %d %s in %s requested, returning no rows", req.Limit, req.Entity, req.Scope)
		return []T{}, nil
	}
	records, err := fetch(r, req, mapRows)
	if err != nil {
		return nil, err
	}
	return ranker.Rank(records, req.Limit), nil
}

// FilterByCountry keeps the cities of the named country, compared without
// case, ranked by population. An empty name keeps nothing.
func FilterByCountry(cities []*models.City, country string) []*models.City {
	country = strings.TrimSpace(country)
	kept := make([]*models.City, 0)
	if country == "" {
		return kept
	}
	for _, c := range cities {
		if c != nil && strings.EqualFold(c.Country, country) {
			kept = append(kept, c)
		}
	}
	return ranker.Sort(kept)
}

func mustSupport(entity models.EntityType, family query.Family, s scope.Scope) {
	if !query.Supports(entity, family, s.Kind) {
		panic(fmt.Sprintf("report: %s %s does not support scope %s", entity, family, s.Kind))
	}
}

func sorted[T ranker.Rankable](records []T, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	return ranker.Sort(records), nil
}

func widen[T models.Record](records []T, err error) ([]models.Record, error) {
	if err != nil {
		return nil, err
	}
	return models.AsRecords(records), nil
}
