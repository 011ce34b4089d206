package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitebski/world-reports/internal/query"
	"github.com/vitebski/world-reports/internal/scope"
	"github.com/vitebski/world-reports/pkg/models"
)

func TestRunBatchIsolatesFailures(t *testing.T) {
	r, mock := newTestReporter(t)
	dir := t.TempDir()

	mock.ExpectQuery(`FROM country`).WillReturnError(errors.New("server has gone away"))
	mock.ExpectQuery(`FROM city`).
		WithArgs("Canada").
		WillReturnRows(sqlmock.NewRows(cityCols).
			AddRow("Montreal", "CAN", "Canada", "Québec", int64(1016376), int64(0)).
			AddRow("Ottawa", "CAN", "Canada", "Ontario", int64(335277), int64(1)))

	specs := []Spec{
		{Title: "Countries in the world", Entity: models.EntityCountry, Family: query.FamilyList, Scope: scope.World(), File: "countries.md"},
		{Title: "Cities in Canada", Entity: models.EntityCity, Family: query.FamilyList, Scope: scope.New(scope.KindCountry, "Canada"), File: "cities.md"},
		{Title: "Capitals in nowhere", Entity: models.EntityCapital, Family: query.FamilyList, Scope: scope.Scope{Kind: scope.KindRegion}},
	}

	var out bytes.Buffer
	result := RunBatch(r, specs, &out, dir)

	assert.Equal(t, 3, result.Run)
	assert.Equal(t, []string{"Cities in Canada", "Capitals in nowhere"}, result.Succeeded)
	require.Contains(t, result.Failed, "Countries in the world")
	assert.ErrorIs(t, result.Failed["Countries in the world"], ErrDataSource)
	assert.Equal(t, []string{"Countries in the world"}, result.FailedTitles())

	console := out.String()
	assert.Contains(t, console, "=== Cities in Canada ===")
	assert.Contains(t, console, "1,016,376")
	assert.Contains(t, console, "No capital cities to display.")

	content, err := os.ReadFile(filepath.Join(dir, "cities.md"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "| Montreal | Canada | Québec | 1,016,376 |")

	_, err = os.Stat(filepath.Join(dir, "countries.md"))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunBatchRecordsExportFailure(t *testing.T) {
	r, mock := newTestReporter(t)

	blocker := filepath.Join(t.TempDir(), "reports")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0o644))

	mock.ExpectQuery(`SUM\(country.Population\)`).
		WillReturnRows(sqlmock.NewRows([]string{"Population"}).AddRow(int64(6078749450)))
	mock.ExpectQuery(`SUM\(country.Population\)`).
		WithArgs("Asia").
		WillReturnRows(sqlmock.NewRows([]string{"Population"}).AddRow(int64(3705025700)))

	specs := []Spec{
		{Title: "Population of World", Entity: models.EntityPopulation, Family: query.FamilyAggregate, Scope: scope.World(), File: "world.md"},
		{Title: "Population of Asia", Entity: models.EntityPopulation, Family: query.FamilyAggregate, Scope: scope.New(scope.KindContinent, "Asia"), File: "asia.md"},
	}

	var out bytes.Buffer
	result := RunBatch(r, specs, &out, blocker)

	assert.Equal(t, 2, result.Run)
	assert.Empty(t, result.Succeeded)
	assert.Len(t, result.Failed, 2)
	// both reports still reached the console
	assert.Contains(t, out.String(), "6,078,749,450")
	assert.Contains(t, out.String(), "3,705,025,700")
}

func TestRunDispatch(t *testing.T) {
	r, mock := newTestReporter(t)

	mock.ExpectQuery(`SUM\(urban.UrbanPopulation\)`).
		WithArgs("Caribbean").
		WillReturnRows(sqlmock.NewRows([]string{"TotalPopulation", "UrbanPopulation"}).AddRow(int64(38140000), int64(11067550)))

	records, err := r.Run(Spec{Entity: models.EntityUrbanization, Family: query.FamilyAggregate, Scope: scope.New(scope.KindRegion, "Caribbean")})
	require.NoError(t, err)
	require.Len(t, records, 1)
	stat := records[0].(*models.UrbanizationStat)
	assert.Equal(t, "Caribbean", stat.Name)
	assert.InDelta(t, 29.02, stat.UrbanPercentage, 0.01)

	records, err = r.Run(Spec{Entity: models.EntityCity, Family: query.FamilyTopN, Scope: scope.World(), N: 0})
	require.NoError(t, err)
	assert.Empty(t, records)

	assert.Panics(t, func() {
		_, _ = r.Run(Spec{Entity: models.EntityCountry, Family: query.FamilyAggregate, Scope: scope.World()})
	})
}

func TestStandardSpecs(t *testing.T) {
	specs := StandardSpecs(DefaultSample)
	require.NotEmpty(t, specs)

	titles := make(map[string]bool)
	files := make(map[string]bool)
	for _, spec := range specs {
		assert.False(t, titles[spec.Title], "duplicate title %q", spec.Title)
		assert.False(t, files[spec.File], "duplicate file %q", spec.File)
		titles[spec.Title] = true
		files[spec.File] = true

		family := spec.Family
		if family == query.FamilyBreakdown {
			assert.Contains(t, []scope.Kind{scope.KindContinent, scope.KindRegion, scope.KindCountry}, spec.By)
		}
		assert.True(t, query.Supports(spec.Entity, family, spec.Scope.Kind),
			"%s %s should support %s", spec.Entity, spec.Family, spec.Scope.Kind)
		assert.Regexp(t, `^[a-z0-9_]+\.md$`, spec.File)
	}

	assert.Equal(t, "Top 10 countries in the world", specs[3].Title)
	assert.Equal(t, "country_top10_world.md", specs[3].File)
}
