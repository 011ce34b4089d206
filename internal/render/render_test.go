package render

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitebski/world-reports/pkg/models"
)

// parseTable returns the data rows of the first Markdown table in doc
func parseTable(doc string) (header []string, rows [][]string) {
	for _, line := range strings.Split(doc, "\n") {
		if !strings.HasPrefix(line, "|") {
			continue
		}
		cells := strings.Split(strings.Trim(line, "|"), " | ")
		for i := range cells {
			cells[i] = strings.TrimSpace(cells[i])
		}
		switch {
		case header == nil:
			header = cells
		case cells[0] == "---":
		default:
			rows = append(rows, cells)
		}
	}
	return header, rows
}

func TestConsoleSkipsNilRecords(t *testing.T) {
	var nilCity *models.City
	records := []models.Record{
		&models.City{Name: "Tokyo", Country: "Japan", District: "Tokyo-to", Population: 7980230},
		nilCity,
		&models.City{Name: "Ottawa", Country: "Canada", District: "Ontario", Population: 335277},
		nil,
	}

	var buf bytes.Buffer
	n := Console(&buf, "", models.EntityCity, records)

	assert.Equal(t, 2, n)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	// header, rule, two rows
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[2], "Tokyo"))
	assert.True(t, strings.HasPrefix(lines[3], "Ottawa"))
	assert.Contains(t, lines[2], "7,980,230")
}

func TestConsoleEmptyPrintsNoData(t *testing.T) {
	var buf bytes.Buffer
	n := Console(&buf, "Capital cities in Antarctica", models.EntityCapital, []models.Record{})

	assert.Equal(t, 0, n)
	assert.Contains(t, buf.String(), "No capital cities to display.")
	assert.NotContains(t, buf.String(), "Population")
}

func TestConsoleColumnSets(t *testing.T) {
	tests := []struct {
		entity  models.EntityType
		record  models.Record
		headers []string
		cells   []string
	}{
		{
			models.EntityCountry,
			&models.Country{Code: "CHN", Name: "China", Continent: "Asia", Region: "Eastern Asia", Capital: "Peking", Population: 1277558000},
			[]string{"Name", "Continent", "Region", "Capital", "Code", "Population"},
			[]string{"China", "Asia", "Eastern Asia", "Peking", "CHN", "1,277,558,000"},
		},
		{
			models.EntityUrbanization,
			&models.UrbanizationStat{Name: "Europe", TotalPopulation: 730074600, UrbanPopulation: 241942813, UrbanPercentage: 33.13904},
			[]string{"Name", "Total Population", "Urban Population", "Urban Percentage"},
			[]string{"Europe", "730,074,600", "241,942,813", "33.14%"},
		},
		{
			models.EntityLanguage,
			&models.CountryLanguage{Language: "Chinese", NumberOfSpeakers: 1191843539, WorldPercentage: 19.606},
			[]string{"Language", "Number of Speakers", "World Percentage"},
			[]string{"Chinese", "1,191,843,539", "19.61%"},
		},
		{
			models.EntityPopulation,
			&models.PopulationStat{Name: "World", Population: 6078749450},
			[]string{"Name", "Population"},
			[]string{"World", "6,078,749,450"},
		},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		Console(&buf, "", tt.entity, []models.Record{tt.record})
		out := buf.String()
		for _, h := range tt.headers {
			assert.Contains(t, out, h, "%s header", tt.entity)
		}
		for _, c := range tt.cells {
			assert.Contains(t, out, c, "%s cell", tt.entity)
		}
	}
}

func TestMarkdownRoundTrip(t *testing.T) {
	input := []*models.Country{
		{Code: "CHN", Name: "China", Continent: "Asia", Region: "Eastern Asia", Capital: "Peking", Population: 1400000000},
		{Code: "JPN", Name: "Japan", Continent: "Asia", Region: "Eastern Asia", Capital: "Tokyo", Population: 125800000},
	}

	doc := Markdown("Countries in Asia", models.EntityCountry, models.AsRecords(input))
	header, rows := parseTable(doc)

	require.Equal(t, []string{"Name", "Continent", "Region", "Capital", "Code", "Population"}, header)
	require.Len(t, rows, 2)
	for i, row := range rows {
		pop, err := strconv.ParseInt(strings.ReplaceAll(row[5], ",", ""), 10, 64)
		require.NoError(t, err)
		assert.Equal(t, input[i].Name, row[0])
		assert.Equal(t, input[i].Continent, row[1])
		assert.Equal(t, input[i].Population, pop)
	}
	assert.Contains(t, doc, "| --- | --- | --- | --- | --- | --- |")
	assert.Contains(t, doc, "1,400,000,000")
}

func TestMarkdownLanguageKeepsBareNumbers(t *testing.T) {
	records := []models.Record{
		&models.CountryLanguage{Language: "English", NumberOfSpeakers: 1450000000, WorldPercentage: 17.6},
		&models.CountryLanguage{Language: "Mandarin", NumberOfSpeakers: 1200000000, WorldPercentage: 16.0},
	}

	doc := Markdown("", models.EntityLanguage, records)
	assert.Contains(t, doc, "| Language | Number of Speakers | World Percentage |")
	assert.Contains(t, doc, "| English | 1450000000 | 17.60 |")
	assert.Contains(t, doc, "| Mandarin | 1200000000 | 16.00 |")
}

func TestMarkdownEscapesPipes(t *testing.T) {
	doc := Markdown("", models.EntityPopulation, []models.Record{&models.PopulationStat{Name: "A|B", Population: 1}})
	assert.Contains(t, doc, `| A\|B | 1 |`)
}

func TestMarkdownEmpty(t *testing.T) {
	doc := Markdown("", models.EntityCity, nil)
	_, rows := parseTable(doc)
	assert.Empty(t, rows)
	assert.Contains(t, doc, "No cities to display.")
}

func TestWriteMarkdownCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")
	records := []models.Record{&models.City{Name: "Ottawa", Country: "Canada", Population: 335277}}

	path, err := WriteMarkdown(dir, "capitals.md", "Capitals", models.EntityCapital, records)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "capitals.md"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "| Ottawa | Canada | 335,277 |")
}

func TestWriteMarkdownReportsFailure(t *testing.T) {
	// a regular file where the directory should be
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := WriteMarkdown(filepath.Join(blocker, "reports"), "cities.md", "", models.EntityCity, nil)
	assert.Error(t, err)
}

func TestUnknownEntityPanics(t *testing.T) {
	assert.PanicsWithValue(t, "render: unknown entity entity(42)", func() {
		Console(&bytes.Buffer{}, "", models.EntityType(42), nil)
	})
}
