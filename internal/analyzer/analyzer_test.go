package analyzer

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/vitebski/world-reports/internal/connector"
)

func newTestAnalyzer(t *testing.T) (*SchemaAnalyzer, sqlmock.Sqlmock) {
	t.Helper()

	// Create a logger
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel) // Suppress log output during tests

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	dc := &connector.DatabaseConnector{
		Host:     "localhost",
		User:     "user",
		Password: "password",
		Database: "world",
		Port:     "3306",
		DB:       db,
		Logger:   logger,
	}
	return NewSchemaAnalyzer(dc, logger), mock
}

func columnRows(names ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "column_key"})
	for _, name := range names {
		rows.AddRow(name, "char", "NO", "")
	}
	return rows
}

// expectWorldSchema queues the information_schema answers of a complete world dataset
func expectWorldSchema(mock sqlmock.Sqlmock, fkRows *sqlmock.Rows) {
	mock.ExpectQuery(`FROM information_schema.tables`).
		WithArgs("world").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).
			AddRow("city").AddRow("country").AddRow("countrylanguage"))
	mock.ExpectQuery(`FROM information_schema.columns`).
		WithArgs("world", "country").
		WillReturnRows(columnRows("Code", "Name", "Continent", "Region", "SurfaceArea", "Population", "Capital"))
	mock.ExpectQuery(`FROM information_schema.columns`).
		WithArgs("world", "city").
		WillReturnRows(columnRows("ID", "Name", "CountryCode", "District", "Population"))
	mock.ExpectQuery(`FROM information_schema.columns`).
		WithArgs("world", "countrylanguage").
		WillReturnRows(columnRows("CountryCode", "Language", "IsOfficial", "Percentage"))
	mock.ExpectQuery(`FROM information_schema.key_column_usage`).
		WithArgs("world").
		WillReturnRows(fkRows)
}

func fkColumns() []string {
	return []string{"table_name", "column_name", "referenced_table_name", "referenced_column_name", "constraint_name"}
}

func TestNewSchemaAnalyzer(t *testing.T) {
	analyzer, _ := newTestAnalyzer(t)

	if analyzer == nil {
		t.Fatal("Expected analyzer to be created, got nil")
	}
	if analyzer.TableColumns == nil {
		t.Error("Expected analyzer.TableColumns to be initialized")
	}
	if analyzer.ForeignKeys == nil {
		t.Error("Expected analyzer.ForeignKeys to be initialized")
	}
	if analyzer.RowCounts == nil {
		t.Error("Expected analyzer.RowCounts to be initialized")
	}
}

func TestCheckWorldSchema(t *testing.T) {
	analyzer, mock := newTestAnalyzer(t)

	expectWorldSchema(mock, sqlmock.NewRows(fkColumns()).
		AddRow("city", "CountryCode", "country", "Code", "city_ibfk_1").
		AddRow("countrylanguage", "CountryCode", "country", "Code", "countryLanguage_ibfk_1"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) AS count FROM country`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(239)))
	mock.ExpectQuery(`SELECT COUNT\(\*\) AS count FROM city`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(4079)))
	mock.ExpectQuery(`SELECT COUNT\(\*\) AS count FROM countrylanguage`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow("984"))

	if err := analyzer.Check(); err != nil {
		t.Fatalf("Expected a complete schema to pass, got %v", err)
	}
	if !analyzer.Ready() {
		t.Error("Expected analyzer to be ready")
	}
	if got := analyzer.RowCounts["countrylanguage"]; got != 984 {
		t.Errorf("Expected 984 countrylanguage rows, got %d", got)
	}
	if unlinked := analyzer.UnlinkedTables(); len(unlinked) != 0 {
		t.Errorf("Expected every table linked to country, got %v", unlinked)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

func TestUnlinkedTablesWithoutForeignKeys(t *testing.T) {
	analyzer, mock := newTestAnalyzer(t)

	expectWorldSchema(mock, sqlmock.NewRows(fkColumns()).
		AddRow("city", "CountryCode", "country", "Code", "city_ibfk_1"))

	if err := analyzer.AnalyzeSchema(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expected := []string{"countrylanguage"}
	if got := analyzer.UnlinkedTables(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected unlinked tables %v, got %v", expected, got)
	}
}

func TestMissingTablesAndColumns(t *testing.T) {
	analyzer, mock := newTestAnalyzer(t)

	mock.ExpectQuery(`FROM information_schema.tables`).
		WithArgs("world").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("Country").AddRow("city"))
	mock.ExpectQuery(`FROM information_schema.columns`).
		WithArgs("world", "country").
		WillReturnRows(columnRows("Code", "Name", "Continent", "Population", "Capital"))
	mock.ExpectQuery(`FROM information_schema.columns`).
		WithArgs("world", "city").
		WillReturnRows(columnRows("id", "name", "countrycode", "district", "population"))
	mock.ExpectQuery(`FROM information_schema.key_column_usage`).
		WillReturnRows(sqlmock.NewRows(fkColumns()))

	if err := analyzer.AnalyzeSchema(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got := analyzer.MissingTables(); !reflect.DeepEqual(got, []string{"countrylanguage"}) {
		t.Errorf("Expected countrylanguage to be missing, got %v", got)
	}
	// column names compare without case
	if got := analyzer.MissingColumns(); !reflect.DeepEqual(got, []string{"country.Region"}) {
		t.Errorf("Expected country.Region to be missing, got %v", got)
	}
	if analyzer.Ready() {
		t.Error("Expected analyzer not to be ready")
	}
}

func TestCheckReportsEmptyTables(t *testing.T) {
	analyzer, mock := newTestAnalyzer(t)

	expectWorldSchema(mock, sqlmock.NewRows(fkColumns()))
	mock.ExpectQuery(`FROM country`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(239)))
	mock.ExpectQuery(`FROM city`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectQuery(`FROM countrylanguage`).WillReturnRows(sqlmock.NewRows([]string{"count"}))

	err := analyzer.Check()
	if err == nil {
		t.Fatal("Expected empty tables to fail the check")
	}
	if !strings.Contains(err.Error(), "empty tables: city, countrylanguage") {
		t.Errorf("Expected empty tables in error, got '%v'", err)
	}
}

func TestAnalyzeSchemaError(t *testing.T) {
	analyzer, mock := newTestAnalyzer(t)

	mock.ExpectQuery(`FROM information_schema.tables`).WillReturnError(errors.New("access denied"))

	if err := analyzer.AnalyzeSchema(); err == nil {
		t.Error("Expected error to be returned")
	}
}
