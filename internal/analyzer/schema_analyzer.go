package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vitebski/world-reports/internal/connector"
	"github.com/vitebski/world-reports/internal/mapper"
	"github.com/vitebski/world-reports/pkg/models"
	"github.com/yourbasic/graph"
)

// RootTable is the table every report joins through
const RootTable = "country"

// RequiredTables lists the tables the reports read, in check order
var RequiredTables = []string{"country", "city", "countrylanguage"}

// RequiredColumns lists the columns each report query selects or filters on
var RequiredColumns = map[string][]string{
	"country":         {"Code", "Name", "Continent", "Region", "Population", "Capital"},
	"city":            {"ID", "Name", "CountryCode", "District", "Population"},
	"countrylanguage": {"CountryCode", "Language", "IsOfficial", "Percentage"},
}

// SchemaAnalyzer checks that the connected database carries the world dataset
type SchemaAnalyzer struct {
	DB           *connector.DatabaseConnector
	Tables       []string
	TableColumns map[string][]models.Column
	ForeignKeys  map[string][]models.ForeignKey
	RowCounts    map[string]int64
	// JoinGraph links tables by declared foreign keys in either direction
	JoinGraph     *graph.Mutable
	TableIndexMap map[string]int
	Logger        *logrus.Logger
}

// NewSchemaAnalyzer creates a new schema analyzer
func NewSchemaAnalyzer(db *connector.DatabaseConnector, logger *logrus.Logger) *SchemaAnalyzer {
	return &SchemaAnalyzer{
		DB:            db,
		TableColumns:  make(map[string][]models.Column),
		ForeignKeys:   make(map[string][]models.ForeignKey),
		RowCounts:     make(map[string]int64),
		TableIndexMap: make(map[string]int),
		Logger:        logger,
	}
}

// AnalyzeSchema reads the tables, the columns of the required tables and the
// declared foreign keys of the schema
func (sa *SchemaAnalyzer) AnalyzeSchema() error {
	tablesQuery := `
		SELECT table_name AS table_name
		FROM information_schema.tables
		WHERE table_schema = ?
		AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`
	tablesResult, err := sa.DB.ExecuteQuery(tablesQuery, sa.DB.Database)
	if err != nil {
		sa.Logger.Errorf("Error getting tables: %v", err)
		return err
	}

	sa.Tables = sa.Tables[:0]
	for _, row := range tablesResult {
		sa.Tables = append(sa.Tables, strings.ToLower(mapper.String(row, "table_name")))
	}

	for _, table := range RequiredTables {
		if !sa.HasTable(table) {
			continue
		}
		columnsQuery := `
			SELECT
				column_name AS column_name,
				data_type AS data_type,
				is_nullable AS is_nullable,
				column_key AS column_key
			FROM information_schema.columns
			WHERE table_schema = ?
			AND table_name = ?
			ORDER BY ordinal_position
		`
		columnsResult, err := sa.DB.ExecuteQuery(columnsQuery, sa.DB.Database, table)
		if err != nil {
			sa.Logger.Errorf("Error getting columns for table %s: %v", table, err)
			return err
		}

		columns := make([]models.Column, 0, len(columnsResult))
		for _, row := range columnsResult {
			columns = append(columns, models.Column{
				Name:       mapper.String(row, "column_name"),
				DataType:   mapper.String(row, "data_type"),
				IsNullable: mapper.String(row, "is_nullable") == "YES",
				ColumnKey:  mapper.String(row, "column_key"),
			})
		}
		sa.TableColumns[table] = columns
	}

	fkQuery := `
		SELECT
			table_name AS table_name,
			column_name AS column_name,
			referenced_table_name AS referenced_table_name,
			referenced_column_name AS referenced_column_name,
			constraint_name AS constraint_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ?
		AND referenced_table_name IS NOT NULL
		ORDER BY table_name, column_name
	`
	fkResult, err := sa.DB.ExecuteQuery(fkQuery, sa.DB.Database)
	if err != nil {
		sa.Logger.Errorf("Error getting foreign keys: %v", err)
		return err
	}

	for i, table := range sa.Tables {
		sa.TableIndexMap[table] = i
	}
	sa.JoinGraph = graph.New(len(sa.Tables))
	sa.ForeignKeys = make(map[string][]models.ForeignKey)

	for _, row := range fkResult {
		fk := models.ForeignKey{
			Table:            strings.ToLower(mapper.String(row, "table_name")),
			Column:           mapper.String(row, "column_name"),
			ReferencedTable:  strings.ToLower(mapper.String(row, "referenced_table_name")),
			ReferencedColumn: mapper.String(row, "referenced_column_name"),
			ConstraintName:   mapper.String(row, "constraint_name"),
		}
		sa.ForeignKeys[fk.Table] = append(sa.ForeignKeys[fk.Table], fk)

		if src, ok := sa.TableIndexMap[fk.Table]; ok {
			if dst, ok := sa.TableIndexMap[fk.ReferencedTable]; ok {
				sa.JoinGraph.AddBoth(src, dst)
			}
		}
	}

	sa.Logger.Debugf("Found %d tables and %d tables with foreign keys", len(sa.Tables), len(sa.ForeignKeys))
	return nil
}

// HasTable reports whether the schema has the named table
func (sa *SchemaAnalyzer) HasTable(table string) bool {
	for _, t := range sa.Tables {
		if strings.EqualFold(t, table) {
			return true
		}
	}
	return false
}

// MissingTables returns the required tables absent from the schema
func (sa *SchemaAnalyzer) MissingTables() []string {
	var missing []string
	for _, table := range RequiredTables {
		if !sa.HasTable(table) {
			missing = append(missing, table)
		}
	}
	return missing
}

// MissingColumns returns the required columns, as table.column, absent from
// tables that do exist
func (sa *SchemaAnalyzer) MissingColumns() []string {
	var missing []string
	for _, table := range RequiredTables {
		if !sa.HasTable(table) {
			continue
		}
		present := make(map[string]bool)
		for _, col := range sa.TableColumns[table] {
			present[strings.ToLower(col.Name)] = true
		}
		for _, col := range RequiredColumns[table] {
			if !present[strings.ToLower(col)] {
				missing = append(missing, table+"."+col)
			}
		}
	}
	return missing
}

// UnlinkedTables returns the required tables with no chain of declared
// foreign keys to RootTable. Reports still join them on matching codes.
func (sa *SchemaAnalyzer) UnlinkedTables() []string {
	root, ok := sa.TableIndexMap[RootTable]
	if !ok || sa.JoinGraph == nil {
		return nil
	}

	component := make(map[int]bool)
	for _, c := range graph.Components(sa.JoinGraph) {
		for _, v := range c {
			if v == root {
				for _, w := range c {
					component[w] = true
				}
			}
		}
	}

	var unlinked []string
	for _, table := range RequiredTables {
		idx, ok := sa.TableIndexMap[table]
		if ok && !component[idx] {
			unlinked = append(unlinked, table)
		}
	}
	return unlinked
}

// CountRows counts the rows of each required table that exists. Table names
// come from RequiredTables only.
func (sa *SchemaAnalyzer) CountRows() error {
	for _, table := range RequiredTables {
		if !sa.HasTable(table) {
			continue
		}
		result, err := sa.DB.ExecuteQuery(fmt.Sprintf("SELECT COUNT(*) AS count FROM %s", table))
		if err != nil {
			sa.Logger.Errorf("Could not count rows of table %s: %v", table, err)
			return err
		}
		if len(result) == 0 {
			sa.RowCounts[table] = 0
			continue
		}
		sa.RowCounts[table] = mapper.Int64(result[0], "count")
	}
	return nil
}

// EmptyTables returns the counted tables without rows, sorted
func (sa *SchemaAnalyzer) EmptyTables() []string {
	var empty []string
	for table, n := range sa.RowCounts {
		if n == 0 {
			empty = append(empty, table)
		}
	}
	sort.Strings(empty)
	return empty
}

// Ready reports whether every required table and column exists and holds data
func (sa *SchemaAnalyzer) Ready() bool {
	return len(sa.MissingTables()) == 0 && len(sa.MissingColumns()) == 0 && len(sa.EmptyTables()) == 0
}

// Check runs the full analysis and returns an error describing what the
// reports would be missing
func (sa *SchemaAnalyzer) Check() error {
	if err := sa.AnalyzeSchema(); err != nil {
		return err
	}
	if err := sa.CountRows(); err != nil {
		return err
	}

	for _, table := range sa.UnlinkedTables() {
		sa.Logger.Warnf("Table %s has no declared foreign key path to %s", table, RootTable)
	}

	var problems []string
	if missing := sa.MissingTables(); len(missing) > 0 {
		problems = append(problems, "missing tables: "+strings.Join(missing, ", "))
	}
	if missing := sa.MissingColumns(); len(missing) > 0 {
		problems = append(problems, "missing columns: "+strings.Join(missing, ", "))
	}
	if empty := sa.EmptyTables(); len(empty) > 0 {
		problems = append(problems, "empty tables: "+strings.Join(empty, ", "))
	}
	if len(problems) > 0 {
		return fmt.Errorf("schema %s is not a world dataset: %s", sa.DB.Database, strings.Join(problems, "; "))
	}

	sa.Logger.Infof("Schema %s has every table and column the reports need", sa.DB.Database)
	return nil
}
