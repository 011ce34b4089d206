package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vitebski/world-reports/internal/analyzer"
	"github.com/vitebski/world-reports/internal/query"
	"github.com/vitebski/world-reports/internal/ranker"
	"github.com/vitebski/world-reports/internal/render"
	"github.com/vitebski/world-reports/internal/report"
	"github.com/vitebski/world-reports/internal/scope"
	"github.com/vitebski/world-reports/internal/utils"
	"github.com/vitebski/world-reports/pkg/models"
)

// scopeFlags are the flags every scoped report accepts
type scopeFlags struct {
	kind     string
	name     string
	top      int
	markdown string
	cmd      *cobra.Command
}

func (f *scopeFlags) bind(cmd *cobra.Command, withTop bool) {
	f.cmd = cmd
	cmd.Flags().StringVarP(&f.kind, "scope", "s", "world", "Scope kind (world, continent, region, country, district, city)")
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "Name of the continent, region, country, district or city")
	cmd.Flags().StringVarP(&f.markdown, "markdown", "m", "", "Also write the report to this file in the reports directory")
	if withTop {
		cmd.Flags().IntVarP(&f.top, "top", "t", 0, "Only the N most populous records")
	}
}

func (f *scopeFlags) hasTop() bool {
	return f.cmd.Flags().Changed("top")
}

// scope parses the flags and rejects kinds the report cannot filter on
func (f *scopeFlags) scope(entity models.EntityType, family query.Family) (scope.Scope, error) {
	kind, err := scope.ParseKind(f.kind)
	if err != nil {
		return scope.Scope{}, err
	}
	if !query.Supports(entity, family, kind) {
		return scope.Scope{}, fmt.Errorf("%s reports cannot be scoped by %s", entity, kind)
	}
	if kind == scope.KindWorld {
		return scope.World(), nil
	}
	return scope.New(kind, f.name), nil
}

func (f *scopeFlags) title(noun string, s scope.Scope) string {
	where := "in the world"
	if s.Kind != scope.KindWorld {
		where = "in " + s.Name()
	}
	if f.hasTop() {
		return fmt.Sprintf("Top %d %s %s", f.top, noun, where)
	}
	return strings.ToUpper(noun[:1]) + noun[1:] + " " + where
}

// output prints the report and writes the Markdown copy when asked to
func (a *app) output(title, markdown string, entity models.EntityType, records []models.Record) error {
	render.Console(os.Stdout, title, entity, records)
	if markdown == "" {
		return nil
	}
	path, err := render.WriteMarkdown(a.reportsDir, markdown, title, entity, records)
	if err != nil {
		a.logger.Errorf("Could not write Markdown report: %v", err)
		return err
	}
	a.logger.Infof("Wrote %s", path)
	return nil
}

func (a *app) countriesCmd() *cobra.Command {
	f := &scopeFlags{}
	cmd := &cobra.Command{
		Use:   "countries",
		Short: "Countries ordered by population",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.entityReport(f, models.EntityCountry, "countries", "")
		},
	}
	f.bind(cmd, true)
	return cmd
}

func (a *app) citiesCmd() *cobra.Command {
	f := &scopeFlags{}
	var inCountry string
	cmd := &cobra.Command{
		Use:   "cities",
		Short: "Cities ordered by population",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.entityReport(f, models.EntityCity, "cities", inCountry)
		},
	}
	f.bind(cmd, true)
	cmd.Flags().StringVar(&inCountry, "in-country", "", "Keep only cities of this country (case-insensitive)")
	return cmd
}

func (a *app) capitalsCmd() *cobra.Command {
	f := &scopeFlags{}
	var inCountry string
	cmd := &cobra.Command{
		Use:   "capitals",
		Short: "Capital cities ordered by population",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.entityReport(f, models.EntityCapital, "capital cities", inCountry)
		},
	}
	f.bind(cmd, true)
	cmd.Flags().StringVar(&inCountry, "in-country", "", "Keep only the capital of this country (case-insensitive)")
	return cmd
}

func (a *app) languagesCmd() *cobra.Command {
	f := &scopeFlags{}
	var languages []string
	cmd := &cobra.Command{
		Use:   "languages",
		Short: "Speakers of the major languages and their share of the world population",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := f.scope(models.EntityLanguage, query.FamilyList)
			if err != nil {
				return err
			}
			return a.withReporter(func(r *report.Reporter) error {
				r.LanguageSet = languages
				var records []models.Record
				if f.hasTop() {
					records, err = r.TopN(models.EntityLanguage, s, f.top)
				} else {
					records, err = r.List(models.EntityLanguage, s)
				}
				if err != nil {
					return err
				}
				return a.output(f.title("language speakers", s), f.markdown, models.EntityLanguage, records)
			})
		},
	}
	f.bind(cmd, true)
	cmd.Flags().StringSliceVar(&languages, "languages", report.DefaultLanguages, "Languages to report")
	return cmd
}

// entityReport runs a country, city or capital listing. A non-empty
// inCountry narrows the fetched cities in memory before ranking.
func (a *app) entityReport(f *scopeFlags, entity models.EntityType, noun, inCountry string) error {
	s, err := f.scope(entity, query.FamilyList)
	if err != nil {
		return err
	}

	return a.withReporter(func(r *report.Reporter) error {
		var records []models.Record
		switch {
		case inCountry != "":
			var cities []*models.City
			if entity == models.EntityCapital {
				cities, err = r.Capitals(s)
			} else {
				cities, err = r.Cities(s)
			}
			if err != nil {
				return err
			}
			cities = report.FilterByCountry(cities, inCountry)
			if f.hasTop() {
				cities = ranker.Rank(cities, f.top)
			}
			records = models.AsRecords(cities)
		case f.hasTop():
			records, err = r.TopN(entity, s, f.top)
		default:
			records, err = r.List(entity, s)
		}
		if err != nil {
			return err
		}

		title := f.title(noun, s)
		if inCountry != "" {
			title += " (" + inCountry + ")"
		}
		return a.output(title, f.markdown, entity, records)
	})
}

func (a *app) urbanCmd() *cobra.Command {
	f := &scopeFlags{}
	var by string
	cmd := &cobra.Command{
		Use:   "urban",
		Short: "Urban and total population of a scope, or broken down by continent, region or country",
		RunE: func(cmd *cobra.Command, args []string) error {
			if by == "" {
				s, err := f.scope(models.EntityUrbanization, query.FamilyAggregate)
				if err != nil {
					return err
				}
				return a.withReporter(func(r *report.Reporter) error {
					stat, err := r.Aggregate(s)
					if err != nil {
						return err
					}
					title := "Urban population of " + s.Name()
					return a.output(title, f.markdown, models.EntityUrbanization, []models.Record{stat})
				})
			}

			kind, err := scope.ParseKind(by)
			if err != nil {
				return err
			}
			if kind != scope.KindContinent && kind != scope.KindRegion && kind != scope.KindCountry {
				return fmt.Errorf("urban population can be broken down by continent, region or country, not %s", kind)
			}
			s, err := f.scope(models.EntityUrbanization, query.FamilyBreakdown)
			if err != nil {
				return err
			}
			return a.withReporter(func(r *report.Reporter) error {
				stats, err := r.Breakdown(s, kind)
				if err != nil {
					return err
				}
				title := fmt.Sprintf("Urban population by %s in %s", kind, s.Name())
				return a.output(title, f.markdown, models.EntityUrbanization, models.AsRecords(stats))
			})
		},
	}
	f.bind(cmd, false)
	cmd.Flags().StringVarP(&by, "by", "b", "", "Break down by continent, region or country")
	return cmd
}

func (a *app) populationCmd() *cobra.Command {
	f := &scopeFlags{}
	cmd := &cobra.Command{
		Use:   "population",
		Short: "Total population of the world, a continent, region, country, district or city",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := f.scope(models.EntityPopulation, query.FamilyAggregate)
			if err != nil {
				return err
			}
			return a.withReporter(func(r *report.Reporter) error {
				stat, err := r.Population(s)
				if err != nil {
					return err
				}
				return a.output("Population of "+s.Name(), f.markdown, models.EntityPopulation, []models.Record{stat})
			})
		},
	}
	f.bind(cmd, false)
	return cmd
}

func (a *app) allCmd() *cobra.Command {
	sample := report.DefaultSample
	var skipCheck bool
	cmd := &cobra.Command{
		Use:   "all",
		Short: "Run the standard report set and export every report as Markdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.connect()
			if err != nil {
				return err
			}
			defer db.Disconnect()

			if !skipCheck {
				schemaAnalyzer := analyzer.NewSchemaAnalyzer(db, a.logger)
				if err := schemaAnalyzer.Check(); err != nil {
					utils.PrintSchemaCheck(os.Stdout, schemaAnalyzer)
					return err
				}
			}

			r := report.NewReporter(db, a.logger)
			result := report.RunBatch(r, report.StandardSpecs(sample), os.Stdout, a.reportsDir)
			utils.PrintSummary(os.Stdout, result, a.reportsDir)

			if len(result.Failed) > 0 {
				return fmt.Errorf("%d of %d reports failed", len(result.Failed), result.Run)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sample.Continent, "continent", sample.Continent, "Continent used by the scoped reports")
	cmd.Flags().StringVar(&sample.Region, "region", sample.Region, "Region used by the scoped reports")
	cmd.Flags().StringVar(&sample.Country, "country", sample.Country, "Country used by the scoped reports")
	cmd.Flags().StringVar(&sample.District, "district", sample.District, "District used by the scoped reports")
	cmd.Flags().StringVar(&sample.City, "city", sample.City, "City used by the population report")
	cmd.Flags().IntVarP(&sample.N, "top", "t", sample.N, "Size of the Top-N reports")
	cmd.Flags().BoolVar(&skipCheck, "skip-check", false, "Do not verify the schema before running")
	return cmd
}

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the database has the tables and columns the reports read",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.connect()
			if err != nil {
				return err
			}
			defer db.Disconnect()

			schemaAnalyzer := analyzer.NewSchemaAnalyzer(db, a.logger)
			err = schemaAnalyzer.Check()
			utils.PrintSchemaCheck(os.Stdout, schemaAnalyzer)
			return err
		},
	}
}
