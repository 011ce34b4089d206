package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/vitebski/world-reports/pkg/models"
)

// DefaultDir is the conventional Markdown output directory
const DefaultDir = "reports"

var (
	titleColor  = color.New(color.FgCyan, color.Bold)
	noDataColor = color.New(color.FgYellow)
)

// Console writes records as a fixed-width table and returns the number of
// rows written. Nil records are skipped; when nothing is left the entity's
// "no data" line is written instead of a table.
func Console(w io.Writer, title string, entity models.EntityType, records []models.Record) int {
	p := policyFor(entity)

	if title != "" {
		titleColor.Fprintf(w, "\n=== %s ===\n", title)
	}

	rows := nonNil(records)
	if len(rows) == 0 {
		noDataColor.Fprintln(w, p.noData)
		return 0
	}

	headers := make([]string, len(p.columns))
	total := 0
	for i, c := range p.columns {
		headers[i] = pad(c.header, c.width, c.kind != kindText)
		total += c.width
	}
	total += len(p.columns) - 1

	fmt.Fprintln(w, strings.Join(headers, " "))
	fmt.Fprintln(w, strings.Repeat("-", total))

	for _, r := range rows {
		cells := make([]string, len(p.columns))
		for i, c := range p.columns {
			cells[i] = pad(format(c, r, true, true), c.width, c.kind != kindText)
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, " "), " "))
	}
	return len(rows)
}

// Markdown renders records as a GitHub-flavored Markdown table. Nil records
// are skipped; an empty set renders the "no data" line in place of rows.
func Markdown(title string, entity models.EntityType, records []models.Record) string {
	p := policyFor(entity)
	var sb strings.Builder

	if title != "" {
		sb.WriteString("## " + title + "\n\n")
	}

	headers := make([]string, len(p.columns))
	separators := make([]string, len(p.columns))
	for i, c := range p.columns {
		headers[i] = c.header
		separators[i] = "---"
	}
	sb.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	sb.WriteString("| " + strings.Join(separators, " | ") + " |\n")

	rows := nonNil(records)
	for _, r := range rows {
		cells := make([]string, len(p.columns))
		for i, c := range p.columns {
			cells[i] = escapeCell(format(c, r, p.mdThousands, p.mdPercentSign))
		}
		sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	if len(rows) == 0 {
		sb.WriteString("\n_" + p.noData + "_\n")
	}
	return sb.String()
}

// WriteMarkdown renders records to dir/filename, creating dir when absent,
// and returns the written path. The filename is used as given.
func WriteMarkdown(dir, filename, title string, entity models.EntityType, records []models.Record) (string, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(Markdown(title, entity, records)), 0o644); err != nil {
		return "", fmt.Errorf("write report %s: %w", path, err)
	}
	return path, nil
}

func format(c column, r models.Record, thousands, percentSign bool) string {
	v := c.value(r)
	switch c.kind {
	case kindCount:
		n, _ := v.(int64)
		if thousands {
			return humanize.Comma(n)
		}
		return strconv.FormatInt(n, 10)
	case kindPercent:
		f, _ := v.(float64)
		s := strconv.FormatFloat(f, 'f', 2, 64)
		if percentSign {
			s += "%"
		}
		return s
	}
	s, _ := v.(string)
	return s
}

func pad(s string, width int, right bool) string {
	if right {
		return fmt.Sprintf("%*s", width, s)
	}
	return fmt.Sprintf("%-*s", width, s)
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func nonNil(records []models.Record) []models.Record {
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if !models.IsNil(r) {
			out = append(out, r)
		}
	}
	return out
}
