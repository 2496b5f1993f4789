// Package parser turns screener pages into snapshots and sector tables.
//
// The selectors below are a contract with an external page layout. They are
// matched as-is; when the site changes its markup, parsing fails (sector
// table) or comes back sparse, and the drift detector flags the change.
package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/use-agent/finrate/models"
)

// SnapshotTableSelector matches the label/value tables on a quote page.
const SnapshotTableSelector = "table.snapshot-table2"

// SectorTableSelectors are tried in order; the first that matches wins.
var SectorTableSelectors = []string{
	"table.table-light",
	"table.groups-table-overview",
	"table#groups-table-overview",
}

var sectorMatchers = mustCompile(SectorTableSelectors)

func mustCompile(selectors []string) []cascadia.Selector {
	out := make([]cascadia.Selector, 0, len(selectors))
	for _, s := range selectors {
		out = append(out, cascadia.MustCompile(s))
	}
	return out
}

func newDocument(doc []byte) (*goquery.Document, error) {
	d, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInternal, "parse html", err)
	}
	return d, nil
}

// ParseSnapshot reads every snapshot table and collects its cells as
// label/value pairs, left to right. A label seen twice keeps the later value.
// A page without snapshot tables is an ErrCodeNoTables error.
func ParseSnapshot(doc []byte) (models.CompanySnapshot, error) {
	d, err := newDocument(doc)
	if err != nil {
		return nil, err
	}

	tables := d.Find(SnapshotTableSelector)
	if tables.Length() == 0 {
		return nil, models.NewScrapeError(models.ErrCodeNoTables,
			fmt.Sprintf("no %q tables on page", SnapshotTableSelector), nil)
	}

	snap := make(models.CompanySnapshot)
	tables.Each(func(_ int, table *goquery.Selection) {
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			// An odd trailing cell has no value and is skipped.
			for i := 0; i+1 < cells.Length(); i += 2 {
				label := strings.TrimSpace(cells.Eq(i).Text())
				snap[label] = Normalize(cells.Eq(i + 1).Text())
			}
		})
	})
	return snap, nil
}

// findSectorTable walks the matcher chain and returns the first hit.
func findSectorTable(d *goquery.Document) (*goquery.Selection, bool) {
	for _, m := range sectorMatchers {
		if sel := d.FindMatcher(m); sel.Length() > 0 {
			return sel.First(), true
		}
	}
	return nil, false
}

// ParseSectorTable extracts the sector performance table. Columns whose first
// data cell ends in "%" are converted to fractions; other cells stay text.
func ParseSectorTable(doc []byte) (*models.SectorTable, error) {
	d, err := newDocument(doc)
	if err != nil {
		return nil, err
	}

	table, ok := findSectorTable(d)
	if !ok {
		return nil, models.NewScrapeError(models.ErrCodeTableNotFound,
			"sector table not found (tried "+strings.Join(SectorTableSelectors, ", ")+")", nil)
	}

	rows := table.Find("tr")
	header := rows.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.HasClass("table-header")
	}).First()
	if header.Length() == 0 {
		header = rows.First()
	}

	columns := cellTexts(header)
	if len(columns) == 0 {
		return nil, models.NewScrapeError(models.ErrCodeTableNotFound, "sector table has no header row", nil)
	}
	headerNode := header.Get(0)

	var raw [][]string
	rows.Each(func(_ int, row *goquery.Selection) {
		if row.Get(0) == headerNode {
			return
		}
		raw = append(raw, fitRow(cellTexts(row), len(columns)))
	})

	return buildSectorTable(columns, raw), nil
}

// cellTexts returns the trimmed text of each td/th cell in the row.
func cellTexts(row *goquery.Selection) []string {
	cells := row.ChildrenFiltered("td, th")
	out := make([]string, 0, cells.Length())
	cells.Each(func(_ int, c *goquery.Selection) {
		out = append(out, strings.TrimSpace(c.Text()))
	})
	return out
}

// fitRow pads a short row with empty cells and truncates a long one so every
// row has exactly n cells.
func fitRow(cells []string, n int) []string {
	if len(cells) >= n {
		return cells[:n]
	}
	padded := make([]string, n)
	copy(padded, cells)
	return padded
}

func buildSectorTable(columns []string, raw [][]string) *models.SectorTable {
	percentCol := make([]bool, len(columns))
	if len(raw) > 0 {
		for i := range columns {
			percentCol[i] = strings.HasSuffix(raw[0][i], "%")
		}
	}

	t := &models.SectorTable{
		Columns: append([]string(nil), columns...),
		Rows:    make([]models.SectorRow, 0, len(raw)),
	}
	for i, name := range columns {
		if percentCol[i] {
			t.PercentColumns = append(t.PercentColumns, name)
		}
	}
	for _, cells := range raw {
		row := make(models.SectorRow, len(columns))
		for i, name := range columns {
			row[name] = models.Text(cells[i])
			if percentCol[i] {
				if f, ok := parsePercent(cells[i]); ok {
					row[name] = models.Number(f)
				}
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
