package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/use-agent/finrate/models"
	"github.com/use-agent/finrate/parser"
)

// NewTable returns a rounded-style table writer mirrored to w.
func NewTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderSnapshot(w io.Writer, title string, snap models.CompanySnapshot) {
	t := NewTable(w)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Field", "Value"})
	for _, label := range snap.Labels() {
		t.AppendRow(table.Row{label, snap[label].String()})
	}
	t.Render()
}

func renderSectors(w io.Writer, st *models.SectorTable) {
	t := NewTable(w)
	t.SetTitle("Sectors")

	header := make(table.Row, 0, len(st.Columns))
	var configs []table.ColumnConfig
	for _, c := range st.Columns {
		header = append(header, c)
		if st.IsPercent(c) {
			configs = append(configs, table.ColumnConfig{Name: c, Align: text.AlignRight})
		}
	}
	t.AppendHeader(header)
	t.SetColumnConfigs(configs)

	for _, r := range st.Rows {
		row := make(table.Row, 0, len(st.Columns))
		for _, c := range st.Columns {
			v := r[c]
			if f, ok := v.Float(); ok && st.IsPercent(c) {
				row = append(row, parser.FormatPercent(f))
				continue
			}
			row = append(row, v.String())
		}
		t.AppendRow(row)
	}
	t.Render()
}

func renderRatings(w io.Writer, r models.RatingSet) {
	t := NewTable(w)
	t.SetTitle("Ratings")
	t.AppendHeader(table.Row{"Score", "Value"})
	t.AppendRows([]table.Row{
		{"Valuation", score(r.ValuationScore)},
		{"Growth", score(r.GrowthScore)},
		{"Financial health", score(r.FinancialHealthScore)},
	})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Overall", score(r.OverallScore)})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	t.Render()
}

func score(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func snapshotTitle(ticker, sourceURL string) string {
	if ticker != "" {
		return fmt.Sprintf("Snapshot: %s", ticker)
	}
	return fmt.Sprintf("Snapshot: %s", sourceURL)
}
