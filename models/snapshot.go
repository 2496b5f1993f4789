package models

import (
	"bytes"
	"encoding/json"
	"sort"
)

// CompanySnapshot maps a snapshot-table label (e.g. "P/E") to its value.
type CompanySnapshot map[string]Value

// Labels returns the snapshot labels in sorted order.
func (s CompanySnapshot) Labels() []string {
	labels := make([]string, 0, len(s))
	for k := range s {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	return labels
}

// UnmarshalJSON decodes a label to value object. Labels whose value is
// null are dropped, so they read as absent rather than zero.
func (s *CompanySnapshot) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*s = nil
		return nil
	}
	out := make(CompanySnapshot, len(raw))
	for label, msg := range raw {
		if bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
			continue
		}
		var v Value
		if err := json.Unmarshal(msg, &v); err != nil {
			return err
		}
		out[label] = v
	}
	*s = out
	return nil
}

// Lookup returns the first alias in s that holds a number. Aliases present
// only as text are skipped. ok is false when none is numeric.
func (s CompanySnapshot) Lookup(aliases ...string) (float64, bool) {
	for _, a := range aliases {
		if f, ok := s[a].Float(); ok {
			return f, true
		}
	}
	return 0, false
}

// Normalized returns a copy of s with every text value run through
// normalize. Numbers are kept as they are.
func (s CompanySnapshot) Normalized(normalize func(string) Value) CompanySnapshot {
	out := make(CompanySnapshot, len(s))
	for label, v := range s {
		if !v.IsNumber() {
			v = normalize(v.Str)
		}
		out[label] = v
	}
	return out
}

// SectorRow maps a column header to its cell.
type SectorRow map[string]Value

// SectorTable is the sector performance table, rows in page order.
// Every row carries exactly the keys in Columns.
type SectorTable struct {
	Columns []string    `json:"columns"`
	Rows    []SectorRow `json:"rows"`

	// PercentColumns names the columns whose cells were parsed from
	// percentages into fractions.
	PercentColumns []string `json:"percent_columns,omitempty"`
}

// IsPercent reports whether the named column holds percentage fractions.
func (t *SectorTable) IsPercent(name string) bool {
	for _, c := range t.PercentColumns {
		if c == name {
			return true
		}
	}
	return false
}

// Column returns all cells of the named column in row order.
func (t *SectorTable) Column(name string) []Value {
	out := make([]Value, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, r[name])
	}
	return out
}

// RatingSet holds the derived 0–100 scores for one snapshot.
type RatingSet struct {
	ValuationScore       float64 `json:"valuation_score"`
	GrowthScore          float64 `json:"growth_score"`
	FinancialHealthScore float64 `json:"financial_health_score"`
	OverallScore         float64 `json:"overall_score"`
}
