package dataset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"gradintake/lib/htmlutil"
)

// RequiredKeys is the key coverage the validator checks by default on
// both the canonical and the cleaned dataset.
var RequiredKeys = []string{
	"program",
	"university",
	"degree",
	"status",
}

// free-text columns scanned for residual markup
var textKeys = []string{"program", "university", "comments"}

// Row is one dataset record in key/value form. A key that is absent or
// empty counts as missing; the explicit NA marker counts as present.
type Row map[string]string

// Report is the validator's observational output. It never causes data
// to be mutated or discarded; repair is the cleaner's job, upstream.
type Report struct {
	Rows int
	// MissingByKey counts rows missing each required key.
	MissingByKey map[string]int
	// MissingRows lists the indices (1-based) of rows missing at least
	// one required key.
	MissingRows []int
	// MarkupDetections counts rows whose free text still matches the
	// markup-fragment pattern.
	MarkupDetections int
}

// Validate checks required-key coverage and residual markup over a
// dataset. Read-only by contract.
func Validate(rows []Row, required []string) Report {
	report := Report{
		Rows:         len(rows),
		MissingByKey: map[string]int{},
	}
	for _, key := range required {
		report.MissingByKey[key] = 0
	}

	for i, row := range rows {
		missing := false
		for _, key := range required {
			if row[key] == "" {
				report.MissingByKey[key]++
				missing = true
			}
		}
		if missing {
			report.MissingRows = append(report.MissingRows, i+1)
		}

		for _, key := range textKeys {
			if htmlutil.ContainsMarkup(row[key]) {
				report.MarkupDetections++
				break
			}
		}
	}
	return report
}

// Render formats the report as a terminal table.
func (r Report) Render() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Check", "Value"})
	t.AppendRow(table.Row{"rows", r.Rows})

	keys := make([]string, 0, len(r.MissingByKey))
	for k := range r.MissingByKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.AppendRow(table.Row{fmt.Sprintf("rows missing %q", k), r.MissingByKey[k]})
	}

	t.AppendRow(table.Row{"rows missing any required key", len(r.MissingRows)})
	t.AppendRow(table.Row{"residual markup detections", r.MarkupDetections})
	t.SetStyle(table.StyleRounded)
	return t.Render()
}

// LoadCanonicalRows reads the canonical JSON dataset into validator
// rows. Null and absent fields both read back as missing.
func LoadCanonicalRows(path string) ([]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw []map[string]any
	err = json.Unmarshal(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("parse canonical dataset: %w", err)
	}

	rows := make([]Row, len(raw))
	for i, m := range raw {
		row := Row{}
		for k, v := range m {
			switch t := v.(type) {
			case string:
				row[k] = t
			case float64:
				row[k] = fmt.Sprint(t)
			}
		}
		rows[i] = row
	}
	return rows, nil
}

// LoadCleanedRows reads the cleaned CSV export into validator rows.
func LoadCleanedRows(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read export header: %w", err)
	}

	var rows []Row
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read export row: %w", err)
		}
		row := Row{}
		for i, cell := range record {
			if i < len(header) {
				row[header[i]] = cell
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
