package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gradintake/lib/htmlutil"
	"gradintake/lib/scrapers/gradcafe"
	"gradintake/services/canonical"
)

// Missing is the explicit missing-value marker in the cleaned export.
// The loader relies on it: a cleaned row always carries every column,
// never an absent field.
const Missing = "NA"

// Columns is the fixed export schema consumed by the database loader.
// Order matters; the loader ingests by position as well as by name.
var Columns = []string{
	"p_id",
	"program",
	"university",
	"degree",
	"status",
	"decision_date",
	"term",
	"us_or_international",
	"gpa",
	"gre",
	"gre_v",
	"gre_aw",
	"comments",
	"entry_url",
}

// CleanedEntry is a canonical entry after normalization: enumerated
// fields resolved, numbers parsed or missing, markup stripped.
type CleanedEntry struct {
	RowID        int
	Program      string
	University   string
	Degree       string
	Status       string
	DecisionDate string
	Term         string
	Nationality  string
	GPA          *float64
	GRETotal     *float64
	GREVerbal    *float64
	GREAW        *float64
	Comments     string
	EntryURL     string
}

// date formats seen in the wild on survey listings, tried in order
var dateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"02-01-2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// normalizeDate parses a raw date string into ISO form, or "" when no
// known format matches.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, format := range dateFormats {
		t, err := time.Parse(format, s)
		if err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

// plausibleGPA keeps a GPA only when it falls inside the 0-5 nominal
// scale. Implausible values become missing instead of dropping the row:
// the other fields are still useful.
func plausibleGPA(v *float64) *float64 {
	if v == nil || *v < 0 || *v > 5 {
		return nil
	}
	return v
}

// normalizeTerm canonicalizes a term label to "Season YYYY". A missing
// year is inferred from the decision date when one exists.
func normalizeTerm(term, decisionDate string) string {
	term = strings.TrimSpace(term)
	if term == "" {
		return ""
	}
	fields := strings.Fields(term)
	season := ""
	year := ""
	for _, f := range fields {
		switch strings.ToLower(f) {
		case "fall", "spring", "summer", "winter":
			season = strings.ToUpper(f[:1]) + strings.ToLower(f[1:])
		default:
			if len(f) == 4 && strings.HasPrefix(f, "20") {
				year = f
			}
		}
	}
	if year == "" && decisionDate != "" {
		year = decisionDate[:4]
	}
	switch {
	case season != "" && year != "":
		return season + " " + year
	case season != "":
		return season
	default:
		return year
	}
}

// Cleaner normalizes canonical entries. When a name-canonicalization
// client is attached, program and university labels are rewritten
// best-effort; the original text always survives a failing or silent
// service.
type Cleaner struct {
	Canon *canonical.Client
}

func (c Cleaner) Clean(ctx context.Context, entries []gradcafe.Entry) []CleanedEntry {
	out := make([]CleanedEntry, len(entries))
	for i, e := range entries {
		program := htmlutil.StripMarkup(e.Program)
		university := htmlutil.StripMarkup(e.University)
		if c.Canon != nil {
			program, university = c.Canon.Canonicalize(ctx, program, university)
		}

		degree := string(e.Degree)
		if degree == "" {
			degree = string(gradcafe.DegreeUnknown)
		}
		status := string(e.Status)
		if status == "" {
			status = string(gradcafe.StatusUnknown)
		}

		date := normalizeDate(e.DecisionDate)
		cleaned := CleanedEntry{
			RowID:        i + 1,
			Program:      program,
			University:   university,
			Degree:       degree,
			Status:       status,
			DecisionDate: date,
			Term:         normalizeTerm(e.Term, date),
			Nationality:  e.Nationality,
			GPA:          plausibleGPA(e.GPA),
			GRETotal:     scoreOf(e, gradcafe.ScoreGRETotal),
			GREVerbal:    scoreOf(e, gradcafe.ScoreGREVerbal),
			GREAW:        scoreOf(e, gradcafe.ScoreGREAW),
			Comments:     htmlutil.StripMarkup(e.Comments),
			EntryURL:     e.EntryURL,
		}
		if e.GPA != nil && cleaned.GPA == nil {
			slog.Debug("implausible gpa set to missing", "gpa", *e.GPA, "entry_url", e.EntryURL)
		}
		out[i] = cleaned
	}
	return out
}

func scoreOf(e gradcafe.Entry, name string) *float64 {
	v, ok := e.Scores[name]
	if !ok {
		return nil
	}
	return &v
}

func orMissing(s string) string {
	if strings.TrimSpace(s) == "" {
		return Missing
	}
	return s
}

func floatOrMissing(v *float64) string {
	if v == nil {
		return Missing
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// WriteCSV emits the cleaned tabular export with the fixed column
// schema. Every absent value is the explicit marker, never an empty
// hole.
func WriteCSV(path string, rows []CleanedEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	err = w.Write(Columns)
	if err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			strconv.Itoa(r.RowID),
			orMissing(r.Program),
			orMissing(r.University),
			orMissing(r.Degree),
			orMissing(r.Status),
			orMissing(r.DecisionDate),
			orMissing(r.Term),
			orMissing(r.Nationality),
			floatOrMissing(r.GPA),
			floatOrMissing(r.GRETotal),
			floatOrMissing(r.GREVerbal),
			floatOrMissing(r.GREAW),
			orMissing(r.Comments),
			orMissing(r.EntryURL),
		}
		err = w.Write(record)
		if err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
