package gradcafe

import (
	"regexp"
	"strconv"
	"strings"
)

// Field recognition is a fixed table of named patterns, tried in the
// order listed. Keeping them in one place makes the extraction rules
// auditable and testable on their own.
type fieldPattern struct {
	name string
	re   *regexp.Regexp
}

var (
	rxGPA    = fieldPattern{"gpa", regexp.MustCompile(`(?i)\bGPA[:\s]*([0-5](?:\.\d{1,2})?)\b`)}
	rxGRET   = fieldPattern{ScoreGRETotal, regexp.MustCompile(`(?i)\bGRE(?:\s*Total)?[:\s]*([12]\d{2,3})\b`)}
	rxGREV   = fieldPattern{ScoreGREVerbal, regexp.MustCompile(`(?i)\bGRE-?V(?:erbal)?[:\s]*([12]\d{2})\b`)}
	rxGREAW  = fieldPattern{ScoreGREAW, regexp.MustCompile(`(?i)\bGRE-?AW[:\s]*([0-6](?:\.\d)?)\b`)}
	rxSeason = fieldPattern{"season", regexp.MustCompile(`(?i)\b(Fall|Spring|Summer|Winter)\b`)}
	rxYear   = fieldPattern{"year", regexp.MustCompile(`\b(20\d{2})\b`)}
	rxStatus = fieldPattern{"status", regexp.MustCompile(`(?i)\b(accepted|rejected|denied|wait[ -]?list(?:ed)?|interview|offer)\b`)}
	rxDegree = fieldPattern{"degree", regexp.MustCompile(`(?i)\b(Ph\.?D|Masters?|M\.?S\.?c?|M\.?Eng|MBA|MA|PsyD|EdD|JD)\b`)}
	rxIntl   = fieldPattern{"nationality", regexp.MustCompile(`(?i)\b(international|american|domestic|us citizen)\b`)}
	rxDate   = fieldPattern{"date", regexp.MustCompile(`\b(?:\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4}|\d{4}-\d{2}-\d{2}|[A-Z][a-z]{2,8} \d{1,2}, \d{4})\b`)}
)

func (p fieldPattern) first(s string) string {
	m := p.re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// parseGPA extracts a GPA value from text. The pattern already
// constrains it to the plausible 0-5 scale; anything unparsable is
// reported as absent.
func parseGPA(s string) *float64 {
	raw := rxGPA.first(s)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseScores extracts labeled test scores from text. Only keys with a
// recognized value are present in the result.
func parseScores(s string) map[string]float64 {
	var scores map[string]float64
	for _, p := range []fieldPattern{rxGRET, rxGREV, rxGREAW} {
		raw := p.first(s)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		if scores == nil {
			scores = map[string]float64{}
		}
		scores[p.name] = v
	}
	return scores
}

// parseTerm builds a "Season YYYY" label from whatever hints the text
// carries. Season alone or year alone is still worth keeping.
func parseTerm(s string) string {
	season := rxSeason.first(s)
	year := rxYear.first(s)
	if season != "" {
		season = strings.ToUpper(season[:1]) + strings.ToLower(season[1:])
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

func parseDate(s string) string {
	m := rxDate.re.FindString(s)
	return m
}

func parseNationality(s string) string {
	switch strings.ToLower(rxIntl.first(s)) {
	case "international":
		return "International"
	case "american", "domestic", "us citizen":
		return "American"
	}
	return ""
}

// NormalizeStatus maps free text onto the closed status vocabulary,
// falling back to Unknown when no keyword matches.
func NormalizeStatus(s string) Status {
	if strings.TrimSpace(s) == "" {
		return StatusUnknown
	}
	t := strings.ToLower(s)
	switch {
	case strings.Contains(t, "accept"), strings.Contains(t, "offer"):
		return StatusAccepted
	case strings.Contains(t, "reject"), strings.Contains(t, "denied"):
		return StatusRejected
	case strings.Contains(t, "wait"):
		return StatusWaitlisted
	case strings.Contains(t, "interview"):
		return StatusInterview
	case strings.Contains(t, "other"):
		return StatusOther
	}
	return StatusUnknown
}

// NormalizeDegree maps free text onto the closed degree vocabulary,
// falling back to Unknown when no keyword matches.
func NormalizeDegree(s string) Degree {
	kw := rxDegree.first(s)
	if kw == "" {
		return DegreeUnknown
	}
	t := strings.ToLower(strings.ReplaceAll(kw, ".", ""))
	switch {
	case strings.HasPrefix(t, "phd"):
		return DegreePhD
	case t == "ms", t == "msc", t == "master", t == "masters", t == "meng", t == "ma", t == "mba":
		return DegreeMasters
	default:
		return DegreeOther
	}
}
