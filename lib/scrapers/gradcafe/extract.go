package gradcafe

import (
	"bytes"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"

	"gradintake/lib/htmlutil"
)

var tracer = otel.Tracer("gradintake.lib.scrapers.gradcafe")

// ErrNoStrategy is returned when neither the table nor the card
// strategy recognizes the page. It marks a parse-miss: the page is
// logged and dropped, never fatal.
var ErrNoStrategy = errors.New("no extraction strategy matched the page")

// ExtractEntries parses one page's HTML into zero or more entries.
// Strategies are tried in priority order: the structured results table
// first, then the card/div fallback. A recognized page with zero
// entries is a legitimately empty page, distinct from ErrNoStrategy.
func ExtractEntries(html []byte, page int) ([]Entry, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	table, idx := findResultsTable(doc)
	if table != nil {
		return entriesFromTable(table, idx, page), nil
	}

	entries, ok := entriesFromCards(doc, page)
	if !ok {
		return nil, ErrNoStrategy
	}
	return entries, nil
}

// column roles recognized in a results table header
const (
	colUniversity = "university"
	colProgram    = "program"
	colDate       = "date"
	colStatus     = "status"
	colComments   = "comments"
)

// findResultsTable looks for a table whose headers look like
// School | Program | Added On | Decision. Header cells come from
// `thead th`, or the first body row when the table has no thead.
func findResultsTable(doc *goquery.Document) (*goquery.Selection, map[string]int) {
	var found *goquery.Selection
	var foundIdx map[string]int

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		var heads []string
		table.Find("thead th").Each(func(_ int, th *goquery.Selection) {
			heads = append(heads, strings.ToLower(htmlutil.FlattenText(th)))
		})
		if len(heads) == 0 {
			table.Find("tbody tr").First().Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				heads = append(heads, strings.ToLower(htmlutil.FlattenText(cell)))
			})
		}
		if len(heads) == 0 {
			return true
		}

		idx := map[string]int{}
		for i, h := range heads {
			if strings.Contains(h, "school") || strings.Contains(h, "university") {
				idx[colUniversity] = i
			}
			if strings.Contains(h, "program") {
				idx[colProgram] = i
			}
			if strings.Contains(h, "added") || strings.Contains(h, "date") {
				idx[colDate] = i
			}
			if strings.Contains(h, "decision") || strings.Contains(h, "status") {
				idx[colStatus] = i
			}
			if strings.Contains(h, "comment") || strings.Contains(h, "note") {
				idx[colComments] = i
			}
		}

		_, hasUni := idx[colUniversity]
		_, hasProg := idx[colProgram]
		_, hasStatus := idx[colStatus]
		if (hasUni && hasProg) || hasStatus {
			found = table
			foundIdx = idx
			return false
		}
		return true
	})

	return found, foundIdx
}

func entriesFromTable(table *goquery.Selection, idx map[string]int, page int) []Entry {
	body := table.Find("tbody")
	if body.Length() == 0 {
		body = table
	}

	var out []Entry
	body.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td,th")
		if cells.Length() < 2 {
			return
		}
		// header rows inside the body are all th
		if tr.Find("td").Length() == 0 {
			return
		}

		cell := func(role string) string {
			i, ok := idx[role]
			if !ok || i >= cells.Length() {
				return ""
			}
			return htmlutil.FlattenText(cells.Eq(i))
		}

		uni := cell(colUniversity)
		prog := cell(colProgram)
		date := cell(colDate)
		status := cell(colStatus)
		comments := cell(colComments)
		blob := strings.Join([]string{uni, prog, date, status, comments}, " ")

		e := Entry{
			University: uni,
			Program:    prog,
			Comments:   comments,
			SourcePage: page,
		}
		e.EntryURL = entryHref(tr)
		e.Status = NormalizeStatus(status)
		if e.Status == StatusUnknown {
			e.Status = NormalizeStatus(rxStatus.first(blob))
		}
		e.Degree = NormalizeDegree(prog + " " + comments)
		e.DecisionDate = date
		if e.DecisionDate == "" {
			e.DecisionDate = parseDate(blob)
		}
		e.Term = parseTerm(comments)
		e.Nationality = parseNationality(comments)
		e.GPA = parseGPA(comments)
		e.Scores = parseScores(comments)

		if keepEntry(e) {
			out = append(out, e)
		}
	})
	return out
}

// card/div selectors tried in order when no results table is present,
// broadest last
var cardSelectors = []string{
	"div[role='row']",
	"article",
	".result-row, .c-result, .result, .search-result, tr.result",
	"div[class*='result'], section[class*='result']",
	"ul li",
}

func entriesFromCards(doc *goquery.Document, page int) ([]Entry, bool) {
	var blocks *goquery.Selection
	for _, sel := range cardSelectors {
		s := doc.Find(sel)
		if s.Length() > 0 {
			blocks = s
			break
		}
	}
	if blocks == nil {
		return nil, false
	}

	var out []Entry
	blocks.Each(func(_ int, b *goquery.Selection) {
		sub := func(selector string) string {
			return htmlutil.FlattenText(b.Find(selector).First())
		}

		blob := htmlutil.FlattenText(b)

		e := Entry{
			University: sub(".university, .institution, .inst"),
			Program:    sub(".program"),
			Comments:   sub(".comments, .notes"),
			SourcePage: page,
		}
		e.EntryURL = entryHref(b)
		e.Status = NormalizeStatus(sub(".status, .decision"))
		if e.Status == StatusUnknown {
			e.Status = NormalizeStatus(rxStatus.first(blob))
		}
		date := sub(".date, time")
		if date == "" {
			date = parseDate(blob)
		}
		e.DecisionDate = date

		// labeled "Program:"/"University:" text is common when the
		// structured sub-elements are absent
		if e.University == "" {
			e.University = labeledValue(blob, "University")
		}
		if e.Program == "" {
			e.Program = labeledValue(blob, "Program")
		}

		e.Degree = NormalizeDegree(e.Program + " " + blob)
		e.Term = parseTerm(blob)
		e.Nationality = parseNationality(blob)
		e.GPA = parseGPA(blob)
		e.Scores = parseScores(blob)

		if keepEntry(e) {
			out = append(out, e)
		}
	})
	return out, true
}

// labeledValue pulls the text following a "Label:" marker, up to the
// next labeled segment.
func labeledValue(blob, label string) string {
	i := strings.Index(blob, label+":")
	if i < 0 {
		return ""
	}
	rest := blob[i+len(label)+1:]
	if j := strings.Index(rest, ":"); j >= 0 {
		// back off to the start of the next label word
		if k := strings.LastIndex(rest[:j], " "); k >= 0 {
			rest = rest[:k]
		}
	}
	return strings.TrimSpace(rest)
}

func entryHref(sel *goquery.Selection) string {
	href := ""
	sel.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		h := a.AttrOr("href", "")
		if strings.Contains(h, "/result/") {
			href = h
			return false
		}
		return true
	})
	return href
}

// keepEntry drops rows that carry none of the identity-ish fields; such
// rows are navigation or layout noise.
func keepEntry(e Entry) bool {
	return e.University != "" || e.Program != "" || e.Status != StatusUnknown
}
