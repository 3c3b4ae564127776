package gradcafe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const tablePage = `
<html><body>
<table>
  <thead>
    <tr><th>School</th><th>Program</th><th>Added On</th><th>Decision</th><th>Notes</th></tr>
  </thead>
  <tbody>
    <tr>
      <td><a href="/result/101">Example State University</a></td>
      <td>Computer Science, PhD</td>
      <td>2024-03-15</td>
      <td>Accepted</td>
      <td>GPA: 3.85 GRE 325 Fall 2024 International</td>
    </tr>
    <tr>
      <td>Other University</td>
      <td>Statistics MS</td>
      <td>01/20/2024</td>
      <td>Rejected</td>
      <td></td>
    </tr>
  </tbody>
</table>
</body></html>`

func TestExtractEntriesFromTable(t *testing.T) {
	entries, err := ExtractEntries([]byte(tablePage), 3)
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, entries, 2)

	first := entries[0]
	require.Equal(t, "/result/101", first.EntryURL)
	require.Equal(t, "Example State University", first.University)
	require.Equal(t, "Computer Science, PhD", first.Program)
	require.Equal(t, StatusAccepted, first.Status)
	require.Equal(t, DegreePhD, first.Degree)
	require.Equal(t, "2024-03-15", first.DecisionDate)
	require.Equal(t, "Fall 2024", first.Term)
	require.Equal(t, "International", first.Nationality)
	require.NotNil(t, first.GPA)
	require.Equal(t, 3.85, *first.GPA)
	require.Equal(t, map[string]float64{ScoreGRETotal: 325}, first.Scores)
	require.Equal(t, 3, first.SourcePage)

	second := entries[1]
	require.Equal(t, StatusRejected, second.Status)
	require.Equal(t, DegreeMasters, second.Degree)
	require.Nil(t, second.GPA)
}

const cardPage = `
<html><body>
<div class="results">
  <article>
    <a href="/result/202">details</a>
    <p>University: Example State University Program: Computer Science</p>
    <p>Status: Accepted GPA: 3.85</p>
  </article>
</div>
</body></html>`

func TestExtractEntriesFromCards(t *testing.T) {
	entries, err := ExtractEntries([]byte(cardPage), 1)
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, entries, 1)

	e := entries[0]
	require.Equal(t, "/result/202", e.EntryURL)
	require.Equal(t, "Example State University", e.University)
	require.Equal(t, "Computer Science", e.Program)
	require.Equal(t, StatusAccepted, e.Status)
	require.Equal(t, DegreeUnknown, e.Degree)
	require.NotNil(t, e.GPA)
	require.Equal(t, 3.85, *e.GPA)
}

// Minified card markup has no whitespace between sibling elements.
// Field values must still parse intact instead of bleeding into the
// neighboring element's text.
func TestExtractEntriesFromMinifiedCards(t *testing.T) {
	page := `<html><body><div class="results"><article><a href="/result/303">details</a>` +
		`<p>University: Example State University</p><p>Program: Computer Science</p>` +
		`<p>Status: Accepted</p><p>GPA: 3.85</p></article></div></body></html>`

	entries, err := ExtractEntries([]byte(page), 1)
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, entries, 1)

	e := entries[0]
	require.Equal(t, "Example State University", e.University)
	require.Equal(t, "Computer Science", e.Program)
	require.Equal(t, StatusAccepted, e.Status)
	require.NotNil(t, e.GPA)
	require.Equal(t, 3.85, *e.GPA)
}

func TestExtractEntriesEmptyTable(t *testing.T) {
	page := `
<html><body>
<table>
  <thead><tr><th>School</th><th>Program</th><th>Decision</th></tr></thead>
  <tbody></tbody>
</table>
</body></html>`
	entries, err := ExtractEntries([]byte(page), 1)
	if err != nil {
		t.Fatal(err)
	}
	require.Empty(t, entries)
}

func TestExtractEntriesNoStrategy(t *testing.T) {
	page := `<html><body><p>Please enable JavaScript to continue.</p></body></html>`
	_, err := ExtractEntries([]byte(page), 1)
	require.ErrorIs(t, err, ErrNoStrategy)
}

// Navigation and layout rows carry none of the identity fields and must
// not survive extraction.
func TestExtractEntriesDropsNoiseRows(t *testing.T) {
	page := `
<html><body>
<table>
  <thead><tr><th>School</th><th>Program</th><th>Decision</th></tr></thead>
  <tbody>
    <tr><td>Example University</td><td>Physics PhD</td><td>Accepted</td></tr>
    <tr><td></td><td></td><td></td></tr>
  </tbody>
</table>
</body></html>`
	entries, err := ExtractEntries([]byte(page), 1)
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, entries, 1)
	require.Equal(t, "Example University", entries[0].University)
}
