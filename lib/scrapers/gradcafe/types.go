package gradcafe

// Degree is the canonical degree label attached to an entry.
type Degree string

const (
	DegreePhD     Degree = "PhD"
	DegreeMasters Degree = "Masters"
	DegreeOther   Degree = "Other"
	DegreeUnknown Degree = "Unknown"
)

// Status is the canonical decision label attached to an entry.
type Status string

const (
	StatusAccepted   Status = "Accepted"
	StatusRejected   Status = "Rejected"
	StatusWaitlisted Status = "Wait-listed"
	StatusInterview  Status = "Interview"
	StatusOther      Status = "Other"
	StatusUnknown    Status = "Unknown"
)

// Score names used as keys of Entry.Scores.
const (
	ScoreGRETotal  = "gre_total"
	ScoreGREVerbal = "gre_verbal"
	ScoreGREAW     = "gre_aw"
)

// Entry is one scraped survey listing, as extracted. Free-text fields
// may still carry markup until the cleaner runs.
type Entry struct {
	EntryURL     string             `json:"entry_url,omitempty"`
	Program      string             `json:"program,omitempty"`
	University   string             `json:"university,omitempty"`
	Degree       Degree             `json:"degree,omitempty"`
	Status       Status             `json:"status,omitempty"`
	DecisionDate string             `json:"decision_date,omitempty"`
	Term         string             `json:"term,omitempty"`
	Nationality  string             `json:"nationality,omitempty"`
	GPA          *float64           `json:"gpa,omitempty"`
	Scores       map[string]float64 `json:"scores,omitempty"`
	Comments     string             `json:"comments,omitempty"`
	SourcePage   int                `json:"source_page"`
}

// Key is the composite identity entries are deduplicated by.
type Key struct {
	EntryURL   string
	Program    string
	University string
}

func (e Entry) Key() Key {
	return Key{
		EntryURL:   e.EntryURL,
		Program:    e.Program,
		University: e.University,
	}
}

// PopulatedFields counts the fields that carry a usable value. The
// merger prefers the entry with the higher count when two entries share
// a key.
func (e Entry) PopulatedFields() int {
	n := 0
	for _, s := range []string{
		e.EntryURL, e.Program, e.University,
		e.DecisionDate, e.Term, e.Nationality, e.Comments,
	} {
		if s != "" {
			n++
		}
	}
	if e.Degree != "" && e.Degree != DegreeUnknown {
		n++
	}
	if e.Status != "" && e.Status != StatusUnknown {
		n++
	}
	if e.GPA != nil {
		n++
	}
	n += len(e.Scores)
	return n
}
