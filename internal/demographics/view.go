package demographics

import (
	"strings"

	"github.com/kozaktomas/skinstric/internal/analysis"
)

// Category names as used in results, query strings and templates.
const (
	CategoryRace   = "race"
	CategoryAge    = "age"
	CategoryGender = "gender"
)

// Selection holds labels the user picked instead of the top-ranked ones.
// It lives only for the current view and is never written to storage.
type Selection struct {
	Race   string
	Age    string
	Gender string
}

// Category is one confidence table with its currently selected row.
type Category struct {
	Name     string  `json:"name"`
	Title    string  `json:"title"`
	Rows     []Score `json:"rows"`
	Selected string  `json:"selected"`
}

// IsSelected reports whether label is the selected row.
func (c Category) IsSelected(label string) bool {
	return c.Selected == label
}

// View is everything the demographics and summary pages render.
type View struct {
	NoData     bool       `json:"no_data"`
	Categories []Category `json:"categories"`
	Race       string     `json:"race"`
	Age        string     `json:"age"`
	Gender     string     `json:"gender"`
	Confidence float64    `json:"confidence"`
	Meter      ArcMeter   `json:"-"`
}

// RaceCard, AgeCard and GenderCard return the card captions, "-" when nothing is selected.
func (v View) RaceCard() string {
	return orDash(v.Race)
}

func (v View) AgeCard() string {
	return orDash(v.Age)
}

func (v View) GenderCard() string {
	return strings.ToUpper(orDash(v.Gender))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// NewView builds the view for a stored result. A nil or empty result yields
// a NoData view. Overrides that do not name a known label are ignored.
func NewView(result *analysis.Result, overrides Selection) View {
	if !result.HasData() {
		return View{NoData: true, Meter: NewArcMeter(0)}
	}

	race := newCategory(CategoryRace, "RACE", result.Data.Race, overrides.Race)
	age := newCategory(CategoryAge, "AGE", result.Data.Age, overrides.Age)
	gender := newCategory(CategoryGender, "GENDER", result.Data.Gender, overrides.Gender)

	// The meter tracks the AI's top race estimate, not the user's pick.
	confidence := 0.0
	if len(race.Rows) > 0 {
		confidence = race.Rows[0].Raw
	}

	return View{
		Categories: []Category{race, age, gender},
		Race:       race.Selected,
		Age:        age.Selected,
		Gender:     gender.Selected,
		Confidence: confidence,
		Meter:      NewArcMeter(confidence),
	}
}

func newCategory(name, title string, scores map[string]float64, override string) Category {
	rows := SortScores(scores)
	c := Category{Name: name, Title: title, Rows: rows}
	if len(rows) > 0 {
		c.Selected = rows[0].Label
	}
	if override == "" {
		return c
	}
	for _, row := range rows {
		if row.Label == override {
			c.Selected = override
			break
		}
	}
	return c
}

// SelectionQuery returns the query string that keeps the current selection
// while switching category to label.
func (v View) SelectionQuery(category, label string) string {
	sel := Selection{Race: v.Race, Age: v.Age, Gender: v.Gender}
	switch category {
	case CategoryRace:
		sel.Race = label
	case CategoryAge:
		sel.Age = label
	case CategoryGender:
		sel.Gender = label
	}
	return sel.Encode()
}
