package analysis

// Request is the Phase Two request body. The service expects the capitalized field name.
type Request struct {
	Image string `json:"Image"`
}

// Result is the Phase Two response, stored verbatim per visitor.
type Result struct {
	Message string       `json:"message,omitempty"`
	Data    Demographics `json:"data"`
}

// Demographics maps each category label to a probability in [0,1].
// Categories are independent; values need not sum to 1.
type Demographics struct {
	Race   map[string]float64 `json:"race,omitempty"`
	Age    map[string]float64 `json:"age,omitempty"`
	Gender map[string]float64 `json:"gender,omitempty"`
}

// HasData reports whether the result carries at least one category.
func (r *Result) HasData() bool {
	if r == nil {
		return false
	}
	return len(r.Data.Race) > 0 || len(r.Data.Age) > 0 || len(r.Data.Gender) > 0
}
