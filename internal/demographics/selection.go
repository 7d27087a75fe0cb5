package demographics

import "net/url"

// ParseSelection reads overrides from a query string.
func ParseSelection(q url.Values) Selection {
	return Selection{
		Race:   q.Get(CategoryRace),
		Age:    q.Get(CategoryAge),
		Gender: q.Get(CategoryGender),
	}
}

// Encode renders the selection as a query string (without the leading '?').
func (s Selection) Encode() string {
	q := url.Values{}
	if s.Race != "" {
		q.Set(CategoryRace, s.Race)
	}
	if s.Age != "" {
		q.Set(CategoryAge, s.Age)
	}
	if s.Gender != "" {
		q.Set(CategoryGender, s.Gender)
	}
	return q.Encode()
}
