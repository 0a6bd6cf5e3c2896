package sightings

import "fmt"

// DateRangeQuery selects records whose year*12+month lies in the inclusive
// range [StartYear*12+StartMonth, EndYear*12+EndMonth]. A nil bound is
// unparseable input; it makes every comparison false. Month values are not
// range checked.
type DateRangeQuery struct {
	StartYear  *int
	StartMonth *int
	EndYear    *int
	EndMonth   *int

	// Species, when non-empty, additionally requires at least one of the
	// named species to be flagged on the record.
	Species []string
}

// NewDateRangeQuery builds a query with every bound set.
func NewDateRangeQuery(startYear, startMonth, endYear, endMonth int) DateRangeQuery {
	return DateRangeQuery{
		StartYear:  &startYear,
		StartMonth: &startMonth,
		EndYear:    &endYear,
		EndMonth:   &endMonth,
	}
}

// Bounds returns the composite start and end keys, or false when any bound
// is missing.
func (q DateRangeQuery) Bounds() (start, end int, ok bool) {
	if q.StartYear == nil || q.StartMonth == nil || q.EndYear == nil || q.EndMonth == nil {
		return 0, 0, false
	}
	return *q.StartYear*12 + *q.StartMonth, *q.EndYear*12 + *q.EndMonth, true
}

// ValidateSpecies returns an error naming the first unknown species.
func (q DateRangeQuery) ValidateSpecies() error {
	for _, name := range q.Species {
		if _, ok := SpeciesIndex(name); !ok {
			return fmt.Errorf("unknown species %q", name)
		}
	}
	return nil
}

// Matches reports whether r falls within the query.
func (q DateRangeQuery) Matches(r Record) bool {
	start, end, ok := q.Bounds()
	if !ok {
		return false
	}
	idx, ok := r.MonthIndex()
	if !ok || idx < start || idx > end {
		return false
	}
	if len(q.Species) == 0 {
		return true
	}
	for _, name := range q.Species {
		if r.Species.Has(name) {
			return true
		}
	}
	return false
}

// Filter returns the records matching q in their original order. The input
// slice is not modified.
func Filter(records []Record, q DateRangeQuery) []Record {
	matched := make([]Record, 0)
	if _, _, ok := q.Bounds(); !ok {
		return matched
	}
	for _, r := range records {
		if q.Matches(r) {
			matched = append(matched, r)
		}
	}
	return matched
}
