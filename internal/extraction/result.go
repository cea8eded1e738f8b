package extraction

import "time"

// Status is the outcome of one field extraction
type Status string

const (
	// StatusOK means the field was found
	StatusOK Status = "ok"
	// StatusAbsent means the extractor ran and found nothing
	StatusAbsent Status = "absent"
	// StatusFailed means the extraction mechanism failed or never ran
	StatusFailed Status = "failed"
)

// Result is the tagged outcome for one field
type Result struct {
	Field   string
	Status  Status
	Value   any
	Err     error
	Elapsed time.Duration
}

// Results is an ordered list of field outcomes
type Results []Result

// Counts tallies results by status
func (rs Results) Counts() map[Status]int {
	counts := make(map[Status]int, 3)
	for _, r := range rs {
		counts[r.Status]++
	}
	return counts
}

// Get returns the result for field, if present
func (rs Results) Get(field string) (Result, bool) {
	for _, r := range rs {
		if r.Field == field {
			return r, true
		}
	}
	return Result{}, false
}
