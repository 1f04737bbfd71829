package store

import (
	"fmt"
	"slices"
	"strings"
)

// BatchResult is the outcome of a multi-id operation.
type BatchResult struct {
	Confirmed []string         // ids the server confirmed, in request order
	Failed    map[string]error // id -> cause
}

// BatchError reports the ids that failed in a batch. Unwrap exposes every cause to [errors.Is].
type BatchError struct {
	Total  int
	Failed map[string]error
}

// IDs returns the failed ids sorted.
func (e *BatchError) IDs() []string {
	ids := make([]string, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("failed to remove %d of %d links: %s", len(e.Failed), e.Total, strings.Join(e.IDs(), ", "))
}

func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, id := range e.IDs() {
		errs = append(errs, e.Failed[id])
	}
	return errs
}
