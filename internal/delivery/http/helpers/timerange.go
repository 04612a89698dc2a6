package helpers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/upfrom/backend/internal/domain"
)

// ParseTimeRange reads optional "from" and "to" RFC3339 query parameters.
// Returns nil when neither is present. "from" must not be after "to".
func ParseTimeRange(r *http.Request) (*domain.TimeRange, error) {
	q := r.URL.Query()
	var rng domain.TimeRange
	if s := q.Get("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("invalid from: %v", err)
		}
		rng.From = &t
	}
	if s := q.Get("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("invalid to: %v", err)
		}
		rng.To = &t
	}
	if rng.From == nil && rng.To == nil {
		return nil, nil
	}
	if rng.From != nil && rng.To != nil && rng.From.After(*rng.To) {
		return nil, fmt.Errorf("from must not be after to")
	}
	return &rng, nil
}
