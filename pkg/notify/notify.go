// Package notify delivers JSON notifications to HTTP webhooks.
package notify

import (
	"context"
	"fmt"
)

// Poster sends a JSON payload to a destination URL.
type Poster interface {
	Post(ctx context.Context, url string, payload any) error
}

// StatusError is returned when a webhook answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("webhook returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("webhook returned status %d: %s", e.StatusCode, e.Body)
}
