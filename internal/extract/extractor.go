package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Result is the normalized output of one extraction: the monitored
// element's HTML fragment, its plain text, and an item count when the
// element is list-shaped. ItemCount is nil for non-list elements; zero
// means an empty list.
type Result struct {
	HTMLContent string
	TextContent string
	ItemCount   *int
}

// Request identifies what to extract. UserID selects whose credentials the
// provider uses; it has no other meaning to the extraction itself.
type Request struct {
	URL      string
	Selector string
	UserID   uuid.UUID
}

// Extractor fetches a page and pulls out the monitored element. Network
// access, browser lifecycle and timeouts are the implementation's problem;
// callers only see a Result or an error.
type Extractor interface {
	Extract(ctx context.Context, req Request) (*Result, error)
}

var ErrElementNotFound = errors.New("element not found")

// ElementNotFoundError carries the selector that failed to match.
type ElementNotFoundError struct {
	Selector string
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("element not found with selector: %s", e.Selector)
}

func (e *ElementNotFoundError) Unwrap() error {
	return ErrElementNotFound
}
