package scanner

import (
	"context"
	"time"
)

// Driver opens isolated browsing sessions. The scanner depends only on this
// capability set, never on a concrete browser, so tests can simulate
// calendar months without one.
type Driver interface {
	Open(ctx context.Context, url string) (Session, error)
}

// Session is one page scoped to a single location's wizard URL. Methods block
// until the wait completes, the timeout elapses, or the session's context is
// canceled.
type Session interface {
	// WaitForSelector blocks until an element matching selector is visible.
	WaitForSelector(selector string, timeout time.Duration) error

	// WaitForCondition blocks until the JavaScript expression evaluates
	// truthy.
	WaitForCondition(expr string, timeout time.Duration) error

	// Evaluate runs the expression in page context and unmarshals the result
	// into out.
	Evaluate(expr string, out any) error

	// Click clicks the first element matching selector.
	Click(selector string) error

	// ReadText returns the text content of the first element matching
	// selector.
	ReadText(selector string) (string, error)

	// Settle waits a fixed delay for page scripts with no observable
	// completion signal.
	Settle(d time.Duration)

	Close() error
}
