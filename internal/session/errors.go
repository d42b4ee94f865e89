// internal/session/errors.go
package session

import (
	"fmt"

	"github.com/price-hounds/farmaprice/pkg/models"
)

// SessionError wraps the unrecovered error that terminated a comparison
// session, carrying the query and the page index at which it occurred for
// diagnostics. A session either yields a complete ResultSet or a
// SessionError; partial results are never surfaced.
type SessionError struct {
	Query models.Query
	Page  int
	Err   error
}

// Error implements the error interface
func (e *SessionError) Error() string {
	return fmt.Sprintf("comparison for %q failed at page %d: %v", e.Query.Term, e.Page, e.Err)
}

// Unwrap returns the underlying error
func (e *SessionError) Unwrap() error {
	return e.Err
}
