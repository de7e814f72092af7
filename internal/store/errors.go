package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
)

// Sentinel errors for store operations; check with errors.Is.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict indicates a SurrealDB transaction conflict. Callers
	// should retry or skip the write.
	ErrConflict = errors.New("transaction conflict")
)

// wrapQueryError maps known SurrealDB query errors onto sentinels,
// returning the original error otherwise.
func wrapQueryError(err error) error {
	if err == nil {
		return nil
	}

	var queryErr *surrealdb.QueryError
	if errors.As(err, &queryErr) {
		if strings.Contains(queryErr.Message, "Transaction conflict") {
			return fmt.Errorf("%w: %s", ErrConflict, queryErr.Message)
		}
	}
	return err
}
