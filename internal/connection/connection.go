// Package connection provides the transport boundary to a running
// type-analysis server. The query layer in internal/query only depends on
// the Connection interface; the subprocess implementation in this package
// is the default way to reach a server installation.
package connection

import (
	"context"
	"encoding/json"
)

// Connection issues one textual query to the analysis server and returns
// the raw JSON document of the reply. Implementations are synchronous: a
// call blocks until the server answers or fails.
type Connection interface {
	QueryServer(ctx context.Context, query string) (json.RawMessage, error)
}

// QueryError carries the server's raw textual error payload. In legacy
// mode the server reports model validation failures this way, so the
// message must be preserved verbatim for downstream parsing.
// Callers can use errors.As to detect this error type.
type QueryError struct {
	Message string
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return e.Message
}
