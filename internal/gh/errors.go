package gh

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a board id resolves to a null node:
// either the board does not exist or the token cannot see it.
var ErrNotFound = errors.New("board not found")

// ErrNoStatusField is returned when a mutation is attempted without a
// resolved status field id. No network call is made.
var ErrNoStatusField = errors.New("status field id not resolved; refresh the board first")

// TransportError means no response was obtained at all (connection,
// DNS, timeout). The underlying error is preserved for errors.Is/As.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteError is an HTTP-level failure: a response arrived with a
// non-2xx status.
type RemoteError struct {
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("github api error: status=%d body=%s", e.Status, e.Body)
}

// GraphQLError means the query executed but the payload carried a
// non-empty top-level errors array. GitHub reports these with HTTP 200.
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return "graphql errors: " + strings.Join(e.Messages, "; ")
}

// ParseError means the response shape did not match expectations at a
// point where no safe default exists.
type ParseError struct {
	Path string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unexpected response shape at %s", e.Path)
}

// MutationError means the mutation executed but did not confirm the
// write. It wraps the underlying GraphQL error when there was one.
type MutationError struct {
	Detail string
	Err    error
}

func (e *MutationError) Error() string {
	return "item move not confirmed: " + e.Detail
}

func (e *MutationError) Unwrap() error { return e.Err }
