package vm

import "fmt"

// Authorization is an ordered collection of signed requests with a read
// cursor. Authorize mode appends to it in call order; evaluation and
// synthesis consume it from the front in the same order, so a well-formed
// run drains it exactly.
type Authorization struct {
	requests []*Request
	cursor   int
}

func NewAuthorization(requests ...*Request) *Authorization {
	return &Authorization{requests: requests}
}

// Push appends a request.
func (a *Authorization) Push(r *Request) {
	a.requests = append(a.requests, r)
}

// Next consumes and returns the request at the cursor.
func (a *Authorization) Next() (*Request, error) {
	r, err := a.PeekNext()
	if err != nil {
		return nil, err
	}
	a.cursor++
	return r, nil
}

// PeekNext returns the request at the cursor without consuming it.
func (a *Authorization) PeekNext() (*Request, error) {
	if a.cursor >= len(a.requests) {
		return nil, fmt.Errorf("%w: consumed all %d requests", ErrAuthorizationDrained, len(a.requests))
	}
	return a.requests[a.cursor], nil
}

// Replicate returns an authorization with the same remaining requests and
// cursor position. The requests themselves are shared: they are immutable
// once signed.
func (a *Authorization) Replicate() *Authorization {
	requests := make([]*Request, len(a.requests))
	copy(requests, a.requests)
	return &Authorization{requests: requests, cursor: a.cursor}
}

// Done reports whether every request has been consumed.
func (a *Authorization) Done() bool { return a.cursor >= len(a.requests) }

// Len returns the total number of requests, consumed or not.
func (a *Authorization) Len() int { return len(a.requests) }

// Consumed returns the number of requests already consumed.
func (a *Authorization) Consumed() int { return a.cursor }

// Requests returns all requests in order. The caller must not mutate them.
func (a *Authorization) Requests() []*Request { return a.requests }
