package client

import "context"

// RecordResult is the outcome of an asynchronous single-record call.
type RecordResult struct {
	Record map[string]any
	Err    error
}

// ListResult is the outcome of an asynchronous list call.
type ListResult struct {
	Records []map[string]any
	Err     error
}

// Async wraps a Client so every call runs in its own goroutine and delivers
// exactly one result on the returned channel. Cancellation still flows
// through ctx.
type Async struct {
	c *Client
}

// NewAsync creates the asynchronous variant of a client.
func NewAsync(c *Client) *Async {
	return &Async{c: c}
}

// List fetches records asynchronously.
func (a *Async) List(ctx context.Context, resource string, filters map[string]any) <-chan ListResult {
	ch := make(chan ListResult, 1)
	go func() {
		defer close(ch)
		records, err := a.c.List(ctx, resource, filters)
		ch <- ListResult{Records: records, Err: err}
	}()
	return ch
}

// Get fetches one record asynchronously.
func (a *Async) Get(ctx context.Context, resource, id string) <-chan RecordResult {
	ch := make(chan RecordResult, 1)
	go func() {
		defer close(ch)
		rec, err := a.c.Get(ctx, resource, id)
		ch <- RecordResult{Record: rec, Err: err}
	}()
	return ch
}

// Create stores a new record asynchronously.
func (a *Async) Create(ctx context.Context, resource string, payload map[string]any) <-chan RecordResult {
	ch := make(chan RecordResult, 1)
	go func() {
		defer close(ch)
		rec, err := a.c.Create(ctx, resource, payload)
		ch <- RecordResult{Record: rec, Err: err}
	}()
	return ch
}

// Update applies a partial payload asynchronously.
func (a *Async) Update(ctx context.Context, resource, id string, payload map[string]any) <-chan RecordResult {
	ch := make(chan RecordResult, 1)
	go func() {
		defer close(ch)
		rec, err := a.c.Update(ctx, resource, id, payload)
		ch <- RecordResult{Record: rec, Err: err}
	}()
	return ch
}

// Delete removes one record asynchronously.
func (a *Async) Delete(ctx context.Context, resource, id string) <-chan error {
	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		ch <- a.c.Delete(ctx, resource, id)
	}()
	return ch
}

// DeleteAll empties the collection asynchronously.
func (a *Async) DeleteAll(ctx context.Context, resource string) <-chan error {
	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		ch <- a.c.DeleteAll(ctx, resource)
	}()
	return ch
}
