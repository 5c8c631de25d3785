package importer

import "sync"

// CancelToken is a one-way cancellation flag shared by a controller and the
// pipeline it drives.
type CancelToken struct {
	once sync.Once
	done chan struct{}
}

// NewCancelToken creates an unfired token.
func NewCancelToken() *CancelToken {
	return &CancelToken{done: make(chan struct{})}
}

// Cancel fires the token. It returns true only for the call that fired it.
func (t *CancelToken) Cancel() bool {
	fired := false
	t.once.Do(func() {
		fired = true
		close(t.done)
	})
	return fired
}

// Cancelled reports whether the token has fired.
func (t *CancelToken) Cancelled() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Done is closed when the token fires.
func (t *CancelToken) Done() <-chan struct{} {
	return t.done
}
