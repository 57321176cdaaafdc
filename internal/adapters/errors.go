package adapters

import "fmt"

// FetchError reports a failed outbound request. A fetch that fails at any
// point aborts the whole run: partial batches are never returned.
type FetchError struct {
	// URL is the request that failed.
	URL string

	// StatusCode is the HTTP status, when a response was received.
	StatusCode int

	// Err is the underlying transport or decode error, if any.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: unexpected status %d", e.URL, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetching %s failed", e.URL)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error { return e.Err }

// UnknownAdapterError indicates a source configuration names an adapter
// that is not registered.
type UnknownAdapterError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown adapter %q", e.Name)
}
