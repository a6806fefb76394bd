package source

import "fmt"

// TransportError is a network failure or non-success HTTP status while
// talking to the market API. It fails the whole item.
type TransportError struct {
	URL    string
	Status int // 0 when the request never produced a response
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transport error: %s returned status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("transport error: %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedPayloadError means the response body was not valid structured
// data shaped as a sequence of trade-like objects. It fails the whole item.
type MalformedPayloadError struct {
	URL string
	Err error
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed payload from %s: %v", e.URL, e.Err)
}

func (e *MalformedPayloadError) Unwrap() error { return e.Err }
