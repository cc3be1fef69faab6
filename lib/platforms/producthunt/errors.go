package producthunt

import (
	"fmt"
	"strings"
)

const excerptLength = 200

func excerpt(payload string) string {
	runes := []rune(payload)
	if len(runes) <= excerptLength {
		return payload
	}
	return string(runes[:excerptLength]) + "..."
}

// NetworkError is returned when the request could not be completed or the
// server answered with a non-2xx status.
type NetworkError struct {
	// zero when the request never got a response
	Status int
	Body   string
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("network error: %s", e.Err.Error())
	}
	return fmt.Sprintf("network error: status %d: %s", e.Status, excerpt(e.Body))
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// MalformedResponseError is returned when a 2xx response does not have the
// expected shape.
type MalformedResponseError struct {
	Reason        string
	Payload       string
	GraphQLErrors []string
}

func (e *MalformedResponseError) Error() string {
	msg := fmt.Sprintf("malformed response: %s", e.Reason)
	if len(e.GraphQLErrors) > 0 {
		msg += fmt.Sprintf(" (graphql errors: %s)", strings.Join(e.GraphQLErrors, "; "))
	}
	return msg
}

// Excerpt is a bounded prefix of the payload suitable for logs.
func (e *MalformedResponseError) Excerpt() string {
	return excerpt(e.Payload)
}
