package api

// ErrorKind is the machine-distinguishable failure class carried on the wire.
type ErrorKind string

const (
	KindNotFound    ErrorKind = "not_found"
	KindConflict    ErrorKind = "conflict"
	KindBadRequest  ErrorKind = "bad_request"
	KindUnavailable ErrorKind = "unavailable"
)

// ErrorBody is the JSON body of every non-2xx response.
type ErrorBody struct {
	Kind    ErrorKind         `json:"kind"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}
