package domain

import "net/http"

// Status labels the outcome of a workflow.
type Status string

const (
	StatusOK       Status = "ok"
	StatusMatch    Status = "match"
	StatusNoMatch  Status = "no-match"
	StatusNotFound Status = "not-found"
	StatusError    Status = "error"
)

const (
	MsgRegistered   = "Successful Registration!"
	MsgNoMatch      = "No Face Match Found!"
	MsgEntryMissing = "Entry does not exist!"
)

// Result is what every workflow hands back to the transport. Body is either a
// message string or a JSON-serializable payload.
type Result struct {
	Status     Status
	StatusCode int
	Body       any
}

func OK(body any) Result {
	return Result{Status: StatusOK, StatusCode: http.StatusOK, Body: body}
}

func Match(row []string) Result {
	return Result{Status: StatusMatch, StatusCode: http.StatusOK, Body: row}
}

func NoMatch() Result {
	return Result{Status: StatusNoMatch, StatusCode: http.StatusForbidden, Body: MsgNoMatch}
}

func NotFound() Result {
	return Result{Status: StatusNotFound, StatusCode: http.StatusForbidden, Body: MsgEntryMissing}
}

// Failure carries a human-readable message with status 400.
func Failure(msg string) Result {
	return Result{Status: StatusError, StatusCode: http.StatusBadRequest, Body: msg}
}
