package models

import (
	"encoding/json"
	"fmt"
)

// ResultKind discriminates the three shapes an operation can end in.
type ResultKind int

const (
	// ResultSuccess carries the decoded response body.
	ResultSuccess ResultKind = iota
	// ResultEmpty is a success without a body (204, or a delete).
	ResultEmpty
	// ResultFailure carries a status code and a message, plus optional hints.
	ResultFailure
)

// Result is the envelope every outward-facing operation returns. Failures
// are values, never panics or errors.
type Result struct {
	Kind     ResultKind      `json:"-"`
	Code     int             `json:"status_code,omitempty"`
	Message  string          `json:"message,omitempty"`
	Response interface{}     `json:"response,omitempty"`
	Body     json.RawMessage `json:"-"`

	// Hints attached to failures.
	Example   map[string]interface{} `json:"example,omitempty"`
	Valid     map[int]string         `json:"valid,omitempty"`
	Supported []string               `json:"supported,omitempty"`
	Required  []string               `json:"required,omitempty"`
}

// Success wraps a decoded response body.
func Success(code int, body []byte, decoded interface{}) *Result {
	return &Result{Kind: ResultSuccess, Code: code, Body: body, Response: decoded}
}

// Empty reports a success that carries no body.
func Empty(code int, message string) *Result {
	return &Result{Kind: ResultEmpty, Code: code, Message: message}
}

// Fail reports a failure with a formatted message.
func Fail(code int, format string, args ...interface{}) *Result {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Result{Kind: ResultFailure, Code: code, Message: msg}
}

// FailMessage reports a failure whose message is used verbatim.
func FailMessage(code int, message string) *Result {
	return &Result{Kind: ResultFailure, Code: code, Message: message}
}

// OK reports whether the result is a success of either kind.
func (r *Result) OK() bool { return r != nil && r.Kind != ResultFailure }

// Status is "success" or "failed".
func (r *Result) Status() string {
	if r.OK() {
		return "success"
	}
	return "failed"
}

// Object returns the response body as an object, or nil.
func (r *Result) Object() Resource {
	if m, ok := r.Response.(map[string]interface{}); ok {
		return m
	}
	return nil
}

// ID returns the "id" field of an object response.
func (r *Result) ID() (int, bool) {
	obj := r.Object()
	if obj == nil {
		return 0, false
	}
	id := ToInt(obj["id"])
	return id, id > 0
}

// Decode unmarshals the raw response body into v.
func (r *Result) Decode(v interface{}) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("result has no body")
	}
	return json.Unmarshal(r.Body, v)
}

func (r *Result) Error() string {
	return fmt.Sprintf("%s (status %d)", r.Message, r.Code)
}

// MarshalJSON adds the "status" discriminator.
func (r Result) MarshalJSON() ([]byte, error) {
	type alias Result
	return json.Marshal(struct {
		Status string `json:"status"`
		alias
	}{Status: r.Status(), alias: alias(r)})
}

// ToInt converts a JSON-decoded number to int.
func ToInt(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	}
	return 0
}
