package models

import (
	"fmt"
	"net/http"
)

// Lookup is the outcome of a name-to-id resolution.
type Lookup struct {
	Found   bool   `json:"found"`
	ID      int    `json:"id,omitempty"`
	Message string `json:"message,omitempty"`

	// Code is the status of a listing that failed; zero for a plain miss.
	Code int `json:"status_code,omitempty"`
}

// Hit is a successful lookup.
func Hit(id int) Lookup { return Lookup{Found: true, ID: id} }

// Miss is a lookup that found nothing for name.
func Miss(name string) Lookup {
	return Lookup{Message: fmt.Sprintf("Cannot find %s in Ansible AWX.", name)}
}

// Failed is a lookup whose listing failed with code.
func Failed(code int, message string) Lookup {
	return Lookup{Code: code, Message: message}
}

// Envelope converts a missed lookup into the failure a chained operation
// surfaces unchanged: 404 for a miss, the listing's status when the listing
// itself failed. A found lookup converts to nil.
func (l Lookup) Envelope() *Result {
	if l.Found {
		return nil
	}
	code := l.Code
	if code == 0 {
		code = http.StatusNotFound
	}
	return FailMessage(code, l.Message)
}

// Collection is a snapshot of one kind: ids mapped to display names, plus an
// optional secondary field.
type Collection struct {
	Status  string            `json:"status"`
	Code    int               `json:"status_code,omitempty"` // set when the listing failed
	Message string            `json:"message,omitempty"`
	Count   int               `json:"count"`
	IDs     []int             `json:"ids"`
	Facts   map[int]string    `json:"facts"`
	Extra   map[string]string `json:"extra,omitempty"` // extra field value -> display name
	Used    []string          `json:"used,omitempty"`  // extra field values in listing order
}

// OK reports whether the listing succeeded.
func (c Collection) OK() bool { return c.Status == "success" }

// Contains reports whether id is part of the collection.
func (c Collection) Contains(id int) bool {
	_, ok := c.Facts[id]
	return ok
}
