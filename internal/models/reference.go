package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Reference points at a resource either by its display name or by its
// numeric id. The zero value is unset.
type Reference struct {
	name string
	id   int
}

// ByName references a resource by display name.
func ByName(name string) Reference { return Reference{name: name} }

// ByID references a resource by numeric id. Ids below 1 yield an unset reference.
func ByID(id int) Reference {
	if id < 1 {
		return Reference{}
	}
	return Reference{id: id}
}

// ParseReference treats an all-digit string as an id and anything else as a name.
func ParseReference(s string) Reference {
	s = strings.TrimSpace(s)
	if id, err := strconv.Atoi(s); err == nil {
		return ByID(id)
	}
	return ByName(s)
}

// IsZero reports whether the reference is unset.
func (r Reference) IsZero() bool { return r.name == "" && r.id == 0 }

// Name returns the referenced name, if the reference is by name.
func (r Reference) Name() (string, bool) { return r.name, r.name != "" }

// ID returns the referenced id, if the reference is by id.
func (r Reference) ID() (int, bool) { return r.id, r.id != 0 }

func (r Reference) String() string {
	switch {
	case r.id != 0:
		return strconv.Itoa(r.id)
	case r.name != "":
		return r.name
	}
	return "<unset>"
}

// MarshalJSON encodes the reference as a number, a string or null.
func (r Reference) MarshalJSON() ([]byte, error) {
	switch {
	case r.id != 0:
		return json.Marshal(r.id)
	case r.name != "":
		return json.Marshal(r.name)
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts a number (id), a string (name) or null.
func (r *Reference) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = Reference{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*r = ByName(name)
		return nil
	}
	var id int
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("reference must be a name or an integer id: %w", err)
	}
	*r = ByID(id)
	return nil
}

// UnmarshalYAML accepts an integer scalar (id) or any other scalar (name).
func (r *Reference) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: reference must be a name or an integer id", node.Line)
	}
	switch node.Tag {
	case "!!null":
		*r = Reference{}
	case "!!int":
		var id int
		if err := node.Decode(&id); err != nil {
			return err
		}
		*r = ByID(id)
	default:
		*r = ByName(node.Value)
	}
	return nil
}
