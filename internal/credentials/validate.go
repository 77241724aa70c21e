package credentials

import (
	"net/http"

	"github.com/rflorenc/towerctl/internal/models"
)

// DefaultType is used when a credential names no type.
const DefaultType = "ssh"

// Validate keeps the entries of inputs whose key is in allowed. It never
// adds keys and returns an empty map when nothing matches.
func Validate(inputs map[string]interface{}, allowed []string) map[string]interface{} {
	out := make(map[string]interface{}, len(allowed))
	for _, key := range allowed {
		if v, ok := inputs[key]; ok {
			out[key] = v
		}
	}
	return out
}

// BuildInputs resolves tag to a credential type and filters inputs to the
// keys that type accepts. Nil inputs are passed through unchanged so the
// credential can be created without an inputs field. A failure result is
// returned for an unknown tag, a missing required key, or inputs that have
// no accepted key at all.
func BuildInputs(tag string, inputs map[string]interface{}) (Type, map[string]interface{}, *models.Result) {
	if tag == "" {
		tag = DefaultType
	}
	t, ok := Lookup(tag)
	if !ok {
		fail := models.Fail(http.StatusBadRequest, `Unrecognized credential_type. See "supported" for credential_type.`)
		fail.Supported = Supported()
		return Type{}, nil, fail
	}
	if inputs == nil {
		return t, nil, nil
	}

	for _, key := range t.Required {
		if _, ok := inputs[key]; !ok {
			return t, nil, t.rejection()
		}
	}

	valid := Validate(inputs, t.Inputs)
	if len(valid) == 0 {
		return t, nil, t.rejection()
	}
	return t, valid, nil
}

func (t Type) rejection() *models.Result {
	fail := models.FailMessage(http.StatusBadRequest, t.message)
	fail.Example = t.Example
	return fail
}
