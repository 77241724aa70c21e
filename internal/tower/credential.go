package tower

import (
	"context"
	"net/http"

	"github.com/rflorenc/towerctl/internal/credentials"
	"github.com/rflorenc/towerctl/internal/models"
)

// Credential is the request body of CreateCredential. Exactly one of
// Organization, User and Team owns the credential.
type Credential struct {
	Name         string                 `json:"name" yaml:"name"`
	Description  string                 `json:"description,omitempty" yaml:"description"`
	Type         string                 `json:"credential_type" yaml:"credential_type"`
	Organization models.Reference       `json:"organization" yaml:"organization"`
	User         models.Reference       `json:"user" yaml:"user"`
	Team         models.Reference       `json:"team" yaml:"team"`
	Inputs       map[string]interface{} `json:"inputs,omitempty" yaml:"inputs"`
}

// ownerMessage is returned when a credential has no owner or several.
const ownerMessage = "Choose to inherit permission exclusively from user or team or organization."

// owner returns the payload key, kind and reference of the single owner.
func (c Credential) owner() (string, models.Kind, models.Reference, bool) {
	type candidate struct {
		key  string
		kind models.Kind
		ref  models.Reference
	}
	var set []candidate
	for _, o := range []candidate{
		{"organization", models.Organizations, c.Organization},
		{"user", models.Users, c.User},
		{"team", models.Teams, c.Team},
	} {
		if !o.ref.IsZero() {
			set = append(set, o)
		}
	}
	if len(set) != 1 {
		return "", models.Kind{}, models.Reference{}, false
	}
	return set[0].key, set[0].kind, set[0].ref, true
}

// CreateCredential creates a credential of one of the known types.
func (t *Tower) CreateCredential(ctx context.Context, cred Credential) *models.Result {
	payload, fail := t.credentialPayload(ctx, cred)
	if fail != nil {
		return fail
	}
	res := t.client.Post(ctx, models.Credentials.Path, payload)
	t.logResult("credential", cred.Name, res)
	return res
}

func (t *Tower) credentialPayload(ctx context.Context, cred Credential) (map[string]interface{}, *models.Result) {
	if cred.Name == "" {
		return nil, required("name")
	}
	key, kind, ref, ok := cred.owner()
	if !ok {
		return nil, models.Fail(http.StatusBadRequest, ownerMessage)
	}
	ctype, inputs, fail := credentials.BuildInputs(cred.Type, cred.Inputs)
	if fail != nil {
		return nil, fail
	}
	ownerID, fail := t.client.Resolve(ctx, kind, ref)
	if fail != nil {
		return nil, fail
	}

	payload := map[string]interface{}{
		"name":            cred.Name,
		"credential_type": ctype.Code,
		key:               ownerID,
	}
	setString(payload, "description", cred.Description)
	if inputs != nil {
		payload["inputs"] = inputs
	}
	return payload, nil
}
