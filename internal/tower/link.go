package tower

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rflorenc/towerctl/internal/credentials"
	"github.com/rflorenc/towerctl/internal/models"
)

// CredentialLink attaches a credential to a job template: either an
// existing one named by Credential, or a new one described by the
// remaining fields.
type CredentialLink struct {
	JobTemplate models.Reference `json:"job_template" yaml:"job_template"`
	Credential  models.Reference `json:"credential" yaml:"credential"`

	Name         string                 `json:"name,omitempty" yaml:"name"`
	Description  string                 `json:"description,omitempty" yaml:"description"`
	Type         string                 `json:"credential_type,omitempty" yaml:"credential_type"`
	Organization models.Reference       `json:"organization" yaml:"organization"`
	Inputs       map[string]interface{} `json:"inputs,omitempty" yaml:"inputs"`
}

// AttachCredential links a credential to a job template. The platform
// answers an association with 204 and no body, reported as an empty success.
func (t *Tower) AttachCredential(ctx context.Context, link CredentialLink) *models.Result {
	jtID, fail := t.client.Resolve(ctx, models.JobTemplates, link.JobTemplate)
	if fail != nil {
		return fail
	}
	path := fmt.Sprintf("%s%d/credentials/", models.JobTemplates.Path, jtID)

	var payload map[string]interface{}
	if !link.Credential.IsZero() {
		payload, fail = t.existingCredential(ctx, link.Credential)
	} else {
		payload, fail = t.newLinkedCredential(ctx, link)
	}
	if fail != nil {
		return fail
	}

	res := t.client.Post(ctx, path, payload)
	t.log.Info().Int("job_template", jtID).Interface("credential", payload["name"]).Int("status", res.Code).Msg("link credential")
	return res
}

// existingCredential builds an association body {"id", "name"} for a
// credential that already exists.
func (t *Tower) existingCredential(ctx context.Context, ref models.Reference) (map[string]interface{}, *models.Result) {
	if name, ok := ref.Name(); ok {
		lookup := t.client.FindID(ctx, models.Credentials, name)
		if !lookup.Found {
			return nil, lookup.Envelope()
		}
		return map[string]interface{}{"id": lookup.ID, "name": name}, nil
	}

	id, _ := ref.ID()
	detail := t.client.Detail(ctx, models.Credentials, id)
	if !detail.OK() {
		return nil, detail
	}
	return map[string]interface{}{"id": id, "name": detail.Object()["name"]}, nil
}

// newLinkedCredential builds the body of a credential created through the
// job template.
func (t *Tower) newLinkedCredential(ctx context.Context, link CredentialLink) (map[string]interface{}, *models.Result) {
	if link.Name == "" {
		return nil, models.Fail(http.StatusBadRequest, "Either credential or name of a new credential is required.")
	}
	ctype, inputs, fail := credentials.BuildInputs(link.Type, link.Inputs)
	if fail != nil {
		return nil, fail
	}

	payload := map[string]interface{}{
		"name":            link.Name,
		"description":     link.Description,
		"credential_type": ctype.Code,
	}
	if !link.Organization.IsZero() {
		orgID, fail := t.linkOrganization(ctx, link.Organization)
		if fail != nil {
			return nil, fail
		}
		payload["organization"] = orgID
	}
	if inputs != nil {
		payload["inputs"] = inputs
	}
	return payload, nil
}

// linkOrganization resolves a name, or confirms an id exists.
func (t *Tower) linkOrganization(ctx context.Context, ref models.Reference) (int, *models.Result) {
	id, byID := ref.ID()
	if !byID {
		return t.client.Resolve(ctx, models.Organizations, ref)
	}
	if detail := t.client.Detail(ctx, models.Organizations, id); !detail.OK() {
		return 0, detail
	}
	return id, nil
}
