package tower

import (
	"context"

	"github.com/rflorenc/towerctl/internal/models"
)

// Organization is the request body of CreateOrganization.
type Organization struct {
	Name             string `json:"name" yaml:"name"`
	Description      string `json:"description,omitempty" yaml:"description"`
	MaxHosts         int    `json:"max_hosts,omitempty" yaml:"max_hosts"`
	CustomVirtualenv string `json:"custom_virtualenv,omitempty" yaml:"custom_virtualenv"`
}

// CreateOrganization creates an organization.
func (t *Tower) CreateOrganization(ctx context.Context, org Organization) *models.Result {
	if org.Name == "" {
		return required("name")
	}
	payload := map[string]interface{}{"name": org.Name}
	setString(payload, "description", org.Description)
	setString(payload, "custom_virtualenv", org.CustomVirtualenv)
	if org.MaxHosts > 0 {
		payload["max_hosts"] = org.MaxHosts
	}

	res := t.client.Post(ctx, models.Organizations.Path, payload)
	t.logResult("organization", org.Name, res)
	return res
}

func (t *Tower) logResult(kind, name string, res *models.Result) {
	ev := t.log.Info()
	if !res.OK() {
		ev = t.log.Warn().Str("error", res.Message)
	}
	ev.Str("kind", kind).Str("name", name).Int("status", res.Code).Msg("create")
}
