package tower

import (
	"context"
	"fmt"
	"strings"

	"github.com/rflorenc/towerctl/internal/models"
)

// DefaultOrganization is the organization every fresh install has.
var DefaultOrganization = models.ByID(1)

// Inventory is the request body of CreateInventory.
type Inventory struct {
	Name         string           `json:"name" yaml:"name"`
	Description  string           `json:"description,omitempty" yaml:"description"`
	Organization models.Reference `json:"organization" yaml:"organization"`
	Kind         string           `json:"kind,omitempty" yaml:"kind"` // "smart" or empty
	HostFilter   string           `json:"host_filter,omitempty" yaml:"host_filter"`
	Variables    interface{}      `json:"variables,omitempty" yaml:"variables"`
}

// InventoryGroup is the request body of CreateInventoryGroup.
type InventoryGroup struct {
	Inventory   models.Reference `json:"inventory" yaml:"inventory"`
	Name        string           `json:"name" yaml:"name"`
	Description string           `json:"description,omitempty" yaml:"description"`
	Variables   interface{}      `json:"variables,omitempty" yaml:"variables"`
}

// InventoryHost is the request body of CreateInventoryHost.
type InventoryHost struct {
	Inventory   models.Reference `json:"inventory" yaml:"inventory"`
	Name        string           `json:"name" yaml:"name"`
	Description string           `json:"description,omitempty" yaml:"description"`
	Disabled    bool             `json:"disabled,omitempty" yaml:"disabled"`
	Variables   interface{}      `json:"variables,omitempty" yaml:"variables"`
}

// CreateInventory creates an inventory in the given organization, or in the
// default organization when none is named.
func (t *Tower) CreateInventory(ctx context.Context, inv Inventory) *models.Result {
	if inv.Name == "" {
		return required("name")
	}
	org := inv.Organization
	if org.IsZero() {
		org = DefaultOrganization
	}
	orgID, fail := t.client.Resolve(ctx, models.Organizations, org)
	if fail != nil {
		return fail
	}

	payload := map[string]interface{}{"name": inv.Name, "organization": orgID}
	setString(payload, "description", inv.Description)
	if strings.EqualFold(inv.Kind, "smart") {
		payload["kind"] = "smart"
	}
	setString(payload, "host_filter", inv.HostFilter)
	if fail := setVariables(payload, "variables", inv.Variables); fail != nil {
		return fail
	}

	res := t.client.Post(ctx, models.Inventories.Path, payload)
	t.logResult("inventory", inv.Name, res)
	return res
}

// CreateInventoryGroup creates a group inside an inventory.
func (t *Tower) CreateInventoryGroup(ctx context.Context, group InventoryGroup) *models.Result {
	if group.Name == "" {
		return required("name")
	}
	invID, fail := t.client.Resolve(ctx, models.Inventories, group.Inventory)
	if fail != nil {
		return fail
	}

	payload := map[string]interface{}{"name": group.Name}
	setString(payload, "description", group.Description)
	if fail := setVariables(payload, "variables", group.Variables); fail != nil {
		return fail
	}

	res := t.client.Post(ctx, fmt.Sprintf("%s%d/groups/", models.Inventories.Path, invID), payload)
	t.logResult("group", group.Name, res)
	return res
}

// CreateInventoryHost creates a host inside an inventory. Hosts are enabled
// unless Disabled is set.
func (t *Tower) CreateInventoryHost(ctx context.Context, host InventoryHost) *models.Result {
	if host.Name == "" {
		return required("name")
	}
	invID, fail := t.client.Resolve(ctx, models.Inventories, host.Inventory)
	if fail != nil {
		return fail
	}

	payload := map[string]interface{}{"name": host.Name, "enabled": !host.Disabled}
	setString(payload, "description", host.Description)
	if fail := setVariables(payload, "variables", host.Variables); fail != nil {
		return fail
	}

	res := t.client.Post(ctx, fmt.Sprintf("%s%d/hosts/", models.Inventories.Path, invID), payload)
	t.logResult("host", host.Name, res)
	return res
}
