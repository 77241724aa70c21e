package platform

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rflorenc/towerctl/internal/models"
)

// FindID resolves name to the id of the first listed resource of kind
// whose name field contains name. Matching is by substring, not equality,
// so "fw01" also matches "fw011"; the platform's listing order decides.
// An empty name is rejected since it would match anything.
func (c *Client) FindID(ctx context.Context, kind models.Kind, name string) models.Lookup {
	if name == "" {
		return models.Failed(http.StatusBadRequest, fmt.Sprintf("%s name cannot be empty.", singular(kind)))
	}
	items, fail := c.list(ctx, kind.Path, nil)
	if fail != nil {
		c.log.Debug().Str("kind", kind.Name).Str("name", name).Str("error", fail.Message).Msg("lookup listing failed")
		return models.Failed(fail.Code, fail.Message)
	}
	for _, item := range items {
		if strings.Contains(stringField(item, kind.NameField), name) {
			return models.Hit(resourceID(item))
		}
	}
	return models.Miss(name)
}

// Resolve turns a reference into an id. References by id pass through
// without a request; references by name go through FindID, whose miss is
// returned as the failure envelope. An unset reference is a failure too.
func (c *Client) Resolve(ctx context.Context, kind models.Kind, ref models.Reference) (int, *models.Result) {
	if id, ok := ref.ID(); ok {
		return id, nil
	}
	name, ok := ref.Name()
	if !ok {
		return 0, models.Fail(http.StatusBadRequest, "%s must be either a name or an id.", singular(kind))
	}
	lookup := c.FindID(ctx, kind, name)
	if !lookup.Found {
		return 0, lookup.Envelope()
	}
	return lookup.ID, nil
}

// Collect lists every resource of kind into an id to name map. When extra
// names a secondary field, its values are gathered as well.
func (c *Client) Collect(ctx context.Context, kind models.Kind, extra string) models.Collection {
	items, fail := c.list(ctx, kind.Path, nil)
	if fail != nil {
		return models.Collection{Status: "failed", Code: fail.Code, Message: fail.Message}
	}

	col := models.Collection{
		Status: "success",
		Count:  len(items),
		IDs:    make([]int, 0, len(items)),
		Facts:  make(map[int]string, len(items)),
	}
	if extra != "" {
		col.Extra = make(map[string]string)
		col.Used = []string{}
	}
	for _, item := range items {
		id := resourceID(item)
		name := stringField(item, kind.NameField)
		col.IDs = append(col.IDs, id)
		col.Facts[id] = name
		if extra == "" {
			continue
		}
		if v, ok := item[extra]; ok && v != nil {
			value := fmt.Sprint(v)
			col.Extra[value] = name
			col.Used = append(col.Used, value)
		}
	}
	return col
}

// Detail fetches one resource by id.
func (c *Client) Detail(ctx context.Context, kind models.Kind, id int) *models.Result {
	return c.Get(ctx, fmt.Sprintf("%s%d/", kind.Path, id), nil)
}

func singular(kind models.Kind) string {
	switch name := kind.Name; {
	case strings.HasSuffix(name, "ies"):
		return strings.TrimSuffix(name, "ies") + "y"
	case strings.HasSuffix(name, "s"):
		return strings.TrimSuffix(name, "s")
	default:
		return name
	}
}
