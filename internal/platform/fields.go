package platform

import (
	"fmt"

	"github.com/rflorenc/towerctl/internal/models"
)

// resourceID extracts the "id" field as int.
func resourceID(r models.Resource) int {
	return models.ToInt(r["id"])
}

// stringField returns a string field, rendering non-string scalars.
func stringField(r models.Resource, key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
