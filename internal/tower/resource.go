package tower

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rflorenc/towerctl/internal/credentials"
	"github.com/rflorenc/towerctl/internal/models"
	"github.com/rflorenc/towerctl/internal/platform"
)

// Terminal job statuses.
var terminalStatuses = map[string]bool{
	"successful": true,
	"failed":     true,
	"error":      true,
	"canceled":   true,
}

// IsTerminal reports whether a job in status will not change anymore.
func IsTerminal(status string) bool { return terminalStatuses[status] }

// LaunchJob launches a job template, passing extraVars as given.
func (t *Tower) LaunchJob(ctx context.Context, template models.Reference, extraVars map[string]interface{}) *models.Result {
	if template.IsZero() {
		return models.Fail(http.StatusBadRequest, "job template cannot be none.")
	}
	id, fail := t.client.Resolve(ctx, models.JobTemplates, template)
	if fail != nil {
		return fail
	}

	payload := map[string]interface{}{}
	if extraVars != nil {
		payload["extra_vars"] = extraVars
	}
	res := t.client.Post(ctx, fmt.Sprintf("%s%d/launch/", models.JobTemplates.Path, id), payload)
	t.log.Info().Int("job_template", id).Int("status", res.Code).Msg("launch")
	return res
}

// Delete removes a resource referenced by name or id.
func (t *Tower) Delete(ctx context.Context, kind models.Kind, ref models.Reference) *models.Result {
	if name, ok := ref.Name(); ok {
		lookup := t.client.FindID(ctx, kind, name)
		if lookup.Code != 0 {
			return lookup.Envelope()
		}
		if !lookup.Found {
			return models.Fail(http.StatusNotFound, "The resource is not found, it could be due to resource_id is not specified.")
		}
		ref = models.ByID(lookup.ID)
	}
	id, ok := ref.ID()
	if !ok {
		return models.Fail(http.StatusNotFound, "The resource is not found, it could be due to resource_id is not specified.")
	}
	res := t.client.Delete(ctx, kind, id)
	t.log.Info().Str("kind", kind.Name).Int("id", id).Int("status", res.Code).Msg("delete")
	return res
}

// Get fetches a resource referenced by name or id.
func (t *Tower) Get(ctx context.Context, kind models.Kind, ref models.Reference) *models.Result {
	id, fail := t.client.Resolve(ctx, kind, ref)
	if fail != nil {
		return fail
	}
	return t.client.Detail(ctx, kind, id)
}

// Find resolves a name to an id.
func (t *Tower) Find(ctx context.Context, kind models.Kind, name string) models.Lookup {
	return t.client.FindID(ctx, kind, name)
}

// Collect lists a kind; see platform.Client.Collect.
func (t *Tower) Collect(ctx context.Context, kind models.Kind, extra string) models.Collection {
	return t.client.Collect(ctx, kind, extra)
}

// JobStatus fetches the current state of a job.
func (t *Tower) JobStatus(ctx context.Context, jobID int) *models.Result {
	return t.client.Detail(ctx, models.Jobs, jobID)
}

// Ping reports the platform version. A version whose major release differs
// from the one the credential type table was read from is logged.
func (t *Tower) Ping(ctx context.Context) (*platform.PingResponse, *models.Result) {
	resp, res := t.client.Ping(ctx)
	if resp != nil && resp.Version != "" && !platform.SameMajor(resp.Version, credentials.TableVersion) {
		t.log.Warn().
			Str("version", resp.Version).
			Str("table_version", credentials.TableVersion).
			Msg("credential type codes may not match this platform version")
	}
	return resp, res
}
