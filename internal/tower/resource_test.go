package tower

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rflorenc/towerctl/internal/models"
)

func TestLaunchJob(t *testing.T) {
	tw, srv := newTestTower(t)
	srv.Seed("job_templates", models.Resource{"id": 11, "name": "deploy"})
	ctx := context.Background()

	res := tw.LaunchJob(ctx, models.ByName("deploy"), map[string]interface{}{"version": "1.2"})
	require.True(t, res.OK(), res.Message)
	assert.Equal(t, http.StatusCreated, res.Code)

	posts := srv.Posts("/api/v2/job_templates/11/launch/")
	require.Len(t, posts, 1)
	assert.Equal(t, map[string]interface{}{"version": "1.2"}, posts[0]["extra_vars"])

	res = tw.LaunchJob(ctx, models.ByID(11), nil)
	require.True(t, res.OK(), res.Message)
	assert.NotContains(t, srv.Posts("/api/v2/job_templates/11/launch/")[1], "extra_vars")

	res = tw.LaunchJob(ctx, models.Reference{}, nil)
	assert.Equal(t, "job template cannot be none.", res.Message)

	res = tw.LaunchJob(ctx, models.ByName("nightly"), nil)
	assert.Equal(t, "Cannot find nightly in Ansible AWX.", res.Message)
}

func TestDelete(t *testing.T) {
	tw, srv := newTestTower(t)
	srv.Seed("hosts", models.Resource{"id": 3, "name": "web01"})
	ctx := context.Background()

	res := tw.Delete(ctx, models.Hosts, models.ByName("web01"))
	require.True(t, res.OK(), res.Message)
	assert.Equal(t, "Resource hosts with id 3 has deleted.", res.Message)
	assert.Empty(t, srv.Items("hosts"))

	res = tw.Delete(ctx, models.Hosts, models.ByID(3))
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "The resource is not found, it could be due to resource_id is not specified.", res.Message)

	res = tw.Delete(ctx, models.Hosts, models.ByName("web01"))
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = tw.Delete(ctx, models.Hosts, models.Reference{})
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestDelete_ListingFailure(t *testing.T) {
	tw, srv := newTestTower(t)
	srv.Seed("hosts", models.Resource{"id": 3, "name": "web01"})
	srv.Handle(http.MethodGet, "/api/v2/hosts/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("upstream down"))
	})

	res := tw.Delete(context.Background(), models.Hosts, models.ByName("web01"))
	assert.Equal(t, http.StatusServiceUnavailable, res.Code)
	assert.Equal(t, "upstream down", res.Message)
	assert.Len(t, srv.Items("hosts"), 1)
}

func TestDelete_Conflict(t *testing.T) {
	tw, srv := newTestTower(t)
	srv.Handle(http.MethodDelete, "/api/v2/inventories/3/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"Resource is being used by running jobs.","active_jobs":[{"type":"job","id":42}]}`))
	})

	res := tw.Delete(context.Background(), models.Inventories, models.ByID(3))
	assert.Equal(t, http.StatusConflict, res.Code)
	assert.Equal(t, `{"error":"Resource is being used by running jobs.","active_jobs":[{"type":"job","id":42}]}`, res.Message)
}

func TestGet(t *testing.T) {
	tw, srv := newTestTower(t)
	srv.Seed("projects", models.Resource{"id": 4, "name": "demo", "status": "successful"})

	res := tw.Get(context.Background(), models.Projects, models.ByName("demo"))
	require.True(t, res.OK(), res.Message)
	assert.Equal(t, "successful", res.Object()["status"])

	res = tw.Get(context.Background(), models.Projects, models.ByID(5))
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestJobStatus(t *testing.T) {
	tw, srv := newTestTower(t)
	srv.Seed("jobs", models.Resource{"id": 42, "status": "running"})

	res := tw.JobStatus(context.Background(), 42)
	require.True(t, res.OK(), res.Message)
	assert.Equal(t, "running", res.Object()["status"])
	assert.False(t, IsTerminal("running"))
	assert.True(t, IsTerminal("successful"))
	assert.True(t, IsTerminal("canceled"))
}

func TestPing(t *testing.T) {
	tw, _ := newTestTower(t)

	resp, res := tw.Ping(context.Background())
	require.True(t, res.OK(), res.Message)
	assert.Equal(t, "9.2.0", resp.Version)
	assert.True(t, resp.Secure)
}

func TestCollect(t *testing.T) {
	tw, srv := newTestTower(t)
	srv.Seed("teams", models.Resource{"id": 1, "name": "ops"})

	col := tw.Collect(context.Background(), models.Teams, "")
	assert.True(t, col.OK())
	assert.Equal(t, map[int]string{1: "ops"}, col.Facts)
}
