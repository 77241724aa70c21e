package tower

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rflorenc/towerctl/internal/awxtest"
	"github.com/rflorenc/towerctl/internal/models"
)

func newTestTower(t *testing.T) (*Tower, *awxtest.Server) {
	t.Helper()
	srv := awxtest.New(t)
	return New(srv.Connection(), WithClientOptions(awxtest.Options())), srv
}

func TestEncodeVariables(t *testing.T) {
	tests := []struct {
		name   string
		in     interface{}
		want   string
		wantOK bool
	}{
		{"nil", nil, "", false},
		{"string passes through", "---\nhttp_port: 80\n", "---\nhttp_port: 80\n", true},
		{"empty string", "", "", false},
		{"map is encoded", map[string]interface{}{"http_port": 80}, `{"http_port":80}`, true},
		{"empty map", map[string]interface{}{}, "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok, err := encodeVariables(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}

	_, _, err := encodeVariables(map[string]interface{}{"bad": make(chan int)})
	assert.Error(t, err)
}

func TestCreateOrganization(t *testing.T) {
	tw, srv := newTestTower(t)

	res := tw.CreateOrganization(context.Background(), Organization{Name: "Engineering", MaxHosts: 10})
	require.True(t, res.OK(), res.Message)
	assert.Equal(t, http.StatusCreated, res.Code)

	posts := srv.Posts("/api/v2/organizations/")
	require.Len(t, posts, 1)
	assert.Equal(t, map[string]interface{}{"name": "Engineering", "max_hosts": float64(10)}, posts[0])

	res = tw.CreateOrganization(context.Background(), Organization{})
	assert.False(t, res.OK())
	assert.Equal(t, "name is required.", res.Message)
}

func TestCreateInventory(t *testing.T) {
	tw, srv := newTestTower(t)
	srv.Seed("organizations", models.Resource{"id": 1, "name": "Default"}, models.Resource{"id": 2, "name": "Engineering"})
	ctx := context.Background()

	res := tw.CreateInventory(ctx, Inventory{Name: "lab", Variables: map[string]interface{}{"ansible_user": "admin"}})
	require.True(t, res.OK(), res.Message)
	res = tw.CreateInventory(ctx, Inventory{Name: "smart-lab", Organization: models.ByName("Engineering"), Kind: "Smart", HostFilter: "name__icontains=web"})
	require.True(t, res.OK(), res.Message)

	posts := srv.Posts("/api/v2/inventories/")
	require.Len(t, posts, 2)
	assert.Equal(t, float64(1), posts[0]["organization"], "default organization")
	assert.Equal(t, `{"ansible_user":"admin"}`, posts[0]["variables"])
	assert.NotContains(t, posts[0], "kind")

	assert.Equal(t, float64(2), posts[1]["organization"])
	assert.Equal(t, "smart", posts[1]["kind"])
	assert.Equal(t, "name__icontains=web", posts[1]["host_filter"])

	res = tw.CreateInventory(ctx, Inventory{Name: "x", Organization: models.ByName("Sales")})
	assert.Equal(t, "Cannot find Sales in Ansible AWX.", res.Message)
}

func TestCreateInventoryGroupAndHost(t *testing.T) {
	tw, srv := newTestTower(t)
	srv.Seed("inventories", models.Resource{"id": 3, "name": "lab"})
	ctx := context.Background()

	res := tw.CreateInventoryGroup(ctx, InventoryGroup{Inventory: models.ByName("lab"), Name: "web", Variables: "http_port: 80"})
	require.True(t, res.OK(), res.Message)
	res = tw.CreateInventoryHost(ctx, InventoryHost{Inventory: models.ByID(3), Name: "web01", Disabled: true})
	require.True(t, res.OK(), res.Message)

	groups := srv.Posts("/api/v2/inventories/3/groups/")
	require.Len(t, groups, 1)
	assert.Equal(t, "http_port: 80", groups[0]["variables"])

	hosts := srv.Posts("/api/v2/inventories/3/hosts/")
	require.Len(t, hosts, 1)
	assert.Equal(t, false, hosts[0]["enabled"])

	// Created hosts are found by later lookups.
	assert.True(t, tw.Find(ctx, models.Hosts, "web01").Found)

	res = tw.CreateInventoryHost(ctx, InventoryHost{Name: "orphan"})
	assert.Equal(t, "inventory must be either a name or an id.", res.Message)
}

func TestCreateInventoryHost_ListingFailure(t *testing.T) {
	tw, srv := newTestTower(t)
	srv.Seed("inventories", models.Resource{"id": 3, "name": "lab"})
	srv.Handle(http.MethodGet, "/api/v2/inventories/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("upstream down"))
	})

	res := tw.CreateInventoryHost(context.Background(), InventoryHost{Inventory: models.ByName("lab"), Name: "web01"})
	assert.False(t, res.OK())
	assert.Equal(t, http.StatusServiceUnavailable, res.Code)
	assert.Equal(t, "upstream down", res.Message)
	assert.Zero(t, srv.Count(http.MethodPost))
}

func TestCreateCredential_SSH(t *testing.T) {
	tw, srv := newTestTower(t)
	srv.Seed("organizations", models.Resource{"id": 1, "name": "Default"})

	res := tw.CreateCredential(context.Background(), Credential{
		Name:         "lab-ssh",
		Type:         "ssh",
		Organization: models.ByName("Default"),
		Inputs:       map[string]interface{}{"username": "u", "bogus": 1},
	})
	require.True(t, res.OK(), res.Message)

	posts := srv.Posts("/api/v2/credentials/")
	require.Len(t, posts, 1)
	body := posts[0]
	assert.Equal(t, float64(1), body["credential_type"])
	assert.Equal(t, map[string]interface{}{"username": "u"}, body["inputs"])

	owners := 0
	for _, key := range []string{"organization", "user", "team"} {
		if _, ok := body[key]; ok {
			owners++
		}
	}
	assert.Equal(t, 1, owners)
}

func TestCreateCredential_UserOwner(t *testing.T) {
	tw, srv := newTestTower(t)
	srv.Seed("users", models.Resource{"id": 8, "username": "jdoe"})

	res := tw.CreateCredential(context.Background(), Credential{
		Name: "gh", Type: "github_token", User: models.ByName("jdoe"),
		Inputs: map[string]interface{}{"token": "abc"},
	})
	require.True(t, res.OK(), res.Message)
	posts := srv.Posts("/api/v2/credentials/")
	require.Len(t, posts, 1)
	assert.Equal(t, float64(8), posts[0]["user"])
	assert.Equal(t, float64(12), posts[0]["credential_type"])
}

func TestCreateCredential_NoInputs(t *testing.T) {
	tw, srv := newTestTower(t)

	res := tw.CreateCredential(context.Background(), Credential{Name: "vault", Type: "vault", Team: models.ByID(4)})
	require.True(t, res.OK(), res.Message)
	posts := srv.Posts("/api/v2/credentials/")
	require.Len(t, posts, 1)
	assert.NotContains(t, posts[0], "inputs")
	assert.Equal(t, float64(4), posts[0]["team"])
}

func TestCreateCredential_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		cred    Credential
		message string
	}{
		{"no owner", Credential{Name: "c", Type: "ssh"}, "exclusively"},
		{"two owners", Credential{Name: "c", Type: "ssh", Organization: models.ByID(1), Team: models.ByID(2)}, "exclusively"},
		{"unknown type", Credential{Name: "c", Type: "kerberos", Organization: models.ByID(1)}, "Unrecognized credential_type"},
		{"net without username", Credential{Name: "c", Type: "net", Organization: models.ByID(1), Inputs: map[string]interface{}{"password": "p"}}, "username is compulsory"},
		{"no name", Credential{Type: "ssh", Organization: models.ByID(1)}, "name is required."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tw, srv := newTestTower(t)
			res := tw.CreateCredential(context.Background(), tc.cred)
			assert.False(t, res.OK())
			assert.Contains(t, res.Message, tc.message)
			assert.Equal(t, http.StatusBadRequest, res.Code)
			assert.Empty(t, srv.Requests(), "rejected before any request")
		})
	}
}

func TestCreateCredential_OwnerMessage(t *testing.T) {
	tw, _ := newTestTower(t)
	res := tw.CreateCredential(context.Background(), Credential{Name: "c"})
	assert.Equal(t, "Choose to inherit permission exclusively from user or team or organization.", res.Message)
}

func TestCreateCredential_UnknownTypeListsSupported(t *testing.T) {
	tw, _ := newTestTower(t)
	res := tw.CreateCredential(context.Background(), Credential{Name: "c", Type: "kerberos", Organization: models.ByID(1)})
	assert.Contains(t, res.Supported, "hashivault_kv")
	assert.Len(t, res.Supported, 9)
}

type fakeStager struct {
	dirs    []string
	uploads map[string]string
	err     error
}

func (f *fakeStager) EnsureDir(_ context.Context, dir string) error {
	f.dirs = append(f.dirs, dir)
	return f.err
}

func (f *fakeStager) Upload(_ context.Context, local, remote string) error {
	if f.uploads == nil {
		f.uploads = map[string]string{}
	}
	f.uploads[local] = remote
	return nil
}

func TestCreateProject_Manual(t *testing.T) {
	tw, srv := newTestTower(t)

	res := tw.CreateProject(context.Background(), Project{Name: "demo", LocalPath: "demo_dir", Timeout: 60})
	require.True(t, res.OK(), res.Message)

	posts := srv.Posts("/api/v2/projects/")
	require.Len(t, posts, 1)
	assert.Equal(t, map[string]interface{}{
		"name":         "demo",
		"organization": float64(1),
		"description":  "",
		"local_path":   "demo_dir",
		"scm_type":     "",
		"timeout":      float64(60),
	}, posts[0])
}

func TestCreateProject_LocalPathConflict(t *testing.T) {
	tw, srv := newTestTower(t)
	srv.Seed("projects", models.Resource{"id": 4, "name": "alpha", "local_path": "shared"})

	res := tw.CreateProject(context.Background(), Project{Name: "beta", LocalPath: "shared"})
	assert.False(t, res.OK())
	assert.Equal(t, "local_path (shared) is currently being used by project (alpha).", res.Message)
	assert.Zero(t, srv.Count(http.MethodPost))
}

func TestCreateProject_LocalPathListingFailure(t *testing.T) {
	tw, srv := newTestTower(t)
	srv.Seed("projects", models.Resource{"id": 4, "name": "alpha", "local_path": "shared"})
	srv.Handle(http.MethodGet, "/api/v2/projects/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("database unavailable"))
	})

	res := tw.CreateProject(context.Background(), Project{Name: "beta", LocalPath: "shared"})
	assert.False(t, res.OK())
	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.Equal(t, "database unavailable", res.Message)
	assert.Empty(t, srv.Posts("/api/v2/projects/"))
}

func TestCreateProject_OrganizationListingFailure(t *testing.T) {
	tw, srv := newTestTower(t)
	srv.Seed("organizations", models.Resource{"id": 9, "name": "Engineering"})
	srv.Handle(http.MethodGet, "/api/v2/organizations/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("bad gateway"))
	})

	res := tw.CreateProject(context.Background(), Project{Name: "p", Organization: models.ByID(9)})
	assert.Equal(t, http.StatusBadGateway, res.Code)
	assert.Equal(t, "bad gateway", res.Message)
	assert.Zero(t, srv.Count(http.MethodPost))
}

func TestCreateProject_Organization(t *testing.T) {
	tw, srv := newTestTower(t)
	srv.Seed("organizations", models.Resource{"id": 1, "name": "Default"}, models.Resource{"id": 2, "name": "Engineering"})
	ctx := context.Background()

	res := tw.CreateProject(ctx, Project{Name: "p", Organization: models.ByID(9)})
	assert.Equal(t, "Organization id 9 does not exist in Ansible AWX.", res.Message)
	assert.Equal(t, map[int]string{1: "Default", 2: "Engineering"}, res.Valid)

	res = tw.CreateProject(ctx, Project{Name: "p", Organization: models.ByName("Engineering")})
	require.True(t, res.OK(), res.Message)
	assert.Equal(t, float64(2), srv.Posts("/api/v2/projects/")[0]["organization"])
}

func TestCreateProject_Credential(t *testing.T) {
	tw, srv := newTestTower(t)
	srv.Seed("credentials", models.Resource{"id": 5, "name": "scm"})

	res := tw.CreateProject(context.Background(), Project{Name: "p", Credential: models.ByID(6)})
	assert.Equal(t, "Credential ID 6 is not found in Ansible AWX.", res.Message)
	assert.Equal(t, map[int]string{5: "scm"}, res.Valid)

	res = tw.CreateProject(context.Background(), Project{Name: "p", Credential: models.ByID(5)})
	require.True(t, res.OK(), res.Message)
	assert.Equal(t, float64(5), srv.Posts("/api/v2/projects/")[0]["credential"])
}

func TestCreateProject_SCM(t *testing.T) {
	tw, srv := newTestTower(t)
	ctx := context.Background()

	res := tw.CreateProject(ctx, Project{Name: "p", SCMType: "git"})
	assert.Equal(t, "git requires you to fill in the scm_url in the request body.", res.Message)
	assert.Contains(t, res.Example, "scm_url")

	res = tw.CreateProject(ctx, Project{Name: "p", SCMType: "svn"})
	assert.Equal(t, "Unrecognized scm_type svn, current supported ones are git and manual.", res.Message)
	assert.Zero(t, srv.Count(http.MethodPost))

	res = tw.CreateProject(ctx, Project{Name: "p", SCMType: "git", SCMURL: "https://github.com/ansible/ansible-tower-samples", SCMBranch: "main"})
	require.True(t, res.OK(), res.Message)
	body := srv.Posts("/api/v2/projects/")[0]
	assert.Equal(t, "git", body["scm_type"])
	assert.Equal(t, "main", body["scm_branch"])
	assert.Equal(t, false, body["scm_clean"])
	assert.NotContains(t, body, "scm_refspec")
}

func TestCreateProject_Stage(t *testing.T) {
	srv := awxtest.New(t)
	stager := &fakeStager{}
	tw := New(srv.Connection(), WithClientOptions(awxtest.Options()), WithStager(stager, "/opt/projects"))

	res := tw.CreateProject(context.Background(), Project{Name: "p", LocalPath: "demo", Stage: []string{"playbooks/site.yml"}})
	require.True(t, res.OK(), res.Message)
	assert.Equal(t, []string{"/opt/projects/demo"}, stager.dirs)
	assert.Equal(t, map[string]string{"playbooks/site.yml": "/opt/projects/demo/site.yml"}, stager.uploads)
}

func TestCreateProject_StageFailures(t *testing.T) {
	ctx := context.Background()

	tw, srv := newTestTower(t)
	res := tw.CreateProject(ctx, Project{Name: "p", LocalPath: "demo", Stage: []string{"site.yml"}})
	assert.Contains(t, res.Message, "no remote stager")
	assert.Zero(t, srv.Count(http.MethodPost))

	srv = awxtest.New(t)
	stager := &fakeStager{err: errors.New("permission denied")}
	tw = New(srv.Connection(), WithClientOptions(awxtest.Options()), WithStager(stager, ""))
	res = tw.CreateProject(ctx, Project{Name: "p", LocalPath: "demo", Stage: []string{"site.yml"}})
	assert.Equal(t, http.StatusBadGateway, res.Code)
	assert.Contains(t, res.Message, "/var/lib/awx/projects/demo")
	assert.Zero(t, srv.Count(http.MethodPost))

	res = tw.CreateProject(ctx, Project{Name: "p", Stage: []string{"site.yml"}})
	assert.Contains(t, res.Message, "requires local_path")
}
