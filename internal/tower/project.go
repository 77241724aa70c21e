package tower

import (
	"context"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/rflorenc/towerctl/internal/models"
)

// Project is the request body of CreateProject.
type Project struct {
	Name                  string           `json:"name" yaml:"name"`
	Description           string           `json:"description,omitempty" yaml:"description"`
	Organization          models.Reference `json:"organization" yaml:"organization"`
	LocalPath             string           `json:"local_path,omitempty" yaml:"local_path"`
	SCMType               string           `json:"scm_type,omitempty" yaml:"scm_type"` // "" (manual) or "git"
	SCMURL                string           `json:"scm_url,omitempty" yaml:"scm_url"`
	SCMBranch             string           `json:"scm_branch,omitempty" yaml:"scm_branch"`
	SCMRefspec            string           `json:"scm_refspec,omitempty" yaml:"scm_refspec"`
	SCMClean              bool             `json:"scm_clean,omitempty" yaml:"scm_clean"`
	SCMDeleteOnUpdate     bool             `json:"scm_delete_on_update,omitempty" yaml:"scm_delete_on_update"`
	SCMUpdateOnLaunch     bool             `json:"scm_update_on_launch,omitempty" yaml:"scm_update_on_launch"`
	SCMUpdateCacheTimeout int              `json:"scm_update_cache_timeout,omitempty" yaml:"scm_update_cache_timeout"`
	AllowOverride         bool             `json:"allow_override,omitempty" yaml:"allow_override"`
	Credential            models.Reference `json:"credential" yaml:"credential"`
	Timeout               int              `json:"timeout,omitempty" yaml:"timeout"`
	CustomVirtualenv      string           `json:"custom_virtualenv,omitempty" yaml:"custom_virtualenv"`

	// Stage lists local playbook files copied into the project directory on
	// the platform host before the project is created.
	Stage []string `json:"stage,omitempty" yaml:"stage"`
}

// CreateProject validates a project against the platform, optionally stages
// its playbooks, and creates it.
func (t *Tower) CreateProject(ctx context.Context, p Project) *models.Result {
	if p.Name == "" {
		return required("name")
	}

	orgID, fail := t.projectOrganization(ctx, p.Organization)
	if fail != nil {
		return fail
	}

	payload := map[string]interface{}{
		"name":         p.Name,
		"organization": orgID,
		"description":  p.Description,
	}
	if p.Timeout > 0 {
		payload["timeout"] = p.Timeout
	}
	setString(payload, "custom_virtualenv", p.CustomVirtualenv)

	if p.LocalPath != "" {
		// A local_path belongs to a single project.
		paths := t.client.Collect(ctx, models.Projects, "local_path")
		if !paths.OK() {
			return models.FailMessage(paths.Code, paths.Message)
		}
		if owner, taken := paths.Extra[p.LocalPath]; taken {
			return models.Fail(http.StatusBadRequest, "local_path (%s) is currently being used by project (%s).", p.LocalPath, owner)
		}
		payload["local_path"] = p.LocalPath
	}

	if !p.Credential.IsZero() {
		credID, fail := t.projectCredential(ctx, p.Credential)
		if fail != nil {
			return fail
		}
		payload["credential"] = credID
	}

	switch scm := strings.ToLower(p.SCMType); scm {
	case "", "manual":
		payload["scm_type"] = ""
	case "git":
		if p.SCMURL == "" {
			fail := models.Fail(http.StatusBadRequest, "%s requires you to fill in the scm_url in the request body.", scm)
			fail.Example = map[string]interface{}{"scm_url": "https://github.com/ansible/ansible-tower-samples"}
			return fail
		}
		payload["scm_type"] = scm
		payload["scm_url"] = p.SCMURL
		payload["scm_clean"] = p.SCMClean
		payload["scm_delete_on_update"] = p.SCMDeleteOnUpdate
		payload["scm_update_on_launch"] = p.SCMUpdateOnLaunch
		payload["scm_update_cache_timeout"] = p.SCMUpdateCacheTimeout
		payload["allow_override"] = p.AllowOverride
		setString(payload, "scm_branch", p.SCMBranch)
		setString(payload, "scm_refspec", p.SCMRefspec)
	default:
		return models.Fail(http.StatusBadRequest, "Unrecognized scm_type %s, current supported ones are git and manual.", p.SCMType)
	}

	if len(p.Stage) > 0 {
		if fail := t.stage(ctx, p.LocalPath, p.Stage); fail != nil {
			return fail
		}
	}

	res := t.client.Post(ctx, models.Projects.Path, payload)
	t.logResult("project", p.Name, res)
	return res
}

// projectOrganization checks that an organization id exists. The default
// organization is taken on trust; names are resolved.
func (t *Tower) projectOrganization(ctx context.Context, ref models.Reference) (int, *models.Result) {
	if ref.IsZero() {
		ref = DefaultOrganization
	}
	id, byID := ref.ID()
	if !byID {
		return t.client.Resolve(ctx, models.Organizations, ref)
	}
	if ref == DefaultOrganization {
		return id, nil
	}
	orgs := t.client.Collect(ctx, models.Organizations, "")
	if !orgs.OK() {
		return 0, models.FailMessage(orgs.Code, orgs.Message)
	}
	if !orgs.Contains(id) {
		fail := models.Fail(http.StatusBadRequest, "Organization id %d does not exist in Ansible AWX.", id)
		fail.Valid = orgs.Facts
		return 0, fail
	}
	return id, nil
}

// projectCredential checks that a credential id exists, or resolves a name.
func (t *Tower) projectCredential(ctx context.Context, ref models.Reference) (int, *models.Result) {
	id, byID := ref.ID()
	if !byID {
		return t.client.Resolve(ctx, models.Credentials, ref)
	}
	creds := t.client.Collect(ctx, models.Credentials, "")
	if !creds.OK() {
		return 0, models.FailMessage(creds.Code, creds.Message)
	}
	if !creds.Contains(id) {
		fail := models.Fail(http.StatusBadRequest, "Credential ID %d is not found in Ansible AWX.", id)
		fail.Valid = creds.Facts
		return 0, fail
	}
	return id, nil
}

// stage copies files into the project directory on the platform host.
func (t *Tower) stage(ctx context.Context, localPath string, files []string) *models.Result {
	if t.stager == nil {
		return models.Fail(http.StatusBadRequest, "Project staging requested but no remote stager is configured.")
	}
	if localPath == "" {
		return models.Fail(http.StatusBadRequest, "Project staging requires local_path.")
	}
	dir := path.Join(t.projectBase, localPath)
	if err := t.stager.EnsureDir(ctx, dir); err != nil {
		return models.Fail(http.StatusBadGateway, "preparing %s: %v", dir, err)
	}
	for _, f := range files {
		dst := path.Join(dir, filepath.Base(f))
		if err := t.stager.Upload(ctx, f, dst); err != nil {
			return models.Fail(http.StatusBadGateway, "staging %s: %v", f, err)
		}
		t.log.Debug().Str("file", f).Str("remote", dst).Msg("staged playbook")
	}
	return nil
}

