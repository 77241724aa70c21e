package tower

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rflorenc/towerctl/internal/models"
)

// verbosityLevels maps verbosity names to the platform's levels.
var verbosityLevels = map[string]int{
	"normal":           0,
	"verbose":          1,
	"more_verbose":     2,
	"debug":            3,
	"connection_debug": 4,
	"winrm_debug":      5,
}

// jobTemplateRequired names the fields a job template cannot be created without.
var jobTemplateRequired = []string{"name", "job_type", "inventory", "project", "playbook", "verbosity"}

// Verbosity is a level given either by name ("debug") or number (3).
type Verbosity string

// UnmarshalJSON accepts a string or a number.
func (v *Verbosity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Verbosity(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("verbosity must be a name or a number: %w", err)
	}
	*v = Verbosity(strconv.Itoa(n))
	return nil
}

// Level converts the verbosity into a platform level. Numbers outside 0..5
// and an empty value map to 0; unknown names are rejected.
func (v Verbosity) Level() (int, bool) {
	s := strings.ToLower(strings.TrimSpace(string(v)))
	if s == "" {
		return 0, true
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 5 {
			return 0, true
		}
		return n, true
	}
	level, ok := verbosityLevels[s]
	return level, ok
}

// JobTemplate is the request body of CreateJobTemplate.
type JobTemplate struct {
	Name        string           `json:"name" yaml:"name"`
	Description string           `json:"description,omitempty" yaml:"description"`
	JobType     string           `json:"job_type,omitempty" yaml:"job_type"` // run (default) or check
	Inventory   models.Reference `json:"inventory" yaml:"inventory"`
	Project     models.Reference `json:"project" yaml:"project"`
	Playbook    string           `json:"playbook" yaml:"playbook"`
	Verbosity   Verbosity        `json:"verbosity,omitempty" yaml:"verbosity"`

	// Credential is attached once the template exists.
	Credential models.Reference `json:"credential" yaml:"credential"`

	SCMBranch        string      `json:"scm_branch,omitempty" yaml:"scm_branch"`
	Forks            int         `json:"forks,omitempty" yaml:"forks"`
	Limit            string      `json:"limit,omitempty" yaml:"limit"`
	ExtraVars        interface{} `json:"extra_vars,omitempty" yaml:"extra_vars"`
	JobTags          string      `json:"job_tags,omitempty" yaml:"job_tags"`
	SkipTags         string      `json:"skip_tags,omitempty" yaml:"skip_tags"`
	StartAtTask      string      `json:"start_at_task,omitempty" yaml:"start_at_task"`
	Timeout          int         `json:"timeout,omitempty" yaml:"timeout"`
	ForceHandlers    bool        `json:"force_handlers,omitempty" yaml:"force_handlers"`
	UseFactCache     bool        `json:"use_fact_cache,omitempty" yaml:"use_fact_cache"`
	HostConfigKey    string      `json:"host_config_key,omitempty" yaml:"host_config_key"`
	CustomVirtualenv string      `json:"custom_virtualenv,omitempty" yaml:"custom_virtualenv"`
	JobSliceCount    int         `json:"job_slice_count,omitempty" yaml:"job_slice_count"`

	AskSCMBranchOnLaunch   bool  `json:"ask_scm_branch_on_launch,omitempty" yaml:"ask_scm_branch_on_launch"`
	AskDiffModeOnLaunch    bool  `json:"ask_diff_mode_on_launch,omitempty" yaml:"ask_diff_mode_on_launch"`
	AskVariablesOnLaunch   *bool `json:"ask_variables_on_launch,omitempty" yaml:"ask_variables_on_launch"` // default true
	AskLimitOnLaunch       bool  `json:"ask_limit_on_launch,omitempty" yaml:"ask_limit_on_launch"`
	AskTagsOnLaunch        bool  `json:"ask_tags_on_launch,omitempty" yaml:"ask_tags_on_launch"`
	AskSkipTagsOnLaunch    bool  `json:"ask_skip_tags_on_launch,omitempty" yaml:"ask_skip_tags_on_launch"`
	AskJobTypeOnLaunch     bool  `json:"ask_job_type_on_launch,omitempty" yaml:"ask_job_type_on_launch"`
	AskVerbosityOnLaunch   bool  `json:"ask_verbosity_on_launch,omitempty" yaml:"ask_verbosity_on_launch"`
	AskInventoryOnLaunch   bool  `json:"ask_inventory_on_launch,omitempty" yaml:"ask_inventory_on_launch"`
	AskCredentialOnLaunch  bool  `json:"ask_credential_on_launch,omitempty" yaml:"ask_credential_on_launch"`
	SurveyEnabled          bool  `json:"survey_enabled,omitempty" yaml:"survey_enabled"`
	BecomeEnabled          bool  `json:"become_enabled,omitempty" yaml:"become_enabled"`
	DiffMode               bool  `json:"diff_mode,omitempty" yaml:"diff_mode"`
	AllowSimultaneous      bool  `json:"allow_simultaneous,omitempty" yaml:"allow_simultaneous"`

	WebhookService    string           `json:"webhook_service,omitempty" yaml:"webhook_service"` // github or gitlab
	WebhookCredential models.Reference `json:"webhook_credential" yaml:"webhook_credential"`
}

// JobTemplateResult reports the template creation and, when a credential
// was requested, the separate outcome of attaching it. A failed link does
// not undo the template.
type JobTemplateResult struct {
	Template *models.Result `json:"job_template"`
	Link     *models.Result `json:"credential,omitempty"`
}

// OK reports whether every step succeeded.
func (r JobTemplateResult) OK() bool {
	return r.Template.OK() && (r.Link == nil || r.Link.OK())
}

// CreateJobTemplate creates a job template and then attaches its credential.
func (t *Tower) CreateJobTemplate(ctx context.Context, jt JobTemplate) JobTemplateResult {
	if jt.JobType == "" {
		jt.JobType = "run"
	}
	if missing := jt.missing(); len(missing) > 0 {
		fail := models.Fail(http.StatusBadRequest, "Insufficient mandatory parameters, see required.")
		fail.Required = jobTemplateRequired
		return JobTemplateResult{Template: fail}
	}

	payload, fail := t.jobTemplatePayload(ctx, jt)
	if fail != nil {
		return JobTemplateResult{Template: fail}
	}

	res := JobTemplateResult{Template: t.client.Post(ctx, models.JobTemplates.Path, payload)}
	t.logResult("job_template", jt.Name, res.Template)
	if res.Template.Code != http.StatusCreated || jt.Credential.IsZero() {
		return res
	}

	jtRef := models.ByName(jt.Name)
	if id, ok := res.Template.ID(); ok {
		jtRef = models.ByID(id)
	}
	res.Link = t.AttachCredential(ctx, CredentialLink{JobTemplate: jtRef, Credential: jt.Credential})
	return res
}

func (jt JobTemplate) missing() []string {
	var missing []string
	for field, value := range map[string]bool{
		"name":      jt.Name != "",
		"playbook":  jt.Playbook != "",
		"inventory": !jt.Inventory.IsZero(),
		"project":   !jt.Project.IsZero(),
	} {
		if !value {
			missing = append(missing, field)
		}
	}
	return missing
}

func (t *Tower) jobTemplatePayload(ctx context.Context, jt JobTemplate) (map[string]interface{}, *models.Result) {
	level, ok := jt.Verbosity.Level()
	if !ok {
		fail := models.Fail(http.StatusBadRequest, "Unrecognized verbosity %s.", jt.Verbosity)
		fail.Supported = []string{"normal", "verbose", "more_verbose", "debug", "connection_debug", "winrm_debug"}
		return nil, fail
	}

	projectID, fail := t.client.Resolve(ctx, models.Projects, jt.Project)
	if fail != nil {
		return nil, fail
	}
	inventoryID, fail := t.client.Resolve(ctx, models.Inventories, jt.Inventory)
	if fail != nil {
		return nil, fail
	}

	askVariables := true
	if jt.AskVariablesOnLaunch != nil {
		askVariables = *jt.AskVariablesOnLaunch
	}
	sliceCount := jt.JobSliceCount
	if sliceCount < 1 {
		sliceCount = 1
	}
	webhookService := ""
	if ws := strings.ToLower(jt.WebhookService); ws == "github" || ws == "gitlab" {
		webhookService = ws
	}
	var webhookCredential interface{} = ""
	if !jt.WebhookCredential.IsZero() {
		id, fail := t.client.Resolve(ctx, models.Credentials, jt.WebhookCredential)
		if fail != nil {
			return nil, fail
		}
		webhookCredential = id
	}

	payload := map[string]interface{}{
		"name":                     jt.Name,
		"description":              jt.Description,
		"job_type":                 jt.JobType,
		"inventory":                inventoryID,
		"project":                  projectID,
		"playbook":                 jt.Playbook,
		"verbosity":                level,
		"forks":                    jt.Forks,
		"scm_branch":               jt.SCMBranch,
		"limit":                    jt.Limit,
		"job_tags":                 jt.JobTags,
		"skip_tags":                jt.SkipTags,
		"start_at_task":            jt.StartAtTask,
		"timeout":                  jt.Timeout,
		"force_handlers":           jt.ForceHandlers,
		"use_fact_cache":           jt.UseFactCache,
		"host_config_key":          jt.HostConfigKey,
		"custom_virtualenv":        jt.CustomVirtualenv,
		"job_slice_count":          sliceCount,
		"ask_scm_branch_on_launch": jt.AskSCMBranchOnLaunch,
		"ask_diff_mode_on_launch":  jt.AskDiffModeOnLaunch,
		"ask_variables_on_launch":  askVariables,
		"ask_limit_on_launch":      jt.AskLimitOnLaunch,
		"ask_tags_on_launch":       jt.AskTagsOnLaunch,
		"ask_skip_tags_on_launch":  jt.AskSkipTagsOnLaunch,
		"ask_job_type_on_launch":   jt.AskJobTypeOnLaunch,
		"ask_verbosity_on_launch":  jt.AskVerbosityOnLaunch,
		"ask_inventory_on_launch":  jt.AskInventoryOnLaunch,
		"ask_credential_on_launch": jt.AskCredentialOnLaunch,
		"survey_enabled":           jt.SurveyEnabled,
		"become_enabled":           jt.BecomeEnabled,
		"diff_mode":                jt.DiffMode,
		"allow_simultaneous":       jt.AllowSimultaneous,
		"webhook_service":          webhookService,
		"webhook_credential":       webhookCredential,
	}
	if fail := setVariables(payload, "extra_vars", jt.ExtraVars); fail != nil {
		return nil, fail
	}
	return payload, nil
}
