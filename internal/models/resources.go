package models

import "strings"

// Resource represents a generic API resource (org, inventory, credential, etc.).
type Resource map[string]interface{}

// Kind describes one resource collection of the platform.
type Kind struct {
	Name      string // "organizations", "job_templates", etc.
	Label     string // Human-readable: "Job Templates"
	Path      string // collection path relative to the API root: "/v2/job_templates/"
	NameField string // field matched by name lookups
}

// Resource kinds known to the client.
var (
	Organizations = Kind{Name: "organizations", Label: "Organizations", Path: "/v2/organizations/", NameField: "name"}
	Inventories   = Kind{Name: "inventories", Label: "Inventories", Path: "/v2/inventories/", NameField: "name"}
	Groups        = Kind{Name: "groups", Label: "Inventory Groups", Path: "/v2/groups/", NameField: "name"}
	Hosts         = Kind{Name: "hosts", Label: "Inventory Hosts", Path: "/v2/hosts/", NameField: "name"}
	Projects      = Kind{Name: "projects", Label: "Projects", Path: "/v2/projects/", NameField: "name"}
	Credentials   = Kind{Name: "credentials", Label: "Credentials", Path: "/v2/credentials/", NameField: "name"}
	JobTemplates  = Kind{Name: "job_templates", Label: "Job Templates", Path: "/v2/job_templates/", NameField: "name"}
	Users         = Kind{Name: "users", Label: "Users", Path: "/v2/users/", NameField: "username"}
	Teams         = Kind{Name: "teams", Label: "Teams", Path: "/v2/teams/", NameField: "name"}
	Jobs          = Kind{Name: "jobs", Label: "Jobs", Path: "/v2/jobs/", NameField: "name"}

	// JobTemplateCredentials is the link between a job template and a
	// credential; it has no collection of its own.
	JobTemplateCredentials = Kind{Name: "job_template_credentials", Label: "Job Template Credentials"}
)

// Kinds is the registry of browsable kinds, in dependency order.
var Kinds = []Kind{
	Organizations, Users, Teams, Credentials, Projects,
	Inventories, Groups, Hosts, JobTemplates, Jobs,
}

var kindAliases = map[string]string{
	"organization": "organizations", "org": "organizations", "orgs": "organizations",
	"inventory": "inventories", "inv": "inventories",
	"group": "groups", "inventory-group": "groups", "inventory_group": "groups",
	"host": "hosts", "inventory-host": "hosts", "inventory_host": "hosts",
	"project": "projects",
	"credential": "credentials", "cred": "credentials",
	"job-template": "job_templates", "job_template": "job_templates", "job-templates": "job_templates",
	"template": "job_templates", "jt": "job_templates",
	"user": "users", "team": "teams", "job": "jobs",
}

// LookupKind finds a kind by its collection name or a singular alias.
func LookupKind(name string) (Kind, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if alias, ok := kindAliases[name]; ok {
		name = alias
	}
	for _, k := range Kinds {
		if k.Name == name {
			return k, true
		}
	}
	return Kind{}, false
}

// KindNames returns the names of all registered kinds.
func KindNames() []string {
	names := make([]string, len(Kinds))
	for i, k := range Kinds {
		names[i] = k.Name
	}
	return names
}
