// Package credentials holds the credential type table of the platform and
// the input validation shared by every path that creates a credential.
package credentials

import (
	"sort"
	"strings"
)

// TableVersion is the platform release the type codes below were read from.
// Codes are assigned by the platform at install time and may differ on
// other releases.
const TableVersion = "9.2.0"

// Type describes one credential type: its platform code, the input keys it
// accepts, and an example shown when inputs are rejected.
type Type struct {
	Tag      string                 `json:"tag"`
	Code     int                    `json:"code"`
	Inputs   []string               `json:"inputs"`
	Required []string               `json:"required,omitempty"`
	Example  map[string]interface{} `json:"example"`

	// message explains a rejection of the inputs.
	message string
}

var tokenExample = map[string]interface{}{"token": "gitlab_or_github_token"}

var table = map[string]Type{
	"ssh": {
		Tag: "ssh", Code: 1,
		Inputs: []string{"username", "password", "become_method", "become_username", "become_password"},
		Example: map[string]interface{}{
			"username":        "admin",
			"password":        "password",
			"become_method":   "enable",
			"become_username": "enable_user",
			"become_password": "enable_pass",
		},
		message: "Keys in inputs are incorrect, see example.",
	},
	"vault": {
		Tag: "vault", Code: 3,
		Inputs:  []string{"vault_password", "vault_id"},
		Example: map[string]interface{}{"vault_password": "vault_pass", "vault_id": "prod"},
		message: "Invalid keys in inputs. See example.",
	},
	"net": {
		Tag: "net", Code: 4,
		Inputs:   []string{"username", "password", "authorize", "authorize_password"},
		Required: []string{"username"},
		Example: map[string]interface{}{
			"username":           "admin",
			"password":           "password",
			"authorize":          "true",
			"authorize_password": "enable_password",
		},
		message: "The key username is compulsory, but is not found in inputs. See example.",
	},
	"aws": {
		Tag: "aws", Code: 5,
		Inputs:  []string{"username", "password", "security_token"},
		Example: map[string]interface{}{"username": "accesskey", "password": "secretkey"},
		message: "Username and password are compulsory keys, but these are not found in inputs. See example.",
	},
	"github_token": {
		Tag: "github_token", Code: 12,
		Inputs:  []string{"token"},
		Example: tokenExample,
		message: "Invalid keys in inputs. See example.",
	},
	"gitlab_token": {
		Tag: "gitlab_token", Code: 13,
		Inputs:  []string{"token"},
		Example: tokenExample,
		message: "Invalid keys in inputs. See example.",
	},
	"tower": {
		Tag: "tower", Code: 16,
		Inputs: []string{"host", "username", "password", "verify_ssl"},
		Example: map[string]interface{}{
			"host":       "https://authentication.url",
			"username":   "username",
			"password":   "password",
			"verify_ssl": true,
		},
		message: "Invalid keys in inputs, see example.",
	},
	"hashivault_kv": {
		Tag: "hashivault_kv", Code: 21,
		Inputs: []string{"url", "token", "api_version"},
		Example: map[string]interface{}{
			"url":         "https://192.168.1.1:8200",
			"token":       "abcdefghijklmnop9999",
			"api_version": "v2",
		},
		message: "Invalid keys in inputs. See example.",
	},
	"hashivault_ssh": {
		Tag: "hashivault_ssh", Code: 22,
		Inputs: []string{"url", "token"},
		Example: map[string]interface{}{
			"url":   "https://192.168.1.1:8200",
			"token": "abcdefghijklmnop9999",
		},
		message: "Invalid keys in inputs. See example.",
	},
}

// Lookup returns the type registered under tag. Tags are case-insensitive.
func Lookup(tag string) (Type, bool) {
	t, ok := table[strings.ToLower(strings.TrimSpace(tag))]
	return t, ok
}

// Supported returns every known tag, sorted.
func Supported() []string {
	tags := make([]string, 0, len(table))
	for tag := range table {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Types returns the whole table, sorted by code.
func Types() []Type {
	types := make([]Type, 0, len(table))
	for _, t := range table {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Code < types[j].Code })
	return types
}

// Message explains why inputs for this type were rejected.
func (t Type) Message() string { return t.message }
