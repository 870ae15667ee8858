package policy

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/Raoof128/ILAE/internal/domain"
	"github.com/Raoof128/ILAE/pkg/jmlerrors"
)

// ProfileConfig is the YAML shape of one access grant block: per-system
// resource lists plus a human-readable description.
type ProfileConfig struct {
	AWSRoles      []string `yaml:"aws_roles"`
	AzureGroups   []string `yaml:"azure_groups"`
	GitHubTeams   []string `yaml:"github_teams"`
	GoogleGroups  []string `yaml:"google_groups"`
	SlackChannels []string `yaml:"slack_channels"`
	Description   string   `yaml:"description"`
}

// Profile converts a config block into a domain profile.
func (c ProfileConfig) Profile(department, description string) domain.AccessProfile {
	if c.Description != "" {
		description = c.Description
	}
	return domain.AccessProfile{
		Department:    department,
		AWSRoles:      append([]string(nil), c.AWSRoles...),
		AzureGroups:   append([]string(nil), c.AzureGroups...),
		GitHubTeams:   append([]string(nil), c.GitHubTeams...),
		GoogleGroups:  append([]string(nil), c.GoogleGroups...),
		SlackChannels: append([]string(nil), c.SlackChannels...),
		Description:   description,
	}
}

// AccessMatrix is the declarative access-matrix document: the default layer,
// per-department layers, and the contractor/intern full-override layers.
// Named override profiles referenced by role mappings also live at the top
// level of this document.
type AccessMatrix struct {
	DefaultAccess    ProfileConfig            `yaml:"default_access"`
	Departments      map[string]ProfileConfig `yaml:"departments"`
	ContractorAccess ProfileConfig            `yaml:"contractor_access"`
	InternAccess     ProfileConfig            `yaml:"intern_access"`
	Overrides        map[string]ProfileConfig `yaml:"overrides"`
}

// TitleMapping is one entry of the ordered title-pattern list. A mapping
// either names a full override profile from the access matrix or contributes
// additive per-system lists.
type TitleMapping struct {
	Pattern                 string   `yaml:"pattern"`
	Department              string   `yaml:"department,omitempty"`
	AccessOverride          string   `yaml:"access_override,omitempty"`
	AdditionalAWSRoles      []string `yaml:"additional_aws_roles"`
	AdditionalAzureGroups   []string `yaml:"additional_azure_groups"`
	AdditionalGitHubTeams   []string `yaml:"additional_github_teams"`
	AdditionalGoogleGroups  []string `yaml:"additional_google_groups"`
	AdditionalSlackChannels []string `yaml:"additional_slack_channels"`

	re *regexp.Regexp
}

// Additive returns the additive contribution of this mapping as a profile.
func (m TitleMapping) Additive(department string) domain.AccessProfile {
	return domain.AccessProfile{
		Department:    firstNonEmpty(m.Department, department),
		AWSRoles:      append([]string(nil), m.AdditionalAWSRoles...),
		AzureGroups:   append([]string(nil), m.AdditionalAzureGroups...),
		GitHubTeams:   append([]string(nil), m.AdditionalGitHubTeams...),
		GoogleGroups:  append([]string(nil), m.AdditionalGoogleGroups...),
		SlackChannels: append([]string(nil), m.AdditionalSlackChannels...),
	}
}

// RoleMappings is the role-mapping document: an ordered regex list plus an
// exact-title fallback table.
type RoleMappings struct {
	TitleMappings  []TitleMapping          `yaml:"title_mappings"`
	CustomMappings map[string]TitleMapping `yaml:"custom_mappings"`
}

// LoadAccessMatrix reads and parses the access-matrix document. A missing
// file is not an error: the resolver operates with empty maps. Malformed
// YAML fails fast with a configuration error.
func LoadAccessMatrix(path string) (AccessMatrix, error) {
	var matrix AccessMatrix
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return matrix, nil
		}
		return matrix, jmlerrors.Wrap(err, jmlerrors.CodeConfiguration, "read access matrix")
	}
	if err := yaml.Unmarshal(data, &matrix); err != nil {
		return matrix, jmlerrors.Wrap(err, jmlerrors.CodeConfiguration, "parse access matrix")
	}
	return matrix, nil
}

// LoadRoleMappings reads and parses the role-mapping document, compiling the
// title patterns case-insensitively. A missing file yields empty mappings;
// a malformed document or an invalid pattern fails fast.
func LoadRoleMappings(path string) (RoleMappings, error) {
	var mappings RoleMappings
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return mappings, nil
		}
		return mappings, jmlerrors.Wrap(err, jmlerrors.CodeConfiguration, "read role mappings")
	}
	if err := yaml.Unmarshal(data, &mappings); err != nil {
		return mappings, jmlerrors.Wrap(err, jmlerrors.CodeConfiguration, "parse role mappings")
	}
	if err := mappings.compile(); err != nil {
		return mappings, err
	}
	return mappings, nil
}

func (m *RoleMappings) compile() error {
	for i := range m.TitleMappings {
		pattern := m.TitleMappings[i].Pattern
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return jmlerrors.Wrap(err, jmlerrors.CodeConfiguration,
				fmt.Sprintf("invalid title pattern %q", pattern))
		}
		m.TitleMappings[i].re = re
	}
	return nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
