package domain

import "sort"

// AccessProfile is the desired-state description of which systems and
// resources an employee should have access to. Profiles are ephemeral:
// recomputed on every resolution, never persisted.
type AccessProfile struct {
	Department    string   `json:"department"`
	Title         string   `json:"title,omitempty"`
	AWSRoles      []string `json:"aws_roles"`
	AzureGroups   []string `json:"azure_groups"`
	GitHubTeams   []string `json:"github_teams"`
	GoogleGroups  []string `json:"google_groups"`
	SlackChannels []string `json:"slack_channels"`
	Description   string   `json:"description,omitempty"`
}

// Merge unions the per-system lists of p and other with duplicates removed,
// returning a new profile. Descriptive metadata is concatenated, not merged;
// department and title prefer other's values when set.
func (p AccessProfile) Merge(other AccessProfile) AccessProfile {
	merged := AccessProfile{
		Department:    firstNonEmpty(other.Department, p.Department),
		Title:         firstNonEmpty(other.Title, p.Title),
		AWSRoles:      unionSorted(p.AWSRoles, other.AWSRoles),
		AzureGroups:   unionSorted(p.AzureGroups, other.AzureGroups),
		GitHubTeams:   unionSorted(p.GitHubTeams, other.GitHubTeams),
		GoogleGroups:  unionSorted(p.GoogleGroups, other.GoogleGroups),
		SlackChannels: unionSorted(p.SlackChannels, other.SlackChannels),
	}
	switch {
	case p.Description == "":
		merged.Description = other.Description
	case other.Description == "":
		merged.Description = p.Description
	default:
		merged.Description = p.Description + " + " + other.Description
	}
	return merged
}

// Entitlements translates the profile into concrete entitlement values, one
// per listed resource, in a fixed system order: AWS roles, Azure groups,
// GitHub teams, Google groups, Slack channels.
func (p AccessProfile) Entitlements() *EntitlementSet {
	set := NewEntitlementSet()
	for _, role := range p.AWSRoles {
		set.Add(AccessEntitlement{System: SystemAWS, ResourceType: ResourceRole, ResourceName: role, PermissionLevel: "assume"})
	}
	for _, group := range p.AzureGroups {
		set.Add(AccessEntitlement{System: SystemAzure, ResourceType: ResourceGroup, ResourceName: group, PermissionLevel: "member"})
	}
	for _, team := range p.GitHubTeams {
		set.Add(AccessEntitlement{System: SystemGitHub, ResourceType: ResourceTeam, ResourceName: team, PermissionLevel: "member"})
	}
	for _, group := range p.GoogleGroups {
		set.Add(AccessEntitlement{System: SystemGoogle, ResourceType: ResourceGroup, ResourceName: group, PermissionLevel: "member"})
	}
	for _, channel := range p.SlackChannels {
		set.Add(AccessEntitlement{System: SystemSlack, ResourceType: ResourceChannel, ResourceName: channel, PermissionLevel: "member"})
	}
	return set
}

// IsEmpty reports whether the profile grants nothing.
func (p AccessProfile) IsEmpty() bool {
	return len(p.AWSRoles) == 0 && len(p.AzureGroups) == 0 && len(p.GitHubTeams) == 0 &&
		len(p.GoogleGroups) == 0 && len(p.SlackChannels) == 0
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// unionSorted returns the sorted set union of a and b. Sorting keeps merged
// profiles deterministic regardless of configuration document ordering.
func unionSorted(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, v := range list {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	sort.Strings(out)
	return out
}
