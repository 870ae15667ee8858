package domain

import "time"

// System identifies an identity-provider system a connector targets.
type System string

const (
	SystemAWS    System = "aws"
	SystemAzure  System = "azure"
	SystemGitHub System = "github"
	SystemGoogle System = "google"
	SystemSlack  System = "slack"
)

// TargetSystems is the fixed set of systems provisioned for every employee.
// Order matters: step generation iterates this slice, and reproducible step
// order keeps audit logs and tests deterministic.
var TargetSystems = []System{SystemAWS, SystemAzure, SystemGitHub, SystemGoogle, SystemSlack}

func (s System) String() string { return string(s) }

// ResourceType classifies the resource an entitlement grants access to.
type ResourceType string

const (
	ResourceRole    ResourceType = "role"
	ResourceGroup   ResourceType = "group"
	ResourceTeam    ResourceType = "team"
	ResourceChannel ResourceType = "channel"
)

// AccessEntitlement is a concrete, held grant of access to one resource in
// one system. Equality is structural over all four identifying fields: two
// entitlements differing only in permission level are distinct for diffing.
type AccessEntitlement struct {
	System          System       `json:"system"`
	ResourceType    ResourceType `json:"resource_type"`
	ResourceName    string       `json:"resource_name"`
	PermissionLevel string       `json:"permission_level"`
	GrantedAt       time.Time    `json:"granted_at,omitempty"`
}

// EntitlementKey is the composite identity of an entitlement. Usable as a map
// key; GrantedAt is deliberately excluded.
type EntitlementKey struct {
	System          System
	ResourceType    ResourceType
	ResourceName    string
	PermissionLevel string
}

// Key returns the composite identity used for set operations.
func (e AccessEntitlement) Key() EntitlementKey {
	return EntitlementKey{
		System:          e.System,
		ResourceType:    e.ResourceType,
		ResourceName:    e.ResourceName,
		PermissionLevel: e.PermissionLevel,
	}
}

// EntitlementSet is an insertion-ordered set of entitlements keyed by the
// composite identity. Iteration over Items follows insertion order, so delta
// computation - and therefore generated step order - is deterministic.
type EntitlementSet struct {
	items []AccessEntitlement
	index map[EntitlementKey]int
}

// NewEntitlementSet builds a set from the given entitlements, dropping
// duplicates by composite key (first occurrence wins).
func NewEntitlementSet(items ...AccessEntitlement) *EntitlementSet {
	s := &EntitlementSet{index: make(map[EntitlementKey]int, len(items))}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

// Add inserts the entitlement unless its key is already present. Reports
// whether the set changed.
func (s *EntitlementSet) Add(item AccessEntitlement) bool {
	if _, ok := s.index[item.Key()]; ok {
		return false
	}
	s.index[item.Key()] = len(s.items)
	s.items = append(s.items, item)
	return true
}

// Contains reports membership by composite key.
func (s *EntitlementSet) Contains(item AccessEntitlement) bool {
	_, ok := s.index[item.Key()]
	return ok
}

// Len returns the number of distinct entitlements.
func (s *EntitlementSet) Len() int { return len(s.items) }

// Items returns the entitlements in insertion order. The slice is a copy.
func (s *EntitlementSet) Items() []AccessEntitlement {
	return append([]AccessEntitlement(nil), s.items...)
}

// Difference returns the entitlements in s that are not in other, preserving
// the order of s.
func (s *EntitlementSet) Difference(other *EntitlementSet) *EntitlementSet {
	out := NewEntitlementSet()
	for _, item := range s.items {
		if !other.Contains(item) {
			out.Add(item)
		}
	}
	return out
}

// Union returns a set containing the items of s followed by the items of
// other that were not already present.
func (s *EntitlementSet) Union(other *EntitlementSet) *EntitlementSet {
	out := NewEntitlementSet(s.items...)
	for _, item := range other.items {
		out.Add(item)
	}
	return out
}
