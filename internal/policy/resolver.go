// Package policy maps organizational attributes to technical access.
//
// The resolver layers four sources in a fixed order: the default profile,
// the department profile, a contract-type full override, and finally the
// title mappings. Later layers merge by set union except where a layer is
// declared a full override.
package policy

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Raoof128/ILAE/internal/domain"
	"github.com/Raoof128/ILAE/pkg/jmlerrors"
)

// Resolver resolves (department, title, contract type) to an AccessProfile.
// Construction loads both configuration documents; a missing document leaves
// the corresponding layer empty, which is a valid "defaults only" setup.
type Resolver struct {
	matrix   AccessMatrix
	mappings RoleMappings
	logger   *slog.Logger
}

// NewResolver loads the two policy documents and returns a ready resolver.
// Malformed documents fail fast; missing files do not.
func NewResolver(matrixPath, mappingsPath string, logger *slog.Logger) (*Resolver, error) {
	matrix, err := LoadAccessMatrix(matrixPath)
	if err != nil {
		return nil, err
	}
	mappings, err := LoadRoleMappings(mappingsPath)
	if err != nil {
		return nil, err
	}
	if err := validateOverrides(matrix, mappings); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{matrix: matrix, mappings: mappings, logger: logger}, nil
}

// NewResolverFromConfig builds a resolver from already-parsed documents.
// Used by tests and by callers that load configuration elsewhere.
func NewResolverFromConfig(matrix AccessMatrix, mappings RoleMappings, logger *slog.Logger) (*Resolver, error) {
	if err := mappings.compile(); err != nil {
		return nil, err
	}
	if err := validateOverrides(matrix, mappings); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{matrix: matrix, mappings: mappings, logger: logger}, nil
}

// validateOverrides checks every override name referenced by a title mapping
// against the access matrix, so a dangling reference fails at construction
// instead of silently degrading at resolve time.
func validateOverrides(matrix AccessMatrix, mappings RoleMappings) error {
	for _, mapping := range mappings.TitleMappings {
		if mapping.AccessOverride == "" {
			continue
		}
		if _, ok := matrix.OverrideProfile(mapping.AccessOverride, ""); !ok {
			return jmlerrors.Newf(jmlerrors.CodeConfiguration,
				"title pattern %q references undefined override %q",
				mapping.Pattern, mapping.AccessOverride)
		}
	}
	return nil
}

// Resolve produces the desired access profile for the given attributes.
//
// Layering, in order:
//  1. default profile for every employee
//  2. department profile merged in (a missing department is logged and
//     resolution continues with the accumulator unchanged)
//  3. contractor/intern contract types replace everything so far
//  4. title mappings: first matching pattern either replaces the
//     accumulator (access_override) or merges in additive lists; with no
//     pattern match, the exact-title table is consulted as a fallback
func (r *Resolver) Resolve(department, title, contractType string) domain.AccessProfile {
	profile := r.matrix.DefaultAccess.Profile("Default", "Default employee access")

	if dept, ok := r.matrix.Departments[department]; ok {
		profile = profile.Merge(dept.Profile(department, department+" department access"))
	} else if department != "" {
		r.logger.Warn("no department configuration", "department", department)
	}

	if override, ok := r.contractOverride(contractType); ok {
		profile = override
	}

	if title != "" {
		if titleProfile, replace, ok := r.titleAccess(title, department); ok {
			if replace {
				profile = titleProfile
			} else {
				profile = profile.Merge(titleProfile)
			}
		}
	}

	profile.Department = department
	profile.Title = title
	profile.Description = describe(title, department)
	return profile
}

// ResolveEvent resolves directly from an HR event's current attributes.
func (r *Resolver) ResolveEvent(event domain.HREvent) domain.AccessProfile {
	return r.Resolve(event.Department, event.Title, event.EffectiveContractType())
}

// Departments lists the configured department names.
func (r *Resolver) Departments() []string {
	names := make([]string, 0, len(r.matrix.Departments))
	for name := range r.matrix.Departments {
		names = append(names, name)
	}
	return names
}

// contractOverride returns the full-override profile for contractor or
// intern/temp contract types. The second return is false for everything
// else, including the default PERMANENT type.
func (r *Resolver) contractOverride(contractType string) (domain.AccessProfile, bool) {
	upper := strings.ToUpper(contractType)
	switch {
	case upper == "CONTRACTOR":
		return r.matrix.ContractorAccess.Profile("Contractor", "Contractor access profile"), true
	case strings.Contains(upper, "INTERN") || strings.Contains(upper, "TEMP"):
		return r.matrix.InternAccess.Profile("Intern", "Intern access profile"), true
	}
	return domain.AccessProfile{}, false
}

// titleAccess matches the title against the ordered pattern list, first
// match wins. The replace flag reports whether the returned profile is a
// full override. Falls back to the exact-title table when no pattern hits.
func (r *Resolver) titleAccess(title, department string) (profile domain.AccessProfile, replace, ok bool) {
	for _, mapping := range r.mappings.TitleMappings {
		if mapping.re == nil || !mapping.re.MatchString(title) {
			continue
		}
		if mapping.AccessOverride != "" {
			if override, found := r.matrix.OverrideProfile(mapping.AccessOverride, department); found {
				override.Description = "Override profile for " + title
				return override, true, true
			}
			r.logger.Warn("access override not defined in matrix",
				"override", mapping.AccessOverride, "pattern", mapping.Pattern)
		}
		return mapping.Additive(department), false, true
	}

	if mapping, found := r.mappings.CustomMappings[title]; found {
		return mapping.Additive(department), false, true
	}
	return domain.AccessProfile{}, false, false
}

// OverrideProfile resolves a named override referenced by a title mapping.
// Names resolve against the overrides section first, then the well-known
// blocks, then department names.
func (m AccessMatrix) OverrideProfile(name, department string) (domain.AccessProfile, bool) {
	if cfg, ok := m.Overrides[name]; ok {
		return cfg.Profile(department, ""), true
	}
	switch name {
	case "default_access":
		return m.DefaultAccess.Profile(department, ""), true
	case "contractor_access":
		return m.ContractorAccess.Profile(department, ""), true
	case "intern_access":
		return m.InternAccess.Profile(department, ""), true
	}
	if cfg, ok := m.Departments[name]; ok {
		return cfg.Profile(department, ""), true
	}
	return domain.AccessProfile{}, false
}

func describe(title, department string) string {
	if title == "" {
		title = "Employee"
	}
	return fmt.Sprintf("Access profile for %s in %s", title, department)
}
