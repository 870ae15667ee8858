package policy

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/Raoof128/ILAE/internal/domain"
)

type ResolverSuite struct {
	suite.Suite
	resolver *Resolver
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	matrix := AccessMatrix{
		DefaultAccess: ProfileConfig{
			SlackChannels: []string{"general"},
			AzureGroups:   []string{"All-Employees"},
		},
		Departments: map[string]ProfileConfig{
			"Engineering": {
				AWSRoles:    []string{"EngineerBaseRole"},
				GitHubTeams: []string{"engineers"},
			},
			"Marketing": {
				AzureGroups: []string{"Marketing-All"},
			},
		},
		ContractorAccess: ProfileConfig{
			AzureGroups: []string{"Contractors"},
		},
		InternAccess: ProfileConfig{
			SlackChannels: []string{"interns"},
		},
		Overrides: map[string]ProfileConfig{
			"admin_access": {
				AWSRoles: []string{"AdminRole"},
			},
		},
	}
	mappings := RoleMappings{
		TitleMappings: []TitleMapping{
			// override patterns come before broad additive ones; "engineer"
			// would otherwise swallow "VP of Engineering" as a substring
			{Pattern: "senior.*engineer", AdditionalAWSRoles: []string{"EC2ReadOnly"}},
			{Pattern: "^vp", AccessOverride: "admin_access"},
			{Pattern: "engineer", AdditionalGitHubTeams: []string{"all-engineers"}},
		},
		CustomMappings: map[string]TitleMapping{
			"Data Analyst": {AdditionalAWSRoles: []string{"AthenaQueryRole"}},
		},
	}

	resolver, err := NewResolverFromConfig(matrix, mappings, slog.New(slog.DiscardHandler))
	s.Require().NoError(err)
	s.resolver = resolver
}

// TestLayering verifies the default and department layers merge by union.
func (s *ResolverSuite) TestLayering() {
	s.Run("default only for unknown department", func() {
		profile := s.resolver.Resolve("Warehouse", "", "PERMANENT")
		s.ElementsMatch([]string{"general"}, profile.SlackChannels)
		s.ElementsMatch([]string{"All-Employees"}, profile.AzureGroups)
		s.Empty(profile.AWSRoles)
	})

	s.Run("department merges on top of default", func() {
		profile := s.resolver.Resolve("Engineering", "", "PERMANENT")
		s.ElementsMatch([]string{"general"}, profile.SlackChannels)
		s.ElementsMatch([]string{"EngineerBaseRole"}, profile.AWSRoles)
		s.ElementsMatch([]string{"engineers"}, profile.GitHubTeams)
	})

	s.Run("merge is idempotent", func() {
		once := s.resolver.Resolve("Engineering", "Senior Software Engineer", "PERMANENT")
		twice := s.resolver.Resolve("Engineering", "Senior Software Engineer", "PERMANENT")
		s.Equal(once, twice)
	})
}

// TestContractOverrides verifies contractor and intern contract types
// replace the accumulated profile entirely.
func (s *ResolverSuite) TestContractOverrides() {
	s.Run("contractor discards department access", func() {
		profile := s.resolver.Resolve("Engineering", "", "CONTRACTOR")
		s.ElementsMatch([]string{"Contractors"}, profile.AzureGroups)
		s.Empty(profile.AWSRoles)
		s.Empty(profile.GitHubTeams)
	})

	s.Run("intern matches by substring", func() {
		profile := s.resolver.Resolve("Marketing", "", "SUMMER_INTERN")
		s.ElementsMatch([]string{"interns"}, profile.SlackChannels)
		s.Empty(profile.AzureGroups)
	})

	s.Run("permanent keeps the layered profile", func() {
		profile := s.resolver.Resolve("Engineering", "", "PERMANENT")
		s.NotEmpty(profile.AWSRoles)
	})

	s.Run("empty contract type defaults to permanent", func() {
		profile := s.resolver.Resolve("Engineering", "", "")
		s.NotEmpty(profile.AWSRoles)
	})
}

// TestTitleMappings verifies ordered first-match-wins pattern resolution,
// full overrides, and the exact-title fallback.
func (s *ResolverSuite) TestTitleMappings() {
	s.Run("first matching pattern wins", func() {
		// "senior software engineer" matches both the senior pattern and
		// the plain engineer pattern; only the first contributes.
		profile := s.resolver.Resolve("Engineering", "Senior Software Engineer", "PERMANENT")
		s.Contains(profile.AWSRoles, "EC2ReadOnly")
		s.NotContains(profile.GitHubTeams, "all-engineers")
	})

	s.Run("patterns match case-insensitively", func() {
		profile := s.resolver.Resolve("Engineering", "SENIOR SOFTWARE ENGINEER", "PERMANENT")
		s.Contains(profile.AWSRoles, "EC2ReadOnly")
	})

	s.Run("additive mapping keeps department access", func() {
		profile := s.resolver.Resolve("Engineering", "Software Engineer", "PERMANENT")
		s.Contains(profile.GitHubTeams, "engineers")
		s.Contains(profile.GitHubTeams, "all-engineers")
	})

	s.Run("access override replaces everything", func() {
		// "VP of Engineering" also matches the later "engineer" pattern;
		// the earlier override must win and discard all layered access.
		profile := s.resolver.Resolve("Engineering", "VP of Engineering", "PERMANENT")
		s.ElementsMatch([]string{"AdminRole"}, profile.AWSRoles)
		s.Empty(profile.GitHubTeams)
		s.Empty(profile.SlackChannels)
	})

	s.Run("exact title fallback when no pattern matches", func() {
		profile := s.resolver.Resolve("Marketing", "Data Analyst", "PERMANENT")
		s.Contains(profile.AWSRoles, "AthenaQueryRole")
		s.Contains(profile.AzureGroups, "Marketing-All")
	})

	s.Run("unmatched title resolves without title layer", func() {
		profile := s.resolver.Resolve("Marketing", "Wizard", "PERMANENT")
		s.Empty(profile.AWSRoles)
		s.ElementsMatch([]string{"All-Employees", "Marketing-All"}, profile.AzureGroups)
	})
}

// TestEntitlementDerivation verifies the profile-to-entitlement expansion
// assigns the right resource types and permission levels.
func (s *ResolverSuite) TestEntitlementDerivation() {
	profile := s.resolver.Resolve("Engineering", "Senior Software Engineer", "PERMANENT")
	items := profile.Entitlements().Items()
	s.NotEmpty(items)

	byKey := map[domain.System][]domain.AccessEntitlement{}
	for _, ent := range items {
		byKey[ent.System] = append(byKey[ent.System], ent)
	}
	for _, ent := range byKey[domain.SystemAWS] {
		s.Equal(domain.ResourceRole, ent.ResourceType)
		s.Equal("assume", ent.PermissionLevel)
	}
	for _, ent := range byKey[domain.SystemGitHub] {
		s.Equal(domain.ResourceTeam, ent.ResourceType)
		s.Equal("member", ent.PermissionLevel)
	}
}

// TestInvalidPattern verifies a bad regex fails construction fast.
func (s *ResolverSuite) TestInvalidPattern() {
	_, err := NewResolverFromConfig(AccessMatrix{}, RoleMappings{
		TitleMappings: []TitleMapping{{Pattern: "("}},
	}, slog.New(slog.DiscardHandler))
	s.Require().Error(err)
}

// TestDanglingOverride verifies a mapping naming an override the matrix does
// not define fails construction instead of degrading at resolve time.
func (s *ResolverSuite) TestDanglingOverride() {
	_, err := NewResolverFromConfig(AccessMatrix{}, RoleMappings{
		TitleMappings: []TitleMapping{{Pattern: "^ceo", AccessOverride: "board_access"}},
	}, slog.New(slog.DiscardHandler))
	s.Require().Error(err)
	s.Contains(err.Error(), "board_access")
}
