package connector

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Raoof128/ILAE/internal/domain"
)

// Simulated is an in-memory connector that mimics an identity provider:
// users, group memberships, and role grants are tracked so repeated and
// contradictory operations behave plausibly. All operations are idempotent,
// matching the contract real connectors must honor.
type Simulated struct {
	system domain.System

	mu     sync.Mutex
	users  map[string]IdentitySnapshot
	groups map[string]map[string]bool // userID -> group set
	roles  map[string]map[string]bool // userID -> role set
}

func NewSimulated(system domain.System) *Simulated {
	return &Simulated{
		system: system,
		users:  make(map[string]IdentitySnapshot),
		groups: make(map[string]map[string]bool),
		roles:  make(map[string]map[string]bool),
	}
}

func (s *Simulated) CreateUser(_ context.Context, user IdentitySnapshot) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.EmployeeID] = user
	return Result{
		Success: true,
		Message: fmt.Sprintf("created %s user for %s", s.system, user.Email),
		Data:    map[string]string{"user_id": user.EmployeeID},
	}
}

func (s *Simulated) DeleteUser(_ context.Context, userID string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
	delete(s.groups, userID)
	delete(s.roles, userID)
	return OK(fmt.Sprintf("deleted %s user %s", s.system, userID))
}

func (s *Simulated) AddToGroup(_ context.Context, userID, groupName string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.groups[userID] == nil {
		s.groups[userID] = make(map[string]bool)
	}
	s.groups[userID][groupName] = true
	return OK(fmt.Sprintf("added %s to %s/%s", userID, s.system, groupName))
}

func (s *Simulated) RemoveFromGroup(_ context.Context, userID, groupName string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.groups[userID], groupName)
	return OK(fmt.Sprintf("removed %s from %s/%s", userID, s.system, groupName))
}

func (s *Simulated) GrantRole(_ context.Context, userID, roleName string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roles[userID] == nil {
		s.roles[userID] = make(map[string]bool)
	}
	s.roles[userID][roleName] = true
	return OK(fmt.Sprintf("granted %s role %s to %s", s.system, roleName, userID))
}

func (s *Simulated) RevokeRole(_ context.Context, userID, roleName string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roles[userID], roleName)
	return OK(fmt.Sprintf("revoked %s role %s from %s", s.system, roleName, userID))
}

func (s *Simulated) GetUser(_ context.Context, userID string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return Fail(fmt.Sprintf("user %s not found in %s", userID, s.system))
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("found %s user %s", s.system, userID),
		Data:    map[string]string{"email": user.Email, "name": user.Name},
	}
}

func (s *Simulated) ListUserPermissions(_ context.Context, userID string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	var perms []string
	for group := range s.groups[userID] {
		perms = append(perms, "group:"+group)
	}
	for role := range s.roles[userID] {
		perms = append(perms, "role:"+role)
	}
	sort.Strings(perms)
	data := make(map[string]string, len(perms))
	for i, p := range perms {
		data[fmt.Sprintf("permission_%d", i)] = p
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("%d permissions for %s in %s", len(perms), userID, s.system),
		Data:    data,
	}
}

// HasUser reports whether the simulated backend knows the user. Test helper.
func (s *Simulated) HasUser(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[userID]
	return ok
}
