// Package connector defines the fixed capability interface every
// identity-provider integration implements, plus a registry the step
// executor dispatches through.
//
// Real vendor SDK wrappers live outside this repository; the simulated
// connector here backs development, tests, and dry runs.
package connector

import (
	"context"
	"sync"

	"github.com/Raoof128/ILAE/internal/domain"
)

// Result is the outcome of one connector call, recorded verbatim onto the
// workflow step that triggered it.
type Result struct {
	Success bool
	Message string
	Data    map[string]string
	Error   string
}

// OK builds a successful result.
func OK(message string) Result { return Result{Success: true, Message: message} }

// Fail builds a failed result.
func Fail(errMsg string) Result { return Result{Success: false, Error: errMsg} }

// IdentitySnapshot carries the user attributes a connector needs to create
// an account. Deliberately smaller than domain.Identity: connectors never
// see entitlement state.
type IdentitySnapshot struct {
	EmployeeID string
	Name       string
	Email      string
	Department string
	Title      string
}

// Connector is the capability interface contract for one system.
// Implementations are required to be idempotent for create/add operations:
// the engine may re-attempt a provisioning step without checking existence.
type Connector interface {
	CreateUser(ctx context.Context, user IdentitySnapshot) Result
	DeleteUser(ctx context.Context, userID string) Result
	AddToGroup(ctx context.Context, userID, groupName string) Result
	RemoveFromGroup(ctx context.Context, userID, groupName string) Result
	GrantRole(ctx context.Context, userID, roleName string) Result
	RevokeRole(ctx context.Context, userID, roleName string) Result
	GetUser(ctx context.Context, userID string) Result
	ListUserPermissions(ctx context.Context, userID string) Result
}

// Registry maps system names to connectors. Registration happens at wiring
// time; lookups are read-heavy and safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	connectors map[domain.System]Connector
}

func NewRegistry() *Registry {
	return &Registry{connectors: make(map[domain.System]Connector)}
}

// Register binds a connector to a system, replacing any previous binding.
func (r *Registry) Register(system domain.System, c Connector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectors[system] = c
}

// Lookup returns the connector for a system, or false when none registered.
func (r *Registry) Lookup(system domain.System) (Connector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.connectors[system]
	return c, ok
}

// Systems returns the registered system names.
func (r *Registry) Systems() []domain.System {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.System, 0, len(r.connectors))
	for system := range r.connectors {
		out = append(out, system)
	}
	return out
}

// NewSimulatedRegistry registers a simulated connector for every target
// system. Used by the CLI's dry-run mode and throughout the tests.
func NewSimulatedRegistry() *Registry {
	r := NewRegistry()
	for _, system := range domain.TargetSystems {
		r.Register(system, NewSimulated(system))
	}
	return r
}
