package permission

import (
	"errors"
	"sync"
)

// Role names known to the console authority.
const (
	RoleAdmin       = "ADMIN"
	RoleUnitManager = "UNIT_MANAGER"
	RoleStaff       = "STAFF"
	RoleViewer      = "VIEWER"
)

// RoleManager maps role names to the token set an authority grants at sign-in.
//
// Roles are registered during setup and the manager is frozen before use.
type RoleManager struct {
	registry *Registry

	mu     sync.RWMutex
	roles  map[string]Set
	frozen bool
}

// NewRoleManager creates a [RoleManager] validating tokens against registry.
// A nil registry accepts any non-empty token.
func NewRoleManager(registry *Registry) *RoleManager {
	return &RoleManager{
		registry: registry,
		roles:    make(map[string]Set),
	}
}

// RegisterRole binds roleName to the given tokens.
func (rm *RoleManager) RegisterRole(roleName string, tokens []string) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.frozen {
		return errors.New("role manager frozen")
	}
	if roleName == "" {
		return errors.New("role name empty")
	}
	if _, exists := rm.roles[roleName]; exists {
		return errors.New("role already registered")
	}

	for _, token := range tokens {
		if token == "" {
			return errors.New("permission name cannot be empty")
		}
		if rm.registry != nil && !rm.registry.Known(token) {
			return errors.New("permission not registered: " + token)
		}
	}

	rm.roles[roleName] = NewSet(tokens...)
	return nil
}

// Permissions returns the token set granted to roleName.
func (rm *RoleManager) Permissions(roleName string) (Set, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	set, ok := rm.roles[roleName]
	return set, ok
}

// Freeze prevents further role registration.
func (rm *RoleManager) Freeze() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.frozen = true
}

// Count returns the number of registered roles.
func (rm *RoleManager) Count() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.roles)
}

// DefaultRoles returns the stock grant for each built-in role.
func DefaultRoles() map[string][]string {
	return map[string][]string{
		RoleAdmin: Catalog,
		RoleUnitManager: {
			SystemMonitor,
			UserRead, UserCreate, UserUpdate,
			UnitRead, UnitUpdate,
			TaskRead, TaskCreate, TaskUpdate, TaskDelete, TaskAssign, TaskManageAll,
			NewsRead, NewsCreate, NewsUpdate, NewsDelete, NewsPublish, NewsManageAll,
			FileRead, FileUpload, FileDelete,
			ProjectRead, ProjectCreate, ProjectUpdate, ProjectDelete, ProjectManageAll,
			AnalyticsRead, AnalyticsManage,
		},
		RoleStaff: {
			UserRead, UserUpdate,
			UnitRead,
			TaskRead, TaskCreate, TaskUpdate,
			NewsRead, NewsCreate, NewsUpdate,
			FileRead, FileUpload,
			ProjectRead, ProjectUpdate,
			AnalyticsRead,
		},
		RoleViewer: {
			UserRead, UnitRead, TaskRead, NewsRead, FileRead, ProjectRead, AnalyticsRead,
		},
	}
}

// NewDefaultRoleManager returns a frozen [RoleManager] seeded with [DefaultRoles].
func NewDefaultRoleManager() (*RoleManager, error) {
	rm := NewRoleManager(NewCatalogRegistry())
	for role, tokens := range DefaultRoles() {
		if err := rm.RegisterRole(role, tokens); err != nil {
			return nil, err
		}
	}
	rm.Freeze()
	return rm, nil
}
