package permission

import (
	"errors"
	"sort"
	"sync"
)

// Capability tokens issued by the console authority.
const (
	UserRead      = "user:read"
	UserCreate    = "user:create"
	UserUpdate    = "user:update"
	UserDelete    = "user:delete"
	UserManageAll = "user:manage_all"

	UnitRead      = "unit:read"
	UnitCreate    = "unit:create"
	UnitUpdate    = "unit:update"
	UnitDelete    = "unit:delete"
	UnitManageAll = "unit:manage_all"

	TaskRead      = "task:read"
	TaskCreate    = "task:create"
	TaskUpdate    = "task:update"
	TaskDelete    = "task:delete"
	TaskAssign    = "task:assign"
	TaskManageAll = "task:manage_all"

	NewsRead      = "news:read"
	NewsCreate    = "news:create"
	NewsUpdate    = "news:update"
	NewsDelete    = "news:delete"
	NewsPublish   = "news:publish"
	NewsManageAll = "news:manage_all"

	FileRead      = "file:read"
	FileUpload    = "file:upload"
	FileDelete    = "file:delete"
	FileManageAll = "file:manage_all"

	ProjectRead      = "project:read"
	ProjectCreate    = "project:create"
	ProjectUpdate    = "project:update"
	ProjectDelete    = "project:delete"
	ProjectManageAll = "project:manage_all"

	AnalyticsRead   = "analytics:read"
	AnalyticsManage = "analytics:manage"

	SystemAdmin   = "system:admin"
	SystemMonitor = "system:monitor"
)

// Catalog lists every token the authority is known to issue.
var Catalog = []string{
	SystemAdmin, SystemMonitor,
	UserRead, UserCreate, UserUpdate, UserDelete, UserManageAll,
	UnitRead, UnitCreate, UnitUpdate, UnitDelete, UnitManageAll,
	TaskRead, TaskCreate, TaskUpdate, TaskDelete, TaskAssign, TaskManageAll,
	NewsRead, NewsCreate, NewsUpdate, NewsDelete, NewsPublish, NewsManageAll,
	FileRead, FileUpload, FileDelete, FileManageAll,
	ProjectRead, ProjectCreate, ProjectUpdate, ProjectDelete, ProjectManageAll,
	AnalyticsRead, AnalyticsManage,
}

// Registry records the tokens an issuer is allowed to hand out.
//
// Registration happens during setup; [Registry.Freeze] locks the vocabulary.
type Registry struct {
	mu     sync.RWMutex
	known  map[string]struct{}
	frozen bool
}

// NewRegistry creates an empty [Registry].
func NewRegistry() *Registry {
	return &Registry{known: make(map[string]struct{})}
}

// NewCatalogRegistry creates a frozen [Registry] holding [Catalog].
func NewCatalogRegistry() *Registry {
	r := NewRegistry()
	for _, token := range Catalog {
		_ = r.Register(token)
	}
	r.Freeze()
	return r
}

// Register adds a token. Must be called before [Registry.Freeze].
func (r *Registry) Register(token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return errors.New("registry frozen")
	}
	if token == "" {
		return errors.New("permission name cannot be empty")
	}
	if _, exists := r.known[token]; exists {
		return errors.New("permission already registered")
	}

	r.known[token] = struct{}{}
	return nil
}

// Known reports whether token was registered.
func (r *Registry) Known(token string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.known[token]
	return ok
}

// Freeze prevents further registrations.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Count returns the number of registered tokens.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.known)
}

// Tokens returns the registered tokens in ascending order.
func (r *Registry) Tokens() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.known))
	for token := range r.known {
		out = append(out, token)
	}
	sort.Strings(out)
	return out
}
