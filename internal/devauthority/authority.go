package devauthority

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MrEthical07/goConsole/internal/rate"
	"github.com/MrEthical07/goConsole/jwt"
	"github.com/MrEthical07/goConsole/permission"
	"github.com/MrEthical07/goConsole/session"
)

var (
	errBadCredentials = errors.New("invalid username or password")
	errInactive       = errors.New("user account is inactive")
	errBadRefresh     = errors.New("invalid refresh token")
	errUnknownAccount = errors.New("account not found")
)

// Account is a user the dev authority can sign in. Password is plaintext on
// input and hashed by [New].
type Account struct {
	ID          int64
	Username    string
	FullName    string
	Email       string
	PhoneNumber string
	Password    string
	Role        session.Role
	Unit        *session.UnitRef
	IsActive    bool
}

// Config parameterizes an [Authority]. Zero values fall back to dev defaults.
type Config struct {
	Accounts   []Account
	Roles      *permission.RoleManager
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Secret     []byte
	Issuer     string
	Logger     *zap.Logger

	// Redis enables failed sign-in throttling when set.
	Redis            redis.UniversalClient
	MaxLoginAttempts int
	LoginCooldown    time.Duration
}

// Authority is an in-memory console authority.
type Authority struct {
	tokens     *jwt.Manager
	hasher     *hasher
	roles      *permission.RoleManager
	refreshTTL time.Duration
	logger     *zap.Logger
	throttle   *rate.Limiter
	now        func() time.Time

	mu       sync.Mutex
	accounts map[string]*account
	grants   map[string]refreshGrant
	live     map[string]liveToken
}

type account struct {
	Account
	hash string
}

type refreshGrant struct {
	username string
	accessID string
	expires  time.Time
}

type liveToken struct {
	username string
	expires  time.Time
}

// DefaultAccounts returns one active account per built-in role plus an
// inactive one. Every password is "<username>-password".
func DefaultAccounts() []Account {
	head := &session.UnitRef{ID: 1, Name: "Head Office", Code: "HQ"}
	parent := int64(1)
	ops := &session.UnitRef{ID: 3, Name: "Operations", Code: "OPS", ParentID: &parent}

	return []Account{
		{ID: 1, Username: "admin", FullName: "System Administrator", Email: "admin@example.com", Password: "admin-password", Role: session.RoleAdmin, Unit: head, IsActive: true},
		{ID: 2, Username: "manager", FullName: "Unit Manager", Email: "manager@example.com", Password: "manager-password", Role: session.RoleUnitManager, Unit: ops, IsActive: true},
		{ID: 7, Username: "alice", FullName: "Alice Nguyen", Email: "alice@example.com", Password: "alice-password", Role: session.RoleStaff, Unit: ops, IsActive: true},
		{ID: 8, Username: "viewer", FullName: "Read Only", Email: "viewer@example.com", Password: "viewer-password", Role: session.RoleViewer, Unit: ops, IsActive: true},
		{ID: 9, Username: "former", FullName: "Former Staff", Email: "former@example.com", Password: "former-password", Role: session.RoleStaff, Unit: ops, IsActive: false},
	}
}

// New builds an Authority from cfg.
func New(cfg Config) (*Authority, error) {
	if cfg.Accounts == nil {
		cfg.Accounts = DefaultAccounts()
	}
	if cfg.Roles == nil {
		rm, err := permission.NewDefaultRoleManager()
		if err != nil {
			return nil, fmt.Errorf("devauthority: roles: %w", err)
		}
		cfg.Roles = rm
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 24 * time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "goconsole-dev"
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if len(cfg.Secret) == 0 {
		cfg.Secret = make([]byte, 32)
		if _, err := rand.Read(cfg.Secret); err != nil {
			return nil, fmt.Errorf("devauthority: secret: %w", err)
		}
	}

	tokens, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.AccessTTL,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    cfg.Secret,
		Issuer:        cfg.Issuer,
	})
	if err != nil {
		return nil, fmt.Errorf("devauthority: jwt: %w", err)
	}

	a := &Authority{
		tokens:     tokens,
		hasher:     newHasher(),
		roles:      cfg.Roles,
		refreshTTL: cfg.RefreshTTL,
		logger:     cfg.Logger,
		now:        time.Now,
		accounts:   make(map[string]*account, len(cfg.Accounts)),
		grants:     make(map[string]refreshGrant),
		live:       make(map[string]liveToken),
	}

	if cfg.Redis != nil {
		if cfg.MaxLoginAttempts <= 0 {
			cfg.MaxLoginAttempts = 5
		}
		if cfg.LoginCooldown <= 0 {
			cfg.LoginCooldown = 15 * time.Minute
		}
		throttle, err := rate.New(cfg.Redis, rate.Config{
			EnableIPThrottle: true,
			MaxLoginAttempts: cfg.MaxLoginAttempts,
			LoginCooldown:    cfg.LoginCooldown,
		})
		if err != nil {
			return nil, fmt.Errorf("devauthority: %w", err)
		}
		a.throttle = throttle
	}

	for _, acc := range cfg.Accounts {
		if acc.Username == "" {
			return nil, errors.New("devauthority: account username empty")
		}
		if _, dup := a.accounts[acc.Username]; dup {
			return nil, fmt.Errorf("devauthority: duplicate account %q", acc.Username)
		}
		if _, ok := a.roles.Permissions(string(acc.Role)); !ok {
			return nil, fmt.Errorf("devauthority: account %q has unknown role %q", acc.Username, acc.Role)
		}
		hash, err := a.hasher.Hash(acc.Password)
		if err != nil {
			return nil, fmt.Errorf("devauthority: account %q: %w", acc.Username, err)
		}
		stored := acc
		stored.Password = ""
		a.accounts[acc.Username] = &account{Account: stored, hash: hash}
	}

	return a, nil
}

// issued is the outcome of a successful sign-in or refresh.
type issued struct {
	accessToken  string
	refreshToken string
	expiresIn    time.Duration
	user         *session.User
}

func (a *Authority) login(username, password string) (*issued, error) {
	a.mu.Lock()
	acc, ok := a.accounts[username]
	a.mu.Unlock()
	if !ok {
		return nil, errBadCredentials
	}

	match, err := a.hasher.Verify(password, acc.hash)
	if err != nil || !match {
		return nil, errBadCredentials
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !acc.IsActive {
		return nil, errInactive
	}
	return a.issueLocked(acc)
}

func (a *Authority) refresh(token string) (*issued, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	grant, ok := a.grants[token]
	if !ok {
		return nil, errBadRefresh
	}
	delete(a.grants, token)
	if !a.now().Before(grant.expires) {
		return nil, errBadRefresh
	}

	acc, ok := a.accounts[grant.username]
	if !ok {
		return nil, errBadRefresh
	}
	if !acc.IsActive {
		return nil, errInactive
	}
	return a.issueLocked(acc)
}

func (a *Authority) issueLocked(acc *account) (*issued, error) {
	user := a.userLocked(acc)
	accessID := uuid.NewString()

	var unitID int64
	if user.Unit != nil {
		unitID = user.Unit.ID
	}
	access, err := a.tokens.CreateAccess(jwt.Identity{
		UserID:      user.ID,
		Username:    user.Username,
		Role:        string(user.Role),
		UnitID:      unitID,
		Permissions: user.Permissions.Tokens(),
	}, accessID)
	if err != nil {
		return nil, err
	}

	now := a.now()
	a.pruneLocked(now)

	refreshToken := uuid.NewString()
	a.grants[refreshToken] = refreshGrant{
		username: acc.Username,
		accessID: accessID,
		expires:  now.Add(a.refreshTTL),
	}
	a.live[accessID] = liveToken{
		username: acc.Username,
		expires:  now.Add(a.tokens.AccessTTL()),
	}

	return &issued{
		accessToken:  access,
		refreshToken: refreshToken,
		expiresIn:    a.tokens.AccessTTL(),
		user:         user,
	}, nil
}

func (a *Authority) pruneLocked(now time.Time) {
	for id, tok := range a.live {
		if !now.Before(tok.expires) {
			delete(a.live, id)
		}
	}
	for token, grant := range a.grants {
		if !now.Before(grant.expires) {
			delete(a.grants, token)
		}
	}
}

// userLocked builds the profile snapshot for acc with its current role grant.
func (a *Authority) userLocked(acc *account) *session.User {
	perms, _ := a.roles.Permissions(string(acc.Role))
	u := &session.User{
		ID:          acc.ID,
		Username:    acc.Username,
		FullName:    acc.FullName,
		Email:       acc.Email,
		PhoneNumber: acc.PhoneNumber,
		Role:        acc.Role,
		Unit:        acc.Unit,
		Permissions: perms,
		IsActive:    acc.IsActive,
	}
	return u.Clone()
}

// authenticate verifies an access token and returns its holder's profile.
func (a *Authority) authenticate(token string) (*jwt.AccessClaims, *session.User, error) {
	claims, err := a.tokens.ParseAccess(token)
	if err != nil {
		return nil, nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.live[claims.ID]; !ok {
		return nil, nil, errors.New("access token revoked")
	}
	acc, ok := a.accounts[claims.Subject]
	if !ok {
		return nil, nil, errUnknownAccount
	}
	if !acc.IsActive {
		return nil, nil, errInactive
	}
	return claims, a.userLocked(acc), nil
}

// logout revokes the access token and the refresh grant issued with it.
func (a *Authority) logout(accessID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.live, accessID)
	for token, grant := range a.grants {
		if grant.accessID == accessID {
			delete(a.grants, token)
		}
	}
}

// RevokeAccess invalidates every outstanding access token of username while
// keeping refresh grants usable, as an expiry would.
func (a *Authority) RevokeAccess(username string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, tok := range a.live {
		if tok.username == username {
			delete(a.live, id)
		}
	}
}

// SetActive flips the active flag of username.
func (a *Authority) SetActive(username string, active bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, ok := a.accounts[username]
	if !ok {
		return errUnknownAccount
	}
	acc.IsActive = active
	return nil
}

// SetRole reassigns username to role. Outstanding tokens keep their claims;
// the next profile fetch reports the change and the next sign-in carries it.
func (a *Authority) SetRole(username string, role session.Role) error {
	if _, ok := a.roles.Permissions(string(role)); !ok {
		return fmt.Errorf("unknown role %q", role)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, ok := a.accounts[username]
	if !ok {
		return errUnknownAccount
	}
	acc.Role = role
	return nil
}

// Usernames lists the configured accounts in sorted order.
func (a *Authority) Usernames() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.accounts))
	for name := range a.accounts {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ActiveRefreshGrants reports how many refresh tokens are outstanding.
func (a *Authority) ActiveRefreshGrants() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.grants)
}
