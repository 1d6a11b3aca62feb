package session

import "github.com/MrEthical07/goConsole/permission"

// Role is the coarse-grained classification attached to a user.
type Role string

const (
	RoleAdmin       Role = permission.RoleAdmin
	RoleUnitManager Role = permission.RoleUnitManager
	RoleStaff       Role = permission.RoleStaff
	RoleViewer      Role = permission.RoleViewer
)

// Valid reports whether r is one of the built-in roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUnitManager, RoleStaff, RoleViewer:
		return true
	default:
		return false
	}
}

// UnitRef is the summary of the organizational unit a user belongs to.
type UnitRef struct {
	ID       int64  `json:"id"`
	Name     string `json:"unitName"`
	Code     string `json:"unitCode,omitempty"`
	ParentID *int64 `json:"parentUnitId,omitempty"`
}

// Unit is reference data for an organizational unit.
type Unit struct {
	ID          int64  `json:"id"`
	UnitName    string `json:"unitName"`
	UnitCode    string `json:"unitCode"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"isActive"`
	ParentID    *int64 `json:"parentUnitId,omitempty"`
}

// IsRoot reports whether the unit has no parent.
func (u Unit) IsRoot() bool {
	return u.ParentID == nil
}

// User is the identity snapshot captured at sign-in.
//
// A User held by a [Session] is never mutated; updates produce a new value.
type User struct {
	ID          int64          `json:"id"`
	Username    string         `json:"username"`
	FullName    string         `json:"fullName,omitempty"`
	Email       string         `json:"email,omitempty"`
	PhoneNumber string         `json:"phoneNumber,omitempty"`
	AvatarURL   string         `json:"avatarUrl,omitempty"`
	Role        Role           `json:"role"`
	Unit        *UnitRef       `json:"unit,omitempty"`
	Permissions permission.Set `json:"permissions"`
	IsActive    bool           `json:"isActive"`
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	if u.Unit != nil {
		unit := *u.Unit
		if u.Unit.ParentID != nil {
			parent := *u.Unit.ParentID
			unit.ParentID = &parent
		}
		out.Unit = &unit
	}
	return &out
}

// Session is an authenticated console session: a token pair plus the user
// snapshot returned by the authority.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *User
}

// Complete reports whether every part of the session is present.
func (s *Session) Complete() bool {
	return s != nil && s.AccessToken != "" && s.RefreshToken != "" && s.User != nil
}

// WithTokens returns a copy of s carrying a new token pair. An empty refresh
// token keeps the current one.
func (s *Session) WithTokens(accessToken, refreshToken string) *Session {
	out := &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         s.User.Clone(),
	}
	if out.RefreshToken == "" {
		out.RefreshToken = s.RefreshToken
	}
	return out
}

// WithUser returns a copy of s carrying a new user snapshot.
func (s *Session) WithUser(u *User) *Session {
	return &Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		User:         u.Clone(),
	}
}
