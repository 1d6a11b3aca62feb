package session

import (
	"testing"

	"github.com/MrEthical07/goConsole/permission"
)

func TestDecodeUserAcceptsSignInShape(t *testing.T) {
	raw := `{
		"accessToken": "A1",
		"refreshToken": "R1",
		"tokenType": "Bearer",
		"expiresIn": 900,
		"userId": 42,
		"username": "alice",
		"fullName": "Alice Example",
		"email": "alice@example.com",
		"role": "STAFF",
		"unitId": 3,
		"unitName": "Ops",
		"permissions": ["user:read"]
	}`

	u, err := DecodeUser(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if u.ID != 42 {
		t.Fatalf("ID = %d, want 42", u.ID)
	}
	if u.Role != RoleStaff {
		t.Fatalf("Role = %q, want %q", u.Role, RoleStaff)
	}
	if u.Unit == nil || u.Unit.ID != 3 || u.Unit.Name != "Ops" {
		t.Fatalf("unexpected unit: %+v", u.Unit)
	}
	if !u.IsActive {
		t.Fatal("missing isActive must decode as active")
	}
	if !u.Permissions.Has(permission.UserRead) {
		t.Fatal("expected user:read")
	}
}

func TestDecodeUserKeepsUnknownRole(t *testing.T) {
	u, err := DecodeUser(`{"id":1,"username":"bob","role":"AUDITOR","permissions":[]}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if u.Role != "AUDITOR" || u.Role.Valid() {
		t.Fatalf("unknown role must be kept verbatim and reported invalid, got %q", u.Role)
	}
}

func TestEncodeUserRoundTrip(t *testing.T) {
	parent := int64(1)
	in := &User{
		ID:          9,
		Username:    "carol",
		Role:        RoleUnitManager,
		Unit:        &UnitRef{ID: 2, Name: "Field", ParentID: &parent},
		Permissions: permission.NewSet(permission.TaskAssign, permission.TaskRead),
		IsActive:    false,
	}

	raw, err := EncodeUser(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeUser(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.IsActive {
		t.Fatal("explicit isActive=false must survive")
	}
	if out.Unit == nil || out.Unit.ParentID == nil || *out.Unit.ParentID != 1 {
		t.Fatalf("unexpected unit: %+v", out.Unit)
	}
	if !out.Permissions.Equal(in.Permissions) {
		t.Fatalf("permissions = %v, want %v", out.Permissions.Tokens(), in.Permissions.Tokens())
	}
}

func TestEncodeUserRejectsNil(t *testing.T) {
	if _, err := EncodeUser(nil); err == nil {
		t.Fatal("expected error for nil user")
	}
}

func TestUserCloneIsDeep(t *testing.T) {
	parent := int64(5)
	u := &User{Username: "dave", Unit: &UnitRef{ID: 1, ParentID: &parent}}
	c := u.Clone()
	c.Unit.ID = 99
	*c.Unit.ParentID = 100
	if u.Unit.ID != 1 || *u.Unit.ParentID != 5 {
		t.Fatal("clone shares unit memory with original")
	}
}

func TestUnitIsRoot(t *testing.T) {
	parent := int64(1)
	if !(Unit{ID: 1}).IsRoot() {
		t.Fatal("unit without parent must be root")
	}
	if (Unit{ID: 2, ParentID: &parent}).IsRoot() {
		t.Fatal("unit with parent must not be root")
	}
}
