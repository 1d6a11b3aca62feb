package session

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/MrEthical07/goConsole/permission"
)

var (
	errNilUser       = errors.New("nil user snapshot")
	errNotJSONObject = errors.New("user snapshot is not a JSON object")
)

// wireUser accepts both the stored snapshot shape and the flattened shape the
// authority uses in sign-in responses (userId, unitId, unitName, unitCode).
type wireUser struct {
	ID          *int64         `json:"id"`
	UserID      *int64         `json:"userId"`
	Username    string         `json:"username"`
	FullName    string         `json:"fullName"`
	Email       string         `json:"email"`
	PhoneNumber string         `json:"phoneNumber"`
	AvatarURL   string         `json:"avatarUrl"`
	Role        Role           `json:"role"`
	Unit        *UnitRef       `json:"unit"`
	UnitID      *int64         `json:"unitId"`
	UnitName    string         `json:"unitName"`
	UnitCode    string         `json:"unitCode"`
	Permissions permission.Set `json:"permissions"`
	IsActive    *bool          `json:"isActive"`
}

// EncodeUser serializes a user snapshot for the "user" slot.
func EncodeUser(u *User) (string, error) {
	if u == nil {
		return "", errNilUser
	}
	data, err := json.Marshal(u)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeUser parses a user snapshot from the "user" slot.
func DecodeUser(data string) (*User, error) {
	return DecodeUserBytes([]byte(data))
}

// DecodeUserBytes parses a user snapshot. The input must be a JSON object;
// null, arrays, and scalars are rejected. A missing isActive decodes as active.
func DecodeUserBytes(data []byte) (*User, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errNotJSONObject
	}

	var w wireUser
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return nil, err
	}

	u := &User{
		Username:    w.Username,
		FullName:    w.FullName,
		Email:       w.Email,
		PhoneNumber: w.PhoneNumber,
		AvatarURL:   w.AvatarURL,
		Role:        w.Role,
		Unit:        w.Unit,
		Permissions: w.Permissions,
		IsActive:    true,
	}
	switch {
	case w.ID != nil:
		u.ID = *w.ID
	case w.UserID != nil:
		u.ID = *w.UserID
	}
	if w.IsActive != nil {
		u.IsActive = *w.IsActive
	}
	if u.Unit == nil && w.UnitID != nil {
		u.Unit = &UnitRef{ID: *w.UnitID, Name: w.UnitName, Code: w.UnitCode}
	}

	return u, nil
}
