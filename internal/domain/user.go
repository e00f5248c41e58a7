// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const (
	MaxUserIDLen   = 36
	MaxUsernameLen = 36
)

var (
	ErrUserIDEmpty     = errors.New("user id empty")
	ErrUserIDTooLong   = errors.New("user id too long")
	ErrUsernameTooLong = errors.New("username too long")
)

type UserID string

// UserInfo is a display snapshot cached per room member. Name and avatar
// come from the profile store and are not authoritative.
type UserInfo struct {
	ID        UserID `json:"id"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// NewUserInfo is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUserInfo(id UserID) (UserInfo, error) {
	if len(id) == 0 {
		return UserInfo{}, ErrUserIDEmpty
	}
	if len(id) > MaxUserIDLen {
		return UserInfo{}, ErrUserIDTooLong
	}
	return UserInfo{ID: id}, nil
}

func (u *UserInfo) SetName(name string) error {
	if len(name) > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	u.Name = name
	return nil
}
