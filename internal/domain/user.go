// Package domain contains entities and their invariants, no transport or storage.
package domain

import (
	"errors"
	"strings"
)

const (
	MaxUserIDLen = 64
)

var (
	ErrUserIDTooLong = errors.New("user id too long")
	ErrUserIDEmpty   = errors.New("user id empty")
)

type UserID string

// ParseUserID trims and validates an id coming from a client or the gateway.
func ParseUserID(raw string) (UserID, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) == 0 {
		return "", ErrUserIDEmpty
	}
	if len(raw) > MaxUserIDLen {
		return "", ErrUserIDTooLong
	}
	return UserID(raw), nil
}

// Preferences are the per-user join defaults owned by the profile service.
type Preferences struct {
	MuteOnJoin                bool `json:"muteOnJoin" mapstructure:"muteOnJoin"`
	StartWithCameraOff        bool `json:"startWithCameraOff" mapstructure:"startWithCameraOff"`
	AutoTurnOffCameraOnRecord bool `json:"autoTurnOffCameraOnRecord" mapstructure:"autoTurnOffCameraOnRecord"`
}

// CameraOnJoin applies the camera default policy for a joiner.
func (p Preferences) CameraOnJoin(recording bool) bool {
	if recording && p.AutoTurnOffCameraOnRecord {
		return false
	}
	return !p.StartWithCameraOff
}

// MicOnJoin applies the mic default policy for a joiner.
func (p Preferences) MicOnJoin() bool {
	return !p.MuteOnJoin
}

// DefaultPreferences mirrors the profile defaults for users who never changed them.
func DefaultPreferences() Preferences {
	return Preferences{AutoTurnOffCameraOnRecord: true}
}
