package app

import (
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/core"
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	Disconnect
)

// Policy decides what happens to a connection whose outbound queue is full.
type Policy interface {
	OnBackPressure(conn core.ConnID, user domain.UserID) BackpressureAction
}

// SimplePolicy disconnects slow consumers; they resync on reconnect.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(core.ConnID, domain.UserID) BackpressureAction {
	return Disconnect
}

// DropPolicy keeps slow connections and loses the frames that do not fit.
type DropPolicy struct{}

func (DropPolicy) OnBackPressure(core.ConnID, domain.UserID) BackpressureAction {
	return DropFrame
}

// PolicyByName maps a config value to a policy; unknown names fall back to SimplePolicy.
func PolicyByName(name string) Policy {
	switch name {
	case "drop":
		return DropPolicy{}
	default:
		return SimplePolicy{}
	}
}
