package types

import "fmt"

// Scope is the visibility tier of a context item. The four values are closed:
// anything else is rejected at the boundary so no fifth scope can slip through
// unhandled.
type Scope string

const (
	ScopeGlobal  Scope = "global"
	ScopeUser    Scope = "user"
	ScopeProject Scope = "project"
	ScopeChat    Scope = "chat"
)

func (s Scope) Valid() bool {
	switch s {
	case ScopeGlobal, ScopeUser, ScopeProject, ScopeChat:
		return true
	default:
		return false
	}
}

func (s Scope) String() string { return string(s) }

func ParseScope(raw string) (Scope, error) {
	s := Scope(raw)
	if !s.Valid() {
		return "", fmt.Errorf("invalid scope %q", raw)
	}
	return s, nil
}

// Scopes lists all scopes in the fixed retrieval order.
func Scopes() []Scope {
	return []Scope{ScopeGlobal, ScopeUser, ScopeProject, ScopeChat}
}
