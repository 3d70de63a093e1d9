package identity

import "strings"

// Provider answers who the engine is acting for. A false second return means
// nobody is signed in and user-scoped operations must be rejected.
type Provider interface {
	CurrentUserID() (string, bool)
}

type Static string

func (s Static) CurrentUserID() (string, bool) {
	id := strings.TrimSpace(string(s))
	return id, id != ""
}
