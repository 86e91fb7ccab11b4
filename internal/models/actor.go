package models

// Actor is an authenticated principal resolved by a guard.
type Actor struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Guard string `json:"guard"`
}

// AuthContext holds the outcome of every configured guard for one request.
type AuthContext struct {
	// Actors maps guard name to the actor it resolved. Guards that did not
	// authenticate have no entry.
	Actors map[string]*Actor
}

// NewAuthContext returns an empty auth context.
func NewAuthContext() *AuthContext {
	return &AuthContext{Actors: make(map[string]*Actor)}
}

// Authenticate records that guard resolved actor.
func (a *AuthContext) Authenticate(guard string, actor *Actor) {
	a.Actors[guard] = actor
}

// Check reports whether the named guard authenticated.
func (a *AuthContext) Check(guard string) bool {
	if a == nil {
		return false
	}

	_, ok := a.Actors[guard]

	return ok
}

// SatisfiesAny returns the actor of the first guard in allowed that
// authenticated. Evaluation is in list order.
func (a *AuthContext) SatisfiesAny(allowed []string) (*Actor, bool) {
	if a == nil {
		return nil, false
	}

	for _, g := range allowed {
		if actor, ok := a.Actors[g]; ok {
			return actor, true
		}
	}

	return nil, false
}

// Any returns some authenticated actor, preferring guards in order.
func (a *AuthContext) Any(order []string) (*Actor, bool) {
	if actor, ok := a.SatisfiesAny(order); ok {
		return actor, true
	}

	if a == nil {
		return nil, false
	}

	for _, actor := range a.Actors {
		return actor, true
	}

	return nil, false
}
