package domain

// Session se deriva del access token; nunca se persiste por si misma.
type Session struct {
	User *Identity `json:"user"`
}

// Authenticated indica si hay una identidad activa.
func (s Session) Authenticated() bool {
	return s.User != nil
}
