package domain

import "time"

// Claves persistidas en el almacenamiento del cliente.
const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
)

// Credential es el par de tokens de una sesion autenticada.
type Credential struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
}

// Complete indica si ambos tokens estan presentes.
func (c Credential) Complete() bool {
	return c.AccessToken != "" && c.RefreshToken != ""
}

// Identity son los claims del access token que identifican al usuario.
type Identity struct {
	Username  string    `json:"username"`
	UserID    string    `json:"user_id,omitempty"`
	TokenType string    `json:"token_type,omitempty"`
	TokenID   string    `json:"jti,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
}

// Expired informa si el token ya vencio respecto a now. Un ExpiresAt vacio nunca vence.
func (i Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}
