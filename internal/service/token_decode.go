package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"fleetwatch/internal/domain"
)

var ErrTokenUndecodable = errors.New("access token undecodable")

// accessClaims son los claims que el cliente lee del access token.
type accessClaims struct {
	Username  string `json:"username"`
	UserID    any    `json:"user_id,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	jwt.RegisteredClaims
}

// DecodeIdentity lee los claims del access token sin verificar la firma.
// El cliente confia en su propia decodificacion; la verificacion queda del lado del servidor.
func DecodeIdentity(accessToken string) (domain.Identity, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return domain.Identity{}, ErrTokenUndecodable
	}
	var claims accessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrTokenUndecodable, err)
	}
	if strings.TrimSpace(claims.Username) == "" {
		return domain.Identity{}, fmt.Errorf("%w: missing username claim", ErrTokenUndecodable)
	}

	identity := domain.Identity{
		Username:  claims.Username,
		TokenType: claims.TokenType,
		TokenID:   claims.ID,
	}
	if claims.UserID != nil {
		identity.UserID = formatUserID(claims.UserID)
	}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return identity, nil
}

// formatUserID acepta ids numericos (JSON float64) o string.
func formatUserID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return fmt.Sprintf("%.0f", id)
	default:
		return fmt.Sprint(id)
	}
}
