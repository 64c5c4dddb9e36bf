package storage

import (
	"errors"

	"fleetwatch/internal/domain"
)

// Store es un almacenamiento clave/valor sincrono, acotado a un origen.
type Store interface {
	Get(key string) (string, bool, error)
	// SetAll escribe todas las claves o ninguna.
	SetAll(values map[string]string) error
	Delete(keys ...string) error
}

var ErrIncompleteCredential = errors.New("credential incomplete")

// SaveCredential persiste ambos tokens juntos.
func SaveCredential(s Store, cred domain.Credential) error {
	if !cred.Complete() {
		return ErrIncompleteCredential
	}
	return s.SetAll(map[string]string{
		domain.AccessTokenKey:  cred.AccessToken,
		domain.RefreshTokenKey: cred.RefreshToken,
	})
}

// LoadCredential devuelve la credencial persistida. Un par parcial se trata como ausente.
func LoadCredential(s Store) (domain.Credential, bool, error) {
	access, okAccess, err := s.Get(domain.AccessTokenKey)
	if err != nil {
		return domain.Credential{}, false, err
	}
	refresh, okRefresh, err := s.Get(domain.RefreshTokenKey)
	if err != nil {
		return domain.Credential{}, false, err
	}
	if !okAccess || !okRefresh {
		return domain.Credential{}, false, nil
	}
	cred := domain.Credential{AccessToken: access, RefreshToken: refresh}
	return cred, cred.Complete(), nil
}

// ClearCredential borra ambos tokens.
func ClearCredential(s Store) error {
	return s.Delete(domain.AccessTokenKey, domain.RefreshTokenKey)
}
