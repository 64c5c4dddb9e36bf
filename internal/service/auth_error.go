package service

import (
	"errors"
	"fmt"
)

// AuthKind clasifica los fallos de login y registro.
type AuthKind int

const (
	// AuthNetwork: el servicio no respondio (transporte, timeout, respuesta ilegible).
	AuthNetwork AuthKind = iota + 1
	// AuthRejected: el servicio respondio con un status distinto al esperado, o los datos no son validos.
	AuthRejected
	// AuthStorage: la credencial no pudo persistirse localmente.
	AuthStorage
)

var (
	ErrAuthNetwork  = errors.New("auth service unreachable")
	ErrAuthRejected = errors.New("auth rejected")
	ErrAuthStorage  = errors.New("credential storage failed")
)

func (k AuthKind) String() string {
	switch k {
	case AuthNetwork:
		return "network"
	case AuthRejected:
		return "rejected"
	case AuthStorage:
		return "storage"
	default:
		return "unknown"
	}
}

func (k AuthKind) sentinel() error {
	switch k {
	case AuthNetwork:
		return ErrAuthNetwork
	case AuthRejected:
		return ErrAuthRejected
	case AuthStorage:
		return ErrAuthStorage
	default:
		return nil
	}
}

// AuthError es el fallo tipado de Login y Register.
type AuthError struct {
	Op     string
	Kind   AuthKind
	Status int
	Err    error
}

func (e *AuthError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s (status %d): %v", e.Op, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is permite errors.Is(err, ErrAuthNetwork) y similares.
func (e *AuthError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}
