package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"fleetwatch/internal/domain"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest es el conjunto fijo de campos de perfil que acepta el registro.
type RegisterRequest struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

// Login intercambia usuario y password por el par de tokens. Solo 200 es exito.
func (c *Client) Login(ctx context.Context, username, password string) (domain.Credential, error) {
	status, body, err := c.do(ctx, http.MethodPost, LoginPath, loginRequest{Username: username, Password: password}, false)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("login: %w", err)
	}
	if status != http.StatusOK {
		return domain.Credential{}, statusError("login", status, body)
	}
	var cred domain.Credential
	if err := json.Unmarshal(body, &cred); err != nil {
		return domain.Credential{}, fmt.Errorf("login: unmarshal response: %w", err)
	}
	return cred, nil
}

// Register crea la cuenta remota. Solo 201 es exito.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	status, body, err := c.do(ctx, http.MethodPost, RegisterPath, req, false)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	if status != http.StatusCreated {
		return statusError("register", status, body)
	}
	return nil
}
