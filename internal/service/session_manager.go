package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"fleetwatch/internal/api"
	"fleetwatch/internal/domain"
	"fleetwatch/internal/storage"
)

// AuthAPI es el subconjunto del contrato remoto que usa el SessionManager.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (domain.Credential, error)
	Register(ctx context.Context, req api.RegisterRequest) error
}

// Notifier muestra al usuario un aviso bloqueante cuando falla la autenticacion.
type Notifier interface {
	NotifyAuthFailure(err *AuthError)
}

type nopNotifier struct{}

func (nopNotifier) NotifyAuthFailure(*AuthError) {}

// SessionManager es el dueño exclusivo de la identidad autenticada.
type SessionManager struct {
	api      AuthAPI
	store    storage.Store
	notifier Notifier
	logger   *zap.Logger
	validate *validator.Validate

	mu     sync.RWMutex
	user   *domain.Identity
	ready  bool
	hooks  map[int]func()
	hookID int
}

func NewSessionManager(authAPI AuthAPI, store storage.Store, notifier Notifier, logger *zap.Logger) *SessionManager {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{
		api:      authAPI,
		store:    store,
		notifier: notifier,
		logger:   logger,
		validate: validator.New(),
		hooks:    make(map[int]func()),
	}
}

// Initialize deriva la identidad del access token persistido. No usa la red.
func (m *SessionManager) Initialize() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.user = nil
	defer func() { m.ready = true }()

	token, ok, err := m.store.Get(domain.AccessTokenKey)
	if err != nil {
		m.logger.Warn("read persisted access token failed", zap.Error(err))
		return
	}
	if !ok {
		return
	}
	identity, err := DecodeIdentity(token)
	if err != nil {
		m.logger.Warn("persisted access token undecodable", zap.Error(err))
		return
	}
	m.user = &identity
}

// Ready es false solo mientras Initialize no haya terminado.
func (m *SessionManager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ready
}

// Session devuelve una copia de la sesion actual.
func (m *SessionManager) Session() domain.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return domain.Session{}
	}
	identity := *m.user
	return domain.Session{User: &identity}
}

// Authenticated indica si hay un usuario con sesion.
func (m *SessionManager) Authenticated() bool {
	return m.Session().Authenticated()
}

// AccessToken lee el token persistido; sirve como api.TokenSource.
func (m *SessionManager) AccessToken() string {
	token, _, err := m.store.Get(domain.AccessTokenKey)
	if err != nil {
		m.logger.Warn("read access token failed", zap.Error(err))
		return ""
	}
	return token
}

// Login envia credenciales al servicio. Ante cualquier fallo el estado previo no cambia.
// Llamadas concurrentes no se deduplican: gana la ultima respuesta en resolverse.
func (m *SessionManager) Login(ctx context.Context, username, password string) (bool, error) {
	cred, err := m.api.Login(ctx, username, password)
	if err != nil {
		return false, m.fail(classifyAuthError("login", err))
	}
	if !cred.Complete() {
		return false, m.fail(&AuthError{Op: "login", Kind: AuthRejected, Err: storage.ErrIncompleteCredential})
	}
	identity, err := DecodeIdentity(cred.AccessToken)
	if err != nil {
		return false, m.fail(&AuthError{Op: "login", Kind: AuthRejected, Err: err})
	}

	m.mu.Lock()
	if err := storage.SaveCredential(m.store, cred); err != nil {
		m.mu.Unlock()
		return false, m.fail(&AuthError{Op: "login", Kind: AuthStorage, Err: err})
	}
	m.user = &identity
	m.mu.Unlock()

	m.logger.Info("login succeeded", zap.String("username", identity.Username))
	return true, nil
}

// Register crea la cuenta remota; no establece sesion.
func (m *SessionManager) Register(ctx context.Context, req api.RegisterRequest) (bool, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)

	if err := m.validate.Struct(req); err != nil {
		return false, m.fail(&AuthError{Op: "register", Kind: AuthRejected, Err: err})
	}
	if err := m.api.Register(ctx, req); err != nil {
		return false, m.fail(classifyAuthError("register", err))
	}
	m.logger.Info("registration succeeded", zap.String("username", req.Username))
	return true, nil
}

// OnLogout registra una funcion que corre antes de limpiar la sesion.
// Devuelve la funcion para desregistrarla.
func (m *SessionManager) OnLogout(fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hookID++
	id := m.hookID
	m.hooks[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.hooks, id)
	}
}

// Logout detiene a los dependientes registrados, limpia la identidad y borra ambos tokens.
func (m *SessionManager) Logout() {
	m.mu.Lock()
	hooks := make([]func(), 0, len(m.hooks))
	for _, fn := range m.hooks {
		hooks = append(hooks, fn)
	}
	m.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = nil
	if err := storage.ClearCredential(m.store); err != nil {
		m.logger.Error("clear credential failed", zap.Error(err))
	}
}

func (m *SessionManager) fail(authErr *AuthError) error {
	m.logger.Warn("auth failed",
		zap.String("op", authErr.Op),
		zap.String("kind", authErr.Kind.String()),
		zap.Int("status", authErr.Status),
		zap.Error(authErr.Err),
	)
	m.notifier.NotifyAuthFailure(authErr)
	return authErr
}

// classifyAuthError separa rechazos del servicio de fallos de red.
func classifyAuthError(op string, err error) *AuthError {
	var statusErr *api.StatusError
	if errors.As(err, &statusErr) {
		return &AuthError{Op: op, Kind: AuthRejected, Status: statusErr.Status, Err: err}
	}
	return &AuthError{Op: op, Kind: AuthNetwork, Err: err}
}
