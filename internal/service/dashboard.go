package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

var ErrNotAuthenticated = errors.New("not authenticated")

// Dashboard es la vista protegida por la sesion que aloja al FleetSynchronizer.
type Dashboard struct {
	Fleet *FleetSynchronizer

	session    *SessionManager
	unregister func()
}

// OpenDashboard exige una sesion activa, arranca el sincronizador y lo engancha al logout.
func OpenDashboard(ctx context.Context, session *SessionManager, fleetAPI FleetAPI, interval time.Duration, logger *zap.Logger) (*Dashboard, error) {
	if !session.Ready() {
		session.Initialize()
	}
	if !session.Authenticated() {
		return nil, ErrNotAuthenticated
	}

	fleet := NewFleetSynchronizer(fleetAPI, interval, logger)
	unregister := session.OnLogout(fleet.Stop)
	if err := fleet.Start(ctx); err != nil {
		unregister()
		return nil, err
	}
	return &Dashboard{
		Fleet:      fleet,
		session:    session,
		unregister: unregister,
	}, nil
}

// User devuelve el nombre del usuario con sesion, o "" tras el logout.
func (d *Dashboard) User() string {
	s := d.session.Session()
	if s.User == nil {
		return ""
	}
	return s.User.Username
}

// Close desmonta la vista: detiene el sincronizador y suelta el hook de logout.
func (d *Dashboard) Close() {
	d.Fleet.Stop()
	d.unregister()
}
