package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/pflag"

	"fleetwatch/internal/api"
	"fleetwatch/internal/service"
	"fleetwatch/internal/view"
)

var errUnknownCommand = errors.New("unknown command")

// commandOptions son los flags propios de cada comando.
type commandOptions struct {
	username     string
	passwordFile string
	email        string
	firstName    string
	lastName     string
}

func (o *commandOptions) bindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.username, "username", "", "username for login and register")
	fs.StringVar(&o.passwordFile, "password-file", "", "read the password from this file instead of prompting")
	fs.StringVar(&o.email, "email", "", "email for register")
	fs.StringVar(&o.firstName, "first-name", "", "first name for register")
	fs.StringVar(&o.lastName, "last-name", "", "last name for register")
}

func (a *app) run(ctx context.Context, command string, args []string, opts commandOptions) error {
	switch command {
	case "login":
		return a.login(ctx, opts)
	case "register":
		return a.register(ctx, opts)
	case "logout":
		return a.logout()
	case "whoami":
		return a.whoami()
	case "watch":
		return a.watch(ctx)
	case "resync":
		return a.resync(ctx)
	case "history":
		if len(args) != 1 {
			return errors.New("history requires a vessel id")
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid vessel id %q", args[0])
		}
		return a.history(ctx, id)
	default:
		return fmt.Errorf("%w: %s", errUnknownCommand, command)
	}
}

func (a *app) valueOrPrompt(value, label string) (string, error) {
	if value != "" {
		return value, nil
	}
	return a.prompt(label)
}

func (a *app) login(ctx context.Context, opts commandOptions) error {
	a.session.Initialize()

	username, err := a.valueOrPrompt(opts.username, "Usuario: ")
	if err != nil {
		return err
	}
	password, err := a.readPassword(opts.passwordFile)
	if err != nil {
		return err
	}
	if ok, err := a.session.Login(ctx, username, password); !ok {
		return err
	}
	fmt.Fprintf(a.out, "Sesion iniciada como %s.\n", a.session.Session().User.Username)
	return nil
}

func (a *app) register(ctx context.Context, opts commandOptions) error {
	var (
		req api.RegisterRequest
		err error
	)
	if req.Username, err = a.valueOrPrompt(opts.username, "Usuario: "); err != nil {
		return err
	}
	if req.Email, err = a.valueOrPrompt(opts.email, "Email: "); err != nil {
		return err
	}
	if req.FirstName, err = a.valueOrPrompt(opts.firstName, "Nombre: "); err != nil {
		return err
	}
	if req.LastName, err = a.valueOrPrompt(opts.lastName, "Apellido: "); err != nil {
		return err
	}
	if req.Password, err = a.readPassword(opts.passwordFile); err != nil {
		return err
	}

	if ok, err := a.session.Register(ctx, req); !ok {
		return err
	}
	fmt.Fprintln(a.out, "Cuenta creada. Inicia sesion con: fleetwatch login")
	return nil
}

func (a *app) logout() error {
	a.session.Initialize()
	a.session.Logout()
	fmt.Fprintln(a.out, "Sesion cerrada.")
	return nil
}

func (a *app) whoami() error {
	a.session.Initialize()
	s := a.session.Session()
	if s.User == nil {
		fmt.Fprintln(a.out, "No hay sesion activa.")
		return nil
	}
	fmt.Fprintf(a.out, "usuario: %s\n", s.User.Username)
	if s.User.UserID != "" {
		fmt.Fprintf(a.out, "id: %s\n", s.User.UserID)
	}
	if !s.User.ExpiresAt.IsZero() {
		note := ""
		if s.User.Expired(time.Now()) {
			note = " (vencido)"
		}
		fmt.Fprintf(a.out, "vence: %s%s\n", s.User.ExpiresAt.Local().Format(time.RFC3339), note)
	}
	fmt.Fprintf(a.out, "servicio: %s\n", a.client.BaseURL())
	return nil
}

func (a *app) resync(ctx context.Context) error {
	d, err := service.OpenDashboard(ctx, a.session, a.client, a.cfg.PollInterval, a.logger)
	if err != nil {
		return a.explainDashboardError(err)
	}
	defer d.Close()

	if err := d.Fleet.Resync(ctx); err != nil {
		return err
	}
	fmt.Fprint(a.out, view.NewRenderer(a.width()).Render(d.User(), d.Fleet.Snapshot()))
	return nil
}

func (a *app) history(ctx context.Context, vesselID int64) error {
	a.session.Initialize()
	if !a.session.Authenticated() {
		return a.explainDashboardError(service.ErrNotAuthenticated)
	}
	positions, err := a.client.VesselHistory(ctx, vesselID)
	if err != nil {
		return err
	}
	if len(positions) == 0 {
		fmt.Fprintln(a.out, "Sin posiciones registradas.")
		return nil
	}
	for _, p := range positions {
		line := fmt.Sprintf("%s  %.4f, %.4f", p.Timestamp.Local().Format("2006-01-02 15:04:05"), p.Latitude, p.Longitude)
		if p.Speed != nil {
			line += fmt.Sprintf("  %.1f kn", *p.Speed)
		}
		if p.Heading != nil {
			line += fmt.Sprintf("  %.0f°", *p.Heading)
		}
		fmt.Fprintln(a.out, line)
	}
	return nil
}

func (a *app) explainDashboardError(err error) error {
	if errors.Is(err, service.ErrNotAuthenticated) {
		fmt.Fprintln(a.out, "No hay sesion activa. Inicia sesion con: fleetwatch login")
	}
	return err
}

func (a *app) width() int {
	if isTerminal(a.out) {
		return terminalWidth(1)
	}
	return 100
}
