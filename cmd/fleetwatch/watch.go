package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"fleetwatch/internal/domain"
	"fleetwatch/internal/service"
	"fleetwatch/internal/view"
)

const watchHelp = "[n] seleccionar  [0] limpiar  [r] resync  [h] historial  [l] logout  [q] salir"

var errQuit = errors.New("quit")

// watcher redibuja el dashboard ante cada snapshot y atiende comandos de una linea.
type watcher struct {
	app       *app
	dashboard *service.Dashboard
	renderer  view.Renderer
	clear     bool

	mu sync.Mutex
}

func (a *app) watch(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d, err := service.OpenDashboard(ctx, a.session, a.client, a.cfg.PollInterval, a.logger)
	if err != nil {
		return a.explainDashboardError(err)
	}
	defer d.Close()

	w := newWatcher(a, d)
	d.Fleet.OnSnapshot(func(domain.Snapshot) { w.redraw() })
	d.Fleet.OnSelect(func(*domain.Vessel) { w.redraw() })
	w.redraw()

	lines := a.lines()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if line.text != "" {
				if err := w.handle(ctx, line.text); err != nil {
					if errors.Is(err, errQuit) {
						return nil
					}
					return err
				}
			}
			if line.err != nil {
				if errors.Is(line.err, io.EOF) {
					return nil
				}
				return line.err
			}
		}
	}
}

func newWatcher(a *app, d *service.Dashboard) *watcher {
	return &watcher{
		app:       a,
		dashboard: d,
		renderer:  view.NewRenderer(a.width()),
		clear:     isTerminal(a.out),
	}
}

// handle interpreta una linea de entrada del usuario.
func (w *watcher) handle(ctx context.Context, line string) error {
	cmd := strings.ToLower(strings.TrimSpace(line))
	fleet := w.dashboard.Fleet

	switch cmd {
	case "":
		w.redraw()
	case "q", "quit":
		return errQuit
	case "r", "resync":
		if err := fleet.Resync(ctx); err != nil {
			return err
		}
	case "l", "logout":
		w.app.session.Logout()
		fmt.Fprintln(w.app.out, "Sesion cerrada.")
		return errQuit
	case "h", "history":
		v, ok := fleet.Selected()
		if !ok {
			w.printf("Selecciona un buque primero.\n")
			return nil
		}
		if err := w.app.history(ctx, v.ID); err != nil {
			w.app.logger.Warn("vessel history failed", zap.Int64("vessel_id", v.ID), zap.Error(err))
			w.printf("No se pudo obtener el historial.\n")
		}
	default:
		n, err := strconv.Atoi(cmd)
		if err != nil {
			w.printf("Comando desconocido. %s\n", watchHelp)
			return nil
		}
		rows := view.List(fleet.Snapshot())
		if err := view.SelectRow(fleet, rows, n); err != nil {
			w.printf("No existe la fila %d.\n", n)
		}
	}
	return nil
}

func (w *watcher) redraw() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.dashboard.Fleet.Alive() {
		return
	}
	if w.clear {
		fmt.Fprint(w.app.out, "\033[H\033[2J")
	}
	fmt.Fprint(w.app.out, w.renderer.Render(w.dashboard.User(), w.dashboard.Fleet.Snapshot()))
	fmt.Fprintln(w.app.out, watchHelp)
}

func (w *watcher) printf(format string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.app.out, format, args...)
}
