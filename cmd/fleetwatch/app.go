package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"fleetwatch/internal/api"
	"fleetwatch/internal/config"
	"fleetwatch/internal/service"
	"fleetwatch/internal/storage"
)

// app agrupa las dependencias compartidas por todos los comandos.
type app struct {
	cfg     *config.ClientConfig
	logger  *zap.Logger
	client  *api.Client
	session *service.SessionManager
	in      *bufio.Reader
	out     io.Writer

	readOnce sync.Once
	input    chan inputLine
	done     chan struct{}

	closers []func()
}

// inputLine es una linea leida de la entrada, con el error de lectura si lo hubo.
type inputLine struct {
	text string
	err  error
}

func newApp(ctx context.Context, cfg *config.ClientConfig, in io.Reader, out io.Writer) (*app, error) {
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		in:     bufio.NewReader(in),
		out:    out,
		done:   make(chan struct{}),
	}
	a.closers = append(a.closers, func() { _ = logger.Sync() }, func() { close(a.done) })

	origin := strings.TrimRight(cfg.APIBaseURL, "/")
	store, err := a.openStore(ctx, origin)
	if err != nil {
		a.close()
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	a.client = api.NewClient(origin, httpClient, func() string { return a.session.AccessToken() }, logger)
	a.session = service.NewSessionManager(a.client, store, terminalNotifier{out: out}, logger)
	return a, nil
}

func (a *app) openStore(ctx context.Context, origin string) (storage.Store, error) {
	switch a.cfg.Store {
	case config.StoreMemory:
		return storage.NewMemoryStore(), nil
	case config.StoreRedis:
		if a.cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis store requires REDIS_ADDR")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     a.cfg.RedisAddr,
			Password: a.cfg.RedisPassword,
			DB:       a.cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := client.Ping(ctxPing).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		return storage.NewRedisStore(client, origin), nil
	case config.StoreFile, "":
		path := a.cfg.StorePath
		if path == "" {
			def, err := storage.DefaultFilePath()
			if err != nil {
				return nil, err
			}
			path = def
		}
		return storage.NewFileStore(path, origin)
	default:
		return nil, fmt.Errorf("unknown store %q", a.cfg.Store)
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// newLogger escribe a stderr para no mezclar logs con la salida de la vista.
func newLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	zcfg.Sampling = nil
	if err := zcfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	return zcfg.Build()
}

// lines devuelve la entrada como canal. Un unico lector la consume para prompt y
// watch; termina al primer error de lectura o al cerrar la app. Con stdin
// interactivo puede quedar bloqueado en la lectura hasta que el proceso sale.
func (a *app) lines() <-chan inputLine {
	a.readOnce.Do(func() {
		a.input = make(chan inputLine)
		go a.readInput()
	})
	return a.input
}

func (a *app) readInput() {
	defer close(a.input)
	for {
		line, err := a.in.ReadString('\n')
		select {
		case a.input <- inputLine{text: line, err: err}:
		case <-a.done:
			return
		}
		if err != nil {
			return
		}
	}
}

// prompt lee una linea de la entrada; devuelve io.EOF si se cerro.
func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	line, ok := <-a.lines()
	if !ok {
		return "", io.EOF
	}
	if line.err != nil && (line.err != io.EOF || line.text == "") {
		return "", line.err
	}
	return strings.TrimSpace(line.text), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isTerminalFd(int(f.Fd()))
}
