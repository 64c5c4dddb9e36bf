package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Rutas del contrato remoto, relativas a la URL base.
const (
	LoginPath        = "/auth/login/"
	RegisterPath     = "/auth/register/"
	VesselsPath      = "/vessels/"
	SyncMockDataPath = "/vessels/sync_mock_data/"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrForeignOrigin    = errors.New("url outside api origin")
)

// StatusError describe una respuesta HTTP fuera de la esperada por la operacion.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Status)
}

func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }

// TokenSource devuelve el access token actual, o "" si no hay sesion.
type TokenSource func() string

// Client habla con el servicio remoto de flota.
type Client struct {
	baseURL string
	client  *http.Client
	tokens  TokenSource
	logger  *zap.Logger
}

// NewClient construye un cliente contra baseURL. tokens puede ser nil para llamadas anonimas.
func NewClient(baseURL string, httpClient *http.Client, tokens TokenSource, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
		tokens:  tokens,
		logger:  logger,
	}
}

// BaseURL identifica el origen al que se acotan las credenciales.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// endpoint arma la URL de una ruta relativa a baseURL. Las URLs absolutas solo se
// aceptan si comparten esquema y host con baseURL: el token no sale del origen.
func (c *Client) endpoint(path string) (string, error) {
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		return c.baseURL + path, nil
	}
	target, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if !strings.EqualFold(base.Scheme, target.Scheme) || !strings.EqualFold(base.Host, target.Host) {
		return "", fmt.Errorf("%w: %s://%s", ErrForeignOrigin, target.Scheme, target.Host)
	}
	return target.String(), nil
}

// do ejecuta la peticion y devuelve status y cuerpo completo.
func (c *Client) do(ctx context.Context, method, path string, body any, auth bool) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	target, err := c.endpoint(path)
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth && c.tokens != nil {
		if token := c.tokens(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)
	return resp.StatusCode, respBody, nil
}

func statusError(op string, status int, body []byte) *StatusError {
	const maxBody = 512
	text := string(body)
	if len(text) > maxBody {
		text = text[:maxBody]
	}
	return &StatusError{Op: op, Status: status, Body: text}
}
