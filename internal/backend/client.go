// Package backend es el cliente del backend alojado: autenticación (/auth/v1) y consultas
// REST sobre tablas (/rest/v1) con el formato de PostgREST.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jeremykhd/mycoaching/internal/metrics"
)

// Config configura el Client.
type Config struct {
	URL        string
	AnonKey    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Storage    SessionStorage
	Metrics    metrics.Recorder
}

// Client habla con el backend alojado. Es seguro para uso concurrente.
type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	storage    SessionStorage
	metrics    metrics.Recorder
	now        func() time.Time
	auth       *AuthClient
}

// New construye un Client validando la configuración mínima.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("backend url is required")
	}
	if strings.TrimSpace(cfg.AnonKey) == "" {
		return nil, fmt.Errorf("backend anon key is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	storage := cfg.Storage
	if storage == nil {
		storage = NewMemoryStorage()
	}
	rec := cfg.Metrics
	if rec == nil {
		rec = metrics.Nop()
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		anonKey:    cfg.AnonKey,
		httpClient: httpClient,
		storage:    storage,
		metrics:    rec,
		now:        time.Now,
	}
	c.auth = &AuthClient{client: c}
	return c, nil
}

// Auth devuelve la superficie de autenticación.
func (c *Client) Auth() *AuthClient {
	return c.auth
}

// From inicia una consulta sobre table.
func (c *Client) From(table string) *QueryBuilder {
	return &QueryBuilder{client: c, table: table}
}

type accessTokenKey struct{}

// WithAccessToken hace que las consultas hechas con ctx viajen con el token del usuario
// en lugar de la clave anónima.
func WithAccessToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, accessTokenKey{}, token)
}

// AccessTokenFrom devuelve el token de usuario que lleva ctx, o "".
func AccessTokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(accessTokenKey{}).(string)
	return token
}

func (c *Client) newRequest(ctx context.Context, method, rawURL string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	bearer := c.anonKey
	if token := AccessTokenFrom(ctx); token != "" {
		bearer = token
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do ejecuta req y devuelve el cuerpo. Un status >= 400 se convierte en *Error;
// cualquier otro fallo es de transporte.
func (c *Client) do(req *http.Request, operation string) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordBackendCall(operation, "transport_error", time.Since(start))
		return nil, fmt.Errorf("%s: do request: %w", operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RecordBackendCall(operation, "transport_error", time.Since(start))
		return nil, fmt.Errorf("%s: read response: %w", operation, err)
	}

	if resp.StatusCode >= 400 {
		c.metrics.RecordBackendCall(operation, "rejected", time.Since(start))
		return nil, parseError(body, resp.StatusCode)
	}

	c.metrics.RecordBackendCall(operation, "ok", time.Since(start))
	return body, nil
}
