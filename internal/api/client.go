// AngelaMos | 2026
// client.go

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/venuedesk/internal/config"
	"github.com/carterperez-dev/venuedesk/internal/core"
)

const (
	RequestIDHeader = "X-Request-ID"
	maxBodyBytes    = 4 << 20
)

// Client talks JSON to the restaurant backend. Every request waits on a local
// token bucket, carries a fresh request id and runs inside its own span.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	tracer     trace.Tracer
	validate   *validator.Validate
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func New(cfg config.APIConfig, opts ...Option) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api base url %q: %w", cfg.BaseURL, core.ErrInvalidInput)
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	c := &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
		tracer:     otel.Tracer(core.TracerName),
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("login: %w: %s", core.ErrInvalidInput, formatValidationError(err))
	}

	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", req, &resp); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("login: empty access token: %w", core.ErrTokenInvalid)
	}
	return &resp, nil
}

func (c *Client) CurrentUser(ctx context.Context, token string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &user); err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	return &user, nil
}

func (c *Client) UpdateProfile(
	ctx context.Context,
	token string,
	req UpdateProfileRequest,
) (*User, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("update profile: %w: %s", core.ErrInvalidInput, formatValidationError(err))
	}

	var user User
	if err := c.do(ctx, http.MethodPut, "/auth/profile", token, req, &user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &user, nil
}

func (c *Client) UserData(ctx context.Context, token string) (*UserData, error) {
	var data UserData
	if err := c.do(ctx, http.MethodGet, "/auth/user-data", token, nil, &data); err != nil {
		return nil, fmt.Errorf("user data: %w", err)
	}
	return &data, nil
}

func (c *Client) VenueData(ctx context.Context, token, venueID string) (*UserData, error) {
	if venueID == "" {
		return nil, fmt.Errorf("venue data: empty venue id: %w", core.ErrInvalidInput)
	}

	var data UserData
	path := "/auth/venue-data/" + url.PathEscape(venueID)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &data); err != nil {
		return nil, fmt.Errorf("venue data: %w", err)
	}
	return &data, nil
}

func (c *Client) SetVenueStatus(
	ctx context.Context,
	token, venueID string,
	open bool,
) (*Venue, error) {
	if venueID == "" {
		return nil, fmt.Errorf("venue status: empty venue id: %w", core.ErrInvalidInput)
	}

	var venue Venue
	path := "/venues/" + url.PathEscape(venueID) + "/status"
	if err := c.do(ctx, http.MethodPatch, path, token, VenueStatusRequest{IsOpen: open}, &venue); err != nil {
		return nil, fmt.Errorf("venue status: %w", err)
	}
	return &venue, nil
}

func (c *Client) TourStatus(ctx context.Context, token string) (*TourStatus, error) {
	var status TourStatus
	if err := c.do(ctx, http.MethodGet, "/tour/status", token, nil, &status); err != nil {
		return nil, fmt.Errorf("tour status: %w", err)
	}
	return &status, nil
}

func (c *Client) UpdateTourStatus(ctx context.Context, token string, status TourStatus) error {
	if err := c.do(ctx, http.MethodPost, "/tour/status", token, status, nil); err != nil {
		return fmt.Errorf("update tour status: %w", err)
	}
	return nil
}

// Ping probes the backend liveness endpoint.
func (c *Client) Ping(ctx context.Context) error {
	var resp HealthResponse
	if err := c.do(ctx, http.MethodGet, "/healthz", "", nil, &resp); err != nil {
		return fmt.Errorf("backend ping: %w", err)
	}
	return nil
}

func (c *Client) do(
	ctx context.Context,
	method, path, token string,
	body, out any,
) (err error) {
	ctx, span := c.tracer.Start(ctx, method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
	defer func() {
		if err != nil {
			core.SetSpanError(ctx, err)
		}
		span.End()
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	requestID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := parseError(resp.StatusCode, raw, requestID)
		c.logger.Debug("backend request failed",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"request_id", requestID,
			"trace_id", core.TraceID(ctx),
		)
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(raw) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
