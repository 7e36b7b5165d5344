package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-console/internal/config"
	"github.com/spec-kit/helpdesk-console/internal/domain"
	"github.com/spec-kit/helpdesk-console/internal/observability"
	apperrors "github.com/spec-kit/helpdesk-console/pkg/util/errorutil"
)

// Client is the typed REST client for the helpdesk backend. Each call takes
// the caller's session explicitly; its token becomes the bearer credential.
type Client struct {
	http    *resty.Client
	metrics *observability.Metrics
	logger  *zap.Logger
}

// New builds a client from backend configuration.
func New(cfg config.BackendConfig, metrics *observability.Metrics, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", cfg.UserAgent)
	if timeout := cfg.Timeout(); timeout > 0 {
		httpClient.SetTimeout(timeout)
	}
	return &Client{http: httpClient, metrics: metrics, logger: logger}
}

type call struct {
	method string
	to     endpoint
	query  url.Values
	body   any
	upload *upload
}

// endpoint is a concrete backend path and the route template it was built
// from. Metrics are keyed by route.
type endpoint struct {
	path  string
	route string
}

// at fills the {placeholders} of route, in order, with escaped ids.
func at(route string, ids ...string) endpoint {
	var b strings.Builder
	rest := route
	for _, id := range ids {
		open := strings.IndexByte(rest, '{')
		end := strings.IndexByte(rest, '}')
		if open < 0 || end < open {
			break
		}
		b.WriteString(rest[:open])
		b.WriteString(escape(id))
		rest = rest[end+1:]
	}
	b.WriteString(rest)
	return endpoint{path: b.String(), route: route}
}

type upload struct {
	field    string
	fileName string
	reader   io.Reader
}

var successStatuses = map[int]bool{
	http.StatusOK:        true,
	http.StatusCreated:   true,
	http.StatusNoContent: true,
}

func (c *Client) send(ctx context.Context, sess *domain.Session, in call) ([]byte, error) {
	req := c.http.R().SetContext(ctx)
	if sess != nil && sess.Token != "" {
		req.SetAuthToken(sess.Token)
	}
	if len(in.query) > 0 {
		req.SetQueryParamsFromValues(in.query)
	}
	if in.body != nil {
		payload, err := json.Marshal(in.body)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		req.SetHeader("Content-Type", "application/json").SetBody(payload)
	}
	if in.upload != nil {
		req.SetFileReader(in.upload.field, in.upload.fileName, in.upload.reader)
	}

	path := in.to.path
	start := time.Now()
	resp, err := req.Execute(in.method, path)
	duration := time.Since(start)
	if err != nil {
		c.metrics.RecordUpstream(in.method, in.to.route, 0, duration)
		c.logger.Warn("backend call failed",
			zap.String("method", in.method),
			zap.String("path", path),
			zap.Error(err))
		return nil, apperrors.NewUpstreamUnavailable(in.method, path, err)
	}

	status := resp.StatusCode()
	c.metrics.RecordUpstream(in.method, in.to.route, status, duration)
	c.logger.Debug("backend call",
		zap.String("method", in.method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.Duration("duration", duration))
	if !successStatuses[status] {
		return nil, apperrors.NewUpstreamError(in.method, path, status, errorMessage(resp.Body()))
	}
	return resp.Body(), nil
}

// errorMessage extracts a human message from common backend error bodies.
func errorMessage(body []byte) string {
	var shaped struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &shaped); err != nil {
		return ""
	}
	if shaped.Message != "" {
		return shaped.Message
	}
	if len(shaped.Error) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(shaped.Error, &text); err == nil {
		return text
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(shaped.Error, &nested); err == nil {
		return nested.Message
	}
	return ""
}

func get[T any](ctx context.Context, c *Client, sess *domain.Session, to endpoint, query url.Values) (Envelope[T], error) {
	body, err := c.send(ctx, sess, call{method: http.MethodGet, to: to, query: query})
	if err != nil {
		return Envelope[T]{}, err
	}
	return decodeOrInternal[T](body)
}

func write[T any](ctx context.Context, c *Client, sess *domain.Session, method string, to endpoint, payload any) (T, error) {
	body, err := c.send(ctx, sess, call{method: method, to: to, body: payload})
	if err != nil {
		var zero T
		return zero, err
	}
	env, err := decodeOrInternal[T](body)
	return env.Data, err
}

func decodeOrInternal[T any](body []byte) (Envelope[T], error) {
	env, err := decodeEnvelope[T](body)
	if err != nil {
		return env, apperrors.NewInternalError(err)
	}
	return env, nil
}

func toPage[T any](env Envelope[[]T], page, limit int) domain.Page[T] {
	result := domain.Page[T]{Items: env.Data, Page: page, Limit: limit}
	if result.Items == nil {
		result.Items = []T{}
	}
	if env.Meta != nil {
		if env.Meta.Page > 0 {
			result.Page = env.Meta.Page
		}
		if env.Meta.Limit > 0 {
			result.Limit = env.Meta.Limit
		}
		result.Total = env.Meta.Total
	}
	return result
}

func escape(segment string) string {
	return url.PathEscape(strings.TrimSpace(segment))
}

// Ping checks backend readiness.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.send(ctx, nil, call{method: http.MethodGet, to: at("/v1/health")})
	return err
}
