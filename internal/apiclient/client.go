package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront/client/internal/logging"
)

// TokenSource отдаёт текущий bearer-токен или пустую строку, если входа нет.
type TokenSource interface {
	Token(ctx context.Context) string
}

// Client: единый транспорт для всех вызовов REST-бэкенда магазина.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *logging.Logger
	tokens     TokenSource
}

// Options позволяет переопределить зависимости клиента.
type Options struct {
	HTTPClient *http.Client
	Logger     *logging.Logger
	Tokens     TokenSource
	// Timeout ограничивает каждый запрос; 0 означает «без ограничения».
	Timeout time.Duration
}

// New создаёт клиент для baseURL.
func New(baseURL string, opts Options) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is empty")
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse baseURL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("baseURL %q is not absolute", baseURL)
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{baseURL: parsed, httpClient: client, logger: logger, tokens: opts.Tokens}, nil
}

// SetTokenSource подключает источник токена после создания клиента.
func (c *Client) SetTokenSource(tokens TokenSource) {
	c.tokens = tokens
}

// Request описывает один вызов бэкенда.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// NoAuth отключает заголовок Authorization (вход и регистрация).
	NoAuth bool
	// NoContentType не выставляет Content-Type (эндпоинты без тела).
	NoContentType bool
}

// Do выполняет запрос. Ответ вне диапазона 2xx и сбой транспорта возвращаются как *Error.
func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	target, err := c.resolve(r.Path, r.Query)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", r.Path, err)
	}

	var body io.Reader
	if r.Body != nil {
		payload, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, r.Path, err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, r.Path, err)
	}
	c.applyHeaders(ctx, req, r)

	c.logger.Debugf("API call: %s %s", method, target)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Errorf("API error: %s %s: %v", method, target, err)
		return nil, networkError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Errorf("API error: %s %s: read body: %v", method, target, err)
		return nil, networkError(err)
	}
	out, parseErr := newResponse(resp.StatusCode, resp.Header, raw)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Message: out.message(), Status: resp.StatusCode, Data: out.data()}
		if apiErr.Message == "" {
			apiErr.Message = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, statusText(resp))
		}
		c.logger.Errorf("API error: %s %s: %s", method, target, apiErr.Message)
		return nil, apiErr
	}
	if parseErr != nil {
		c.logger.Errorf("API error: %s %s: %v", method, target, parseErr)
		return nil, &Error{Message: "malformed JSON response", Status: resp.StatusCode, Data: parseErr}
	}
	c.logger.Debugf("API success: %d %s %s", resp.StatusCode, method, target)
	return out, nil
}

func (c *Client) resolve(path string, query url.Values) (string, error) {
	rel, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	full := *c.baseURL
	full.Path = c.baseURL.Path + rel.Path
	full.RawPath = ""
	if rel.RawPath != "" {
		full.RawPath = c.baseURL.EscapedPath() + rel.RawPath
	}
	full.RawQuery = rel.RawQuery
	if len(query) > 0 {
		if full.RawQuery != "" {
			full.RawQuery += "&" + query.Encode()
		} else {
			full.RawQuery = query.Encode()
		}
	}
	return full.String(), nil
}

func (c *Client) applyHeaders(ctx context.Context, req *http.Request, r Request) {
	if !r.NoContentType {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if r.NoAuth || c.tokens == nil {
		return
	}
	if token := c.tokens.Token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func statusText(resp *http.Response) string {
	code := fmt.Sprintf("%d ", resp.StatusCode)
	if text := strings.TrimPrefix(resp.Status, code); text != "" && text != resp.Status {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

// Option настраивает отдельный вызов удобных методов.
type Option func(*Request)

// WithoutAuth отключает bearer-токен для вызова.
func WithoutAuth() Option {
	return func(r *Request) { r.NoAuth = true }
}

// WithoutContentType подавляет заголовок Content-Type.
func WithoutContentType() Option {
	return func(r *Request) { r.NoContentType = true }
}

// WithQuery добавляет параметры строки запроса.
func WithQuery(params url.Values) Option {
	return func(r *Request) { r.Query = params }
}

func (c *Client) call(ctx context.Context, method, path string, body any, opts []Option) (*Response, error) {
	r := Request{Method: method, Path: path, Body: body}
	for _, opt := range opts {
		opt(&r)
	}
	return c.Do(ctx, r)
}

// Get выполняет GET, сериализуя params в строку запроса.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: params})
}

// Post отправляет body как JSON, если он задан.
func (c *Client) Post(ctx context.Context, path string, body any, opts ...Option) (*Response, error) {
	return c.call(ctx, http.MethodPost, path, body, opts)
}

// Put отправляет body как JSON, если он задан.
func (c *Client) Put(ctx context.Context, path string, body any, opts ...Option) (*Response, error) {
	return c.call(ctx, http.MethodPut, path, body, opts)
}

func (c *Client) Delete(ctx context.Context, path string, opts ...Option) (*Response, error) {
	return c.call(ctx, http.MethodDelete, path, nil, opts)
}

// PostPublic отправляет POST без авторизации; используется входом и регистрацией.
func (c *Client) PostPublic(ctx context.Context, path string, body any) (*Response, error) {
	return c.call(ctx, http.MethodPost, path, body, []Option{WithoutAuth()})
}
