package frappe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/cloudyy74/frappe-user-admin/internal/models"
)

const (
	defaultPageLength = 20

	searchLinkPath = "/api/method/frappe.desk.search.search_link"
	createUserPath = "/api/method/frappe.core.doctype.user.user.create_user"
	userPath       = "/api/resource/User/{id}"
	loginPath      = "/api/method/login"
)

const (
	OpList   = "list"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpLogin  = "login"
)

const (
	outcomeSuccess   = "success"
	outcomeTransport = "transport_error"
	outcomeBackend   = "backend_error"
)

type Recorder interface {
	ObserveRequest(operation, outcome string, elapsed time.Duration)
}

type Options struct {
	BaseURL    string
	APIKey     string
	APISecret  string
	PageLength int
	Timeout    time.Duration
	Recorder   Recorder
}

// Client talks to a Frappe site. The underlying resty client keeps a cookie
// jar, so a session obtained through Login is sent with every later call.
type Client struct {
	http       *resty.Client
	pageLength int
	recorder   Recorder
	log        *slog.Logger
}

func NewClient(opts Options, log *slog.Logger) (*Client, error) {
	if log == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if err := validateBaseURL(opts.BaseURL); err != nil {
		return nil, err
	}
	if (opts.APIKey == "") != (opts.APISecret == "") {
		return nil, errors.New("api key and api secret must be set together")
	}
	pageLength := opts.PageLength
	if pageLength <= 0 {
		pageLength = defaultPageLength
	}

	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if opts.APIKey != "" {
		client.SetHeader("Authorization", fmt.Sprintf("token %s:%s", opts.APIKey, opts.APISecret))
	}

	return &Client{
		http:       client,
		pageLength: pageLength,
		recorder:   opts.Recorder,
		log:        log,
	}, nil
}

func validateBaseURL(baseURL string) error {
	if baseURL == "" {
		return errors.New("frappe url cannot be empty")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid frappe url: %w", err)
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return fmt.Errorf("frappe url must be absolute, got: %s", baseURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("frappe url scheme must be http or https, got: %s", parsed.Scheme)
	}
	return nil
}

func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []frappeUser
	err := c.do(ctx, OpList, http.MethodPost, searchLinkPath, nil, searchLinkRequest{
		Doctype:    userDoctype,
		Txt:        "",
		PageLength: c.pageLength,
	}, &users)
	if err != nil {
		return nil, err
	}
	return mapUsers(users), nil
}

func (c *Client) CreateUser(ctx context.Context, in models.UserInput) (*models.User, error) {
	var created frappeUser
	if err := c.do(ctx, OpCreate, http.MethodPost, createUserPath, nil, newCreateRequest(in), &created); err != nil {
		return nil, err
	}
	u := mapUser(created)
	return &u, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	var updated frappeUser
	params := map[string]string{"id": id}
	if err := c.do(ctx, OpUpdate, http.MethodPut, userPath, params, newUpdateRequest(patch), &updated); err != nil {
		return nil, err
	}
	u := mapUser(updated)
	return &u, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, OpDelete, http.MethodDelete, userPath, map[string]string{"id": id}, nil, nil)
}

// Login opens a Frappe session with username and password. The session
// cookie ends up in the client's jar.
func (c *Client) Login(ctx context.Context, username, password string) error {
	return c.do(ctx, OpLogin, http.MethodPost, loginPath, nil, loginRequest{Usr: username, Pwd: password}, nil)
}

func (c *Client) do(
	ctx context.Context,
	op, method, path string,
	pathParams map[string]string,
	body any,
	result any,
) error {
	start := time.Now()
	err := c.execute(ctx, op, method, path, pathParams, body, result)
	c.observe(op, err, time.Since(start))
	if err != nil {
		c.log.Error("frappe request failed",
			slog.String("operation", op),
			slog.String("method", method),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

func (c *Client) execute(
	ctx context.Context,
	op, method, path string,
	pathParams map[string]string,
	body any,
	result any,
) error {
	req := c.http.R().SetContext(ctx)
	if pathParams != nil {
		req.SetPathParams(pathParams)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	payload, err := decodeEnvelope(op, resp.StatusCode(), resp.Body())
	if err != nil {
		return err
	}
	if result == nil || isNull(payload) {
		return nil
	}
	if err := json.Unmarshal(payload, result); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode message: %w", err)}
	}
	return nil
}

func decodeEnvelope(op string, status int, body []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	if exc := env.exception(); exc != "" {
		return nil, &BackendError{Op: op, StatusCode: status, Exc: exc, ExcType: env.ExcType}
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return nil, &BackendError{Op: op, StatusCode: status, ExcType: env.ExcType}
	}
	return env.payload(), nil
}

func (c *Client) observe(op string, err error, elapsed time.Duration) {
	if c.recorder == nil {
		return
	}
	outcome := outcomeSuccess
	switch {
	case errors.Is(err, ErrBackend):
		outcome = outcomeBackend
	case err != nil:
		outcome = outcomeTransport
	}
	c.recorder.ObserveRequest(op, outcome, elapsed)
}
