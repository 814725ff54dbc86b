// API service for making raw HTTP requests to the gallery REST API
package services

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

	"github.com/desertthunder/shutter/internal/shared"
	"github.com/tidwall/gjson"
)

// Credentials supplies the bearer token and CSRF token attached to outgoing requests.
//
// Either may be empty, in which case the matching header is omitted.
type Credentials interface {
	Token() string
	CSRF() string
}

type noCredentials struct{}

func (noCredentials) Token() string { return "" }
func (noCredentials) CSRF() string  { return "" }

// APIService provides methods for making raw HTTP requests to the gallery API.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	creds      Credentials
}

// NewAPIService creates a new API service instance for the gallery API.
func NewAPIService(baseURL string, client *http.Client, creds Credentials) *APIService {
	if baseURL == "" {
		baseURL = shared.DefaultAPIBase
	}
	if client == nil {
		client = http.DefaultClient
	}
	if creds == nil {
		creds = noCredentials{}
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		creds:      creds,
	}
}

// BaseURL returns the resolved API base URL without a trailing slash.
func (a *APIService) BaseURL() string { return a.baseURL }

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Decode unmarshals the response body into v.
func (r *APIResponse) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// APIError is a non-2xx response from the gallery API.
type APIError struct {
	StatusCode int
	Body       []byte
	// Detail and Reason hold the server's "detail" and "error" fields when present.
	Detail string
	Reason string
}

// NewAPIError builds an [APIError], extracting "detail" and "error" from a JSON body.
func NewAPIError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status, Body: body}
	if gjson.ValidBytes(body) {
		if d := gjson.GetBytes(body, "detail"); d.Type == gjson.String {
			e.Detail = d.String()
		}
		if r := gjson.GetBytes(body, "error"); r.Type == gjson.String {
			e.Reason = r.String()
		}
	}
	return e
}

// Message returns the most specific server message: detail, then error, then the status text.
func (e *APIError) Message() string {
	switch {
	case e.Detail != "":
		return e.Detail
	case e.Reason != "":
		return e.Reason
	default:
		return http.StatusText(e.StatusCode)
	}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%v: %d %s", shared.ErrAPIRequest, e.StatusCode, e.Message())
}

func (e *APIError) Unwrap() error { return shared.ErrAPIRequest }

// ServerMessage returns the server-provided message of err, if err carries one.
func ServerMessage(err error) (string, bool) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return "", false
	}
	if apiErr.Detail != "" {
		return apiErr.Detail, true
	}
	if apiErr.Reason != "" {
		return apiErr.Reason, true
	}
	return "", false
}

// Do sends a request with the session headers applied and returns the raw response.
//
// Responses outside 2xx are returned alongside an [*APIError].
func (a *APIService) Do(ctx context.Context, method, path string, body io.Reader, contentType string) (*APIResponse, error) {
	fullURL := a.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if sized, ok := body.(interface{ Size() int64 }); ok {
		req.ContentLength = sized.Size()
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	a.applyHeaders(req)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: request failed: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}

	var jsonData any
	if err := json.Unmarshal(data, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiResp, NewAPIError(resp.StatusCode, data)
	}
	return apiResp, nil
}

func (a *APIService) applyHeaders(req *http.Request) {
	if token := a.creds.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	switch req.Method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		if csrf := a.creds.CSRF(); csrf != "" {
			req.Header.Set("X-CSRF-Token", csrf)
		}
	}
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.Do(ctx, http.MethodGet, path, nil, "")
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.Do(ctx, http.MethodPost, path, bytes.NewReader(data), "application/json")
}

// Put performs a PUT request with the given JSON data.
func (a *APIService) Put(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.Do(ctx, http.MethodPut, path, bytes.NewReader(data), "application/json")
}

// Delete performs a DELETE request.
func (a *APIService) Delete(ctx context.Context, path string) (*APIResponse, error) {
	return a.Do(ctx, http.MethodDelete, path, nil, "")
}

// PostForm performs a POST with a url-encoded form body.
func (a *APIService) PostForm(ctx context.Context, path string, form url.Values) (*APIResponse, error) {
	body := strings.NewReader(form.Encode())
	return a.Do(ctx, http.MethodPost, path, body, "application/x-www-form-urlencoded")
}

// getJSON issues a GET and decodes the body into out.
func (a *APIService) getJSON(ctx context.Context, path string, out any) error {
	resp, err := a.Get(ctx, path)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// sendJSON marshals payload, sends it with method and decodes the body into out when out is non-nil.
func (a *APIService) sendJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	resp, err := a.Do(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	return resp.Decode(out)
}
