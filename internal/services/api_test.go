package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/shutter/internal/shared"
	tu "github.com/desertthunder/shutter/internal/testing"
)

type staticCreds struct{ token, csrf string }

func (c staticCreds) Token() string { return c.token }
func (c staticCreds) CSRF() string  { return c.csrf }

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom BaseURL and Client", func(t *testing.T) {
			customClient := &http.Client{}
			srv := NewAPIService("http://example.com/api/", customClient, nil)

			if srv.BaseURL() != "http://example.com/api" {
				t.Errorf("expected trailing slash trimmed, got %s", srv.BaseURL())
			}
			if srv.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("With Empty BaseURL", func(t *testing.T) {
			srv := NewAPIService("", nil, nil)

			if srv.BaseURL() != shared.DefaultAPIBase {
				t.Errorf("expected default baseURL %s, got %s", shared.DefaultAPIBase, srv.BaseURL())
			}
			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})
	})

	t.Run("Headers", func(t *testing.T) {
		tests := []struct {
			name     string
			method   string
			creds    Credentials
			wantAuth string
			wantCSRF string
		}{
			{"GET with token", http.MethodGet, staticCreds{"tok", "c1"}, "Bearer tok", ""},
			{"POST with token and csrf", http.MethodPost, staticCreds{"tok", "c1"}, "Bearer tok", "c1"},
			{"PUT with csrf only", http.MethodPut, staticCreds{"", "c1"}, "", "c1"},
			{"DELETE with both", http.MethodDelete, staticCreds{"tok", "c1"}, "Bearer tok", "c1"},
			{"POST anonymous", http.MethodPost, nil, "", ""},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					if got := r.Header.Get("Authorization"); got != tt.wantAuth {
						t.Errorf("expected Authorization %q, got %q", tt.wantAuth, got)
					}
					if got := r.Header.Get("X-CSRF-Token"); got != tt.wantCSRF {
						t.Errorf("expected X-CSRF-Token %q, got %q", tt.wantCSRF, got)
					}
					w.WriteHeader(http.StatusOK)
				}))
				defer server.Close()

				srv := NewAPIService(server.URL, nil, tt.creds)
				if _, err := srv.Do(context.Background(), tt.method, "/test", nil, ""); err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
			})
		}
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("Successful Request With JSON Response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("expected GET method, got %s", r.Method)
				}
				if r.URL.Path != "/test" {
					t.Errorf("expected path '/test', got %s", r.URL.Path)
				}

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				json.NewEncoder(w).Encode(map[string]string{"status": "success"})
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil, nil)
			resp, err := srv.Get(context.Background(), "/test")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.StatusCode != http.StatusOK {
				t.Errorf("expected status 200, got %d", resp.StatusCode)
			}
			if !resp.IsJSON {
				t.Error("expected response to be JSON")
			}
		})

		t.Run("Error Response With Detail", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"detail":"no access","error":"ignored"}`))
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil, nil)
			resp, err := srv.Get(context.Background(), "/test")

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %v", err)
			}
			if apiErr.StatusCode != http.StatusForbidden {
				t.Errorf("expected status 403, got %d", apiErr.StatusCode)
			}
			if apiErr.Message() != "no access" {
				t.Errorf("expected detail message, got %q", apiErr.Message())
			}
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Error("expected error to wrap ErrAPIRequest")
			}
			if resp == nil || resp.StatusCode != http.StatusForbidden {
				t.Error("expected raw response alongside the error")
			}
		})

		t.Run("Failed HTTP Request", func(t *testing.T) {
			client := &http.Client{
				Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed")),
			}

			srv := NewAPIService("http://example.com", client, nil)
			_, err := srv.Get(context.Background(), "/test")

			if err == nil {
				t.Fatal("expected error for failed request")
			}
			if !strings.Contains(err.Error(), "request failed") {
				t.Errorf("expected 'request failed' error, got %v", err)
			}
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Error("expected error to wrap ErrAPIRequest")
			}
		})

		t.Run("Failed Response Body Read", func(t *testing.T) {
			client := &http.Client{
				Transport: tu.NewMockRoundTripper(&http.Response{
					StatusCode: http.StatusOK,
					Body:       &tu.FCloser{},
					Header:     http.Header{},
				}, nil),
			}

			srv := NewAPIService("http://example.com", client, nil)
			_, err := srv.Get(context.Background(), "/test")

			if err == nil || !strings.Contains(err.Error(), "failed to read response") {
				t.Errorf("expected 'failed to read response' error, got %v", err)
			}
		})

		t.Run("Failed Request Creation", func(t *testing.T) {
			srv := NewAPIService("http://example.com", nil, nil)
			_, err := srv.Get(context.Background(), "/test\x00invalid")

			if err == nil || !strings.Contains(err.Error(), "failed to create request") {
				t.Errorf("expected 'failed to create request' error, got %v", err)
			}
		})

		t.Run("With Canceled Context", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			srv := NewAPIService(server.URL, nil, nil)
			_, err := srv.Get(ctx, "/test")

			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		})
	})

	t.Run("Post", func(t *testing.T) {
		t.Run("Sends JSON Body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST method, got %s", r.Method)
				}
				if r.Header.Get("Content-Type") != "application/json" {
					t.Errorf("expected Content-Type 'application/json', got %s", r.Header.Get("Content-Type"))
				}

				body, _ := io.ReadAll(r.Body)
				var data map[string]string
				if err := json.Unmarshal(body, &data); err != nil {
					t.Errorf("failed to unmarshal request body: %v", err)
				}
				if data["test"] != "data" {
					t.Errorf("expected request data 'test:data', got %v", data)
				}

				w.WriteHeader(http.StatusCreated)
				w.Write([]byte(`{"id": 123}`))
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil, nil)
			requestData, _ := json.Marshal(map[string]string{"test": "data"})
			resp, err := srv.Post(context.Background(), "/test", requestData)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.StatusCode != http.StatusCreated {
				t.Errorf("expected status 201, got %d", resp.StatusCode)
			}
		})

		t.Run("Non-JSON Error Body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("boom"))
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil, nil)
			_, err := srv.Post(context.Background(), "/test", []byte("{}"))

			if _, ok := ServerMessage(err); ok {
				t.Error("expected no server message for a plain text body")
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.Message() != http.StatusText(http.StatusInternalServerError) {
				t.Errorf("expected status text fallback, got %v", err)
			}
		})
	})

	t.Run("PostForm", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				t.Errorf("failed to parse form: %v", err)
				return
			}
			if r.PostForm.Get("username") != "ada" {
				t.Errorf("expected username 'ada', got %q", r.PostForm.Get("username"))
			}
			w.Write([]byte(`{"ok": true}`))
		}))
		defer server.Close()

		srv := NewAPIService(server.URL, nil, nil)
		if _, err := srv.PostForm(context.Background(), "/auth/register", map[string][]string{"username": {"ada"}}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantMsg bool
	}{
		{"detail wins", `{"detail":"d","error":"e"}`, "d", true},
		{"error field", `{"error":"hotlink forbidden"}`, "hotlink forbidden", true},
		{"non-string detail", `{"detail":[{"loc":"x"}]}`, "Bad Request", false},
		{"plain text", `nope`, "Bad Request", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAPIError(http.StatusBadRequest, []byte(tt.body))
			if err.Message() != tt.want {
				t.Errorf("expected message %q, got %q", tt.want, err.Message())
			}
			if _, ok := ServerMessage(err); ok != tt.wantMsg {
				t.Errorf("expected ServerMessage ok=%v", tt.wantMsg)
			}
		})
	}
}

func TestSendMultipart(t *testing.T) {
	t.Run("Uploads File With Fields And Progress", func(t *testing.T) {
		dir := t.TempDir()
		path := tu.WriteImage(t, dir, "a.png")

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-CSRF-Token") != "c1" {
				t.Errorf("expected csrf header on upload")
			}
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("failed to parse multipart: %v", err)
				return
			}
			if r.FormValue("title") != "Sunset" {
				t.Errorf("expected title field 'Sunset', got %q", r.FormValue("title"))
			}
			files := r.MultipartForm.File["files"]
			if len(files) != 1 {
				t.Errorf("expected 1 file, got %d", len(files))
				return
			}
			if files[0].Filename != "a.png" {
				t.Errorf("expected filename a.png, got %s", files[0].Filename)
			}
			if ct := files[0].Header.Get("Content-Type"); ct != "image/png" {
				t.Errorf("expected image/png, got %s", ct)
			}
			w.Write([]byte(`{"ok":true,"items":[{"id":7}]}`))
		}))
		defer server.Close()

		var lastSent, lastTotal int64
		srv := NewAPIService(server.URL, nil, staticCreds{"tok", "c1"})
		form := MultipartForm{
			Fields: map[string]string{"title": "Sunset"},
			Files:  []FilePart{{Field: "files", Path: path}},
		}
		_, err := srv.PostMultipart(context.Background(), "/photos", form, func(sent, total int64) {
			lastSent, lastTotal = sent, total
		})

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if lastTotal == 0 || lastSent != lastTotal {
			t.Errorf("expected progress to reach total, got %d/%d", lastSent, lastTotal)
		}
	})

	t.Run("Rejects Unsupported File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notes.txt")
		if err := os.WriteFile(path, []byte("plain text"), 0644); err != nil {
			t.Fatal(err)
		}

		srv := NewAPIService("http://example.com", nil, nil)
		form := MultipartForm{Files: []FilePart{{Field: "files", Path: path}}}
		_, err := srv.PostMultipart(context.Background(), "/photos", form, nil)

		if !errors.Is(err, shared.ErrUnsupportedFile) {
			t.Errorf("expected ErrUnsupportedFile, got %v", err)
		}
	})
}
