package captcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestVerifier(secret, verifyURL string) *RecaptchaVerifierImpl {
	return &RecaptchaVerifierImpl{
		secret:     secret,
		verifyURL:  verifyURL,
		httpClient: &http.Client{Timeout: 2 * time.Second},
	}
}

func TestRecaptchaVerifierImpl_Verify(t *testing.T) {
	tests := []struct {
		name        string
		description string
		body        string
		expectedOK  bool
	}{
		{
			name:        "Accepted",
			description: "A successful siteverify response passes",
			body:        `{"success": true}`,
			expectedOK:  true,
		},
		{
			name:        "Rejected",
			description: "A failed siteverify response is a clean rejection, not an error",
			body:        `{"success": false, "error-codes": ["invalid-input-response"]}`,
			expectedOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotResponse, gotRemoteIP string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseForm(); err != nil {
					t.Errorf("could not parse form: %v", err)
				}
				if r.PostFormValue("secret") != "test-secret" {
					t.Errorf("expected the configured secret, got %q", r.PostFormValue("secret"))
				}
				gotResponse = r.PostFormValue("response")
				gotRemoteIP = r.PostFormValue("remoteip")
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			v := newTestVerifier("test-secret", server.URL)
			ok, err := v.Verify(context.Background(), "widget-response", "203.0.113.9")
			if err != nil {
				t.Fatalf("%s: unexpected error: %v", tt.description, err)
			}
			if ok != tt.expectedOK {
				t.Errorf("%s: expected %v, got %v", tt.description, tt.expectedOK, ok)
			}
			if gotResponse != "widget-response" {
				t.Errorf("expected the widget response forwarded, got %q", gotResponse)
			}
			if gotRemoteIP != "203.0.113.9" {
				t.Errorf("expected the visitor IP forwarded, got %q", gotRemoteIP)
			}
		})
	}
}

func TestRecaptchaVerifierImpl_Verify_ProviderDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	v := newTestVerifier("test-secret", server.URL)
	if _, err := v.Verify(context.Background(), "widget-response", ""); err == nil {
		t.Error("expected an error when the provider is unreachable")
	}
}

func TestRecaptchaVerifierImpl_Verify_NoSecret(t *testing.T) {
	v := NewRecaptchaVerifier("")
	ok, err := v.Verify(context.Background(), "anything", "")
	if err != nil {
		t.Fatalf("mock mode should not error: %v", err)
	}
	if !ok {
		t.Error("mock mode accepts every response")
	}
}
