package identity

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRegistrationValidate(t *testing.T) {
	cases := []struct {
		name string
		reg  Registration
		ok   bool
	}{
		{"valid", Registration{Credentials: Credentials{Email: "a@b.co", Password: "secret"}, Name: "Ann"}, true},
		{"blank name", Registration{Credentials: Credentials{Email: "a@b.co", Password: "secret"}, Name: "   "}, false},
		{"missing email", Registration{Credentials: Credentials{Password: "secret"}, Name: "Ann"}, false},
		{"short password", Registration{Credentials: Credentials{Email: "a@b.co", Password: "12345"}, Name: "Ann"}, false},
		{"malformed email", Registration{Credentials: Credentials{Email: "nope", Password: "secret"}, Name: "Ann"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.reg.Validate()
			if tc.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestMemoryProvider_SignUpAndSignIn(t *testing.T) {
	p := NewMemoryProvider()
	ctx := context.Background()

	created, err := p.SignUp(ctx, Credentials{Email: " ann@example.com ", Password: "secret1"})
	if err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	if created.UID == "" || created.IDToken != created.UID {
		t.Fatalf("unexpected identity %+v", created)
	}

	if _, err := p.SignUp(ctx, Credentials{Email: "ANN@example.com", Password: "another"}); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}

	signedIn, err := p.SignIn(ctx, Credentials{Email: "ann@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("SignIn returned error: %v", err)
	}
	if signedIn.UID != created.UID {
		t.Fatalf("expected uid %s, got %s", created.UID, signedIn.UID)
	}

	if _, err := p.SignIn(ctx, Credentials{Email: "ann@example.com", Password: "wrong-pass"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := p.SignIn(ctx, Credentials{Email: "bob@example.com", Password: "secret1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestFirebaseProvider_SignIn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts:signInWithPassword" || r.URL.Query().Get("key") != "web-key" {
			t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		var body passwordRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || !body.ReturnSecureToken {
			t.Errorf("unexpected body %+v (%v)", body, err)
		}
		_, _ = io.WriteString(w, `{"localId":"uid-1","email":"ann@example.com","idToken":"tok"}`)
	}))
	defer srv.Close()

	p := NewFirebaseProvider("web-key", srv.URL, time.Second)
	id, err := p.SignIn(context.Background(), Credentials{Email: "ann@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("SignIn returned error: %v", err)
	}
	if id.UID != "uid-1" || id.IDToken != "tok" {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestFirebaseProvider_ErrorMapping(t *testing.T) {
	cases := map[string]error{
		"EMAIL_EXISTS":                       ErrEmailExists,
		"INVALID_LOGIN_CREDENTIALS":          ErrInvalidCredentials,
		"EMAIL_NOT_FOUND":                    ErrInvalidCredentials,
		"WEAK_PASSWORD : Password too short": ErrValidation,
		"QUOTA_EXCEEDED":                     ErrRemoteUnavailable,
	}

	for message, want := range cases {
		t.Run(message, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, `{"error":{"code":400,"message":"`+message+`"}}`)
			}))
			defer srv.Close()

			p := NewFirebaseProvider("web-key", srv.URL, time.Second)
			if _, err := p.SignUp(context.Background(), Credentials{Email: "ann@example.com", Password: "secret1"}); !errors.Is(err, want) {
				t.Fatalf("expected %v, got %v", want, err)
			}
		})
	}
}

func TestFirebaseProvider_ValidatesBeforeRemoteCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected")
	}))
	defer srv.Close()

	p := NewFirebaseProvider("web-key", srv.URL, time.Second)
	_, err := p.SignUp(context.Background(), Credentials{Email: "ann@example.com", Password: "123"})
	if !errors.Is(err, ErrValidation) || !strings.Contains(err.Error(), "min") {
		t.Fatalf("expected password length validation error, got %v", err)
	}
}
