package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultToolkitURL is the Identity Toolkit v1 accounts endpoint.
const DefaultToolkitURL = "https://identitytoolkit.googleapis.com/v1"

// FirebaseProvider signs users up and in through the Identity Toolkit REST API.
type FirebaseProvider struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewFirebaseProvider creates a provider. baseURL may be empty to use the public endpoint.
func NewFirebaseProvider(apiKey, baseURL string, timeout time.Duration) *FirebaseProvider {
	if baseURL == "" {
		baseURL = DefaultToolkitURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FirebaseProvider{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(apiKey),
	}
}

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type accountResponse struct {
	LocalID string `json:"localId"`
	Email   string `json:"email"`
	IDToken string `json:"idToken"`
}

type toolkitError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignUp creates an email/password account.
func (p *FirebaseProvider) SignUp(ctx context.Context, creds Credentials) (Identity, error) {
	return p.call(ctx, "accounts:signUp", creds)
}

// SignIn exchanges email/password for an ID token.
func (p *FirebaseProvider) SignIn(ctx context.Context, creds Credentials) (Identity, error) {
	return p.call(ctx, "accounts:signInWithPassword", creds)
}

func (p *FirebaseProvider) call(ctx context.Context, method string, creds Credentials) (Identity, error) {
	if p.apiKey == "" {
		return Identity{}, errProviderUnsupported
	}
	creds.Normalize()
	if err := creds.Validate(); err != nil {
		return Identity{}, err
	}

	payload, err := json.Marshal(passwordRequest{Email: creds.Email, Password: creds.Password, ReturnSecureToken: true})
	if err != nil {
		return Identity{}, err
	}

	url := p.baseURL + "/" + method + "?key=" + p.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Identity{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body toolkitError
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return Identity{}, fmt.Errorf("%w: status %d", ErrRemoteUnavailable, resp.StatusCode)
		}
		return Identity{}, classify(resp.StatusCode, body.Error.Message)
	}

	var body accountResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Identity{}, fmt.Errorf("%w: decode: %w", ErrRemoteUnavailable, err)
	}
	if body.LocalID == "" {
		return Identity{}, fmt.Errorf("%w: response missing localId", ErrRemoteUnavailable)
	}
	return Identity{UID: body.LocalID, Email: body.Email, IDToken: body.IDToken}, nil
}

// classify maps Identity Toolkit error messages. Messages may carry a suffix
// such as "WEAK_PASSWORD : Password should be at least 6 characters".
func classify(status int, message string) error {
	code := strings.TrimSpace(strings.SplitN(message, ":", 2)[0])
	switch code {
	case "EMAIL_EXISTS":
		return ErrEmailExists
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED":
		return ErrInvalidCredentials
	case "WEAK_PASSWORD", "INVALID_EMAIL", "MISSING_PASSWORD", "MISSING_EMAIL":
		return fmt.Errorf("%w: %s", ErrValidation, strings.ToLower(code))
	}
	return fmt.Errorf("%w: status %d %s", ErrRemoteUnavailable, status, code)
}
