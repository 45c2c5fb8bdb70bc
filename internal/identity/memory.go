package identity

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type account struct {
	uid  string
	hash []byte
}

// MemoryProvider keeps accounts in process memory. The issued ID token equals
// the uid so that the noop verifier accepts it.
type MemoryProvider struct {
	mu       sync.RWMutex
	accounts map[string]account // lower-cased email -> account
	cost     int
}

// NewMemoryProvider returns a provider intended for local development and tests.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		accounts: make(map[string]account),
		cost:     bcrypt.MinCost,
	}
}

func (p *MemoryProvider) SignUp(_ context.Context, creds Credentials) (Identity, error) {
	creds.Normalize()
	if err := creds.Validate(); err != nil {
		return Identity{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), p.cost)
	if err != nil {
		return Identity{}, err
	}

	key := strings.ToLower(creds.Email)
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.accounts[key]; exists {
		return Identity{}, ErrEmailExists
	}
	acc := account{uid: uuid.NewString(), hash: hash}
	p.accounts[key] = acc
	return Identity{UID: acc.uid, Email: creds.Email, IDToken: acc.uid}, nil
}

func (p *MemoryProvider) SignIn(_ context.Context, creds Credentials) (Identity, error) {
	creds.Normalize()
	if err := creds.Validate(); err != nil {
		return Identity{}, err
	}

	p.mu.RLock()
	acc, ok := p.accounts[strings.ToLower(creds.Email)]
	p.mu.RUnlock()
	if !ok {
		return Identity{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(creds.Password)); err != nil {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{UID: acc.uid, Email: creds.Email, IDToken: acc.uid}, nil
}
