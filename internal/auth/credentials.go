// Package auth holds the minimal credential layer needed to resolve actors.
package auth

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials covers unknown users and wrong passwords alike, so
// callers can't probe which usernames exist.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrUserExists is returned on duplicate registration.
var ErrUserExists = errors.New("user already exists")

// CredentialStore keeps bcrypt password hashes by username.
type CredentialStore struct {
	mu     sync.RWMutex
	hashes map[string][]byte
}

// NewCredentialStore creates an empty store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{hashes: make(map[string][]byte)}
}

// Register stores a new user's password hash.
func (c *CredentialStore) Register(username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("username and password are required: %w", ErrInvalidCredentials)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.hashes[username]; exists {
		return fmt.Errorf("%q: %w", username, ErrUserExists)
	}
	c.hashes[username] = hash
	return nil
}

// Authenticate checks a username/password pair.
func (c *CredentialStore) Authenticate(username, password string) error {
	c.mu.RLock()
	hash, ok := c.hashes[username]
	c.mu.RUnlock()
	if !ok {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
