package domain

import "errors"

var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrInvalidToken      = errors.New("invalid token")
)

// Identity is the normalised user record extracted from a provider credential.
type Identity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// UserSession is the identity carried inside a session token. It is never persisted.
type UserSession struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// SessionFromIdentity maps a verified identity onto the session payload.
func SessionFromIdentity(id Identity) UserSession {
	return UserSession{
		ID:      id.Subject,
		Email:   id.Email,
		Name:    id.Name,
		Picture: id.Picture,
	}
}
