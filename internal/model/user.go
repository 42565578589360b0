package model

import "time"

// User is an operator account loaded from the users file.
type User struct {
	ID           string    `json:"id" yaml:"id"`
	Username     string    `json:"username" yaml:"username"`
	PasswordHash string    `json:"password_hash" yaml:"password_hash"`
	Role         string    `json:"role" yaml:"role"`
	Kind         string    `json:"kind,omitempty" yaml:"kind,omitempty"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
}

type AuthClaims struct {
	UserID   string `json:"sub"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Kind     string `json:"knd"`
	TokenID  string `json:"jti"`
}

// Actor converts verified claims into the request principal. Tokens without
// an explicit kind belong to admin users.
func (c AuthClaims) Actor() *Actor {
	kind := ActorKind(c.Kind)
	if !kind.Valid() {
		kind = ActorKindAdmin
	}
	return &Actor{ID: c.UserID, Username: c.Username, Role: c.Role, Kind: kind}
}

type AuthUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type TokenResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int64    `json:"expires_in"`
	User        AuthUser `json:"user"`
}
