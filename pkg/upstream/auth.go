package upstream

import (
	"context"
	"net/http"
)

// User is the upstream account profile.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// LoginResult carries the bearer token and the authenticated profile.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token. Credentials are passed
// through; the gateway never stores them.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var result LoginResult
	err := c.do(ctx, http.MethodPost, "/api/auth/login", "", nil, loginRequest{Email: email, Password: password}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Profile fetches the account behind the token.
func (c *Client) Profile(ctx context.Context, token string) (*User, error) {
	var user User
	if err := c.get(ctx, "/api/auth/profile", token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
