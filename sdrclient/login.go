package sdrclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
)

const loginPath = "/v1/auth/login"

var (
	ErrInvalidEmail       = errors.New("Email address is not a valid email")
	ErrInvalidCredentials = errors.New("Invalid username or password")
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges the user's email and password for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(loginRequest{Email: email, Password: password}); err != nil {
		return "", errors.Wrap(err, "error encoding the request")
	}
	header := http.Header{}
	header.Set("Content-Type", "application/json")

	resp, err := c.Post(ctx, loginPath, buf, header)
	if err != nil {
		return "", err
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest:
		return "", ErrInvalidEmail
	case http.StatusUnauthorized:
		return "", ErrInvalidCredentials
	default:
		return "", &ErrorResponse{Method: http.MethodPost, URL: loginPath, Response: resp}
	}

	payload := loginResponse{}
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return "", errors.Wrap(err, "error decoding the response payload")
	}
	if payload.Token == "" {
		return "", errors.New("the service did not return a token")
	}
	return payload.Token, nil
}
