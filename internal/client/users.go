package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dbconsole/dbconsole/internal/model"
)

const usersPath = "/api/users"

// CreateUser creates a database account. The backend takes the target
// connection as the body and the user as query parameters.
func (c *Client) CreateUser(ctx context.Context, target model.Connection, u model.User) (string, error) {
	body, err := c.do(ctx, request{
		op:       "users.create",
		method:   http.MethodPost,
		path:     usersPath + "/create",
		query:    u.Values(),
		body:     target,
		fallback: "error while creating the user",
	})
	if err != nil {
		return "", err
	}
	return decodeMessage(body), nil
}

// ListUsers returns the accounts of the target database.
func (c *Client) ListUsers(ctx context.Context, target model.Connection) ([]model.User, error) {
	const op = "users.list"
	body, err := c.do(ctx, request{
		op:       op,
		method:   http.MethodGet,
		path:     usersPath + "/all",
		query:    target.Values(),
		fallback: "error while fetching users",
	})
	if err != nil {
		return nil, err
	}
	return decodeJSON[[]model.User](op, body)
}

// DeleteUser drops the account named username.
func (c *Client) DeleteUser(ctx context.Context, target model.Connection, username string) (string, error) {
	body, err := c.do(ctx, request{
		op:       "users.delete",
		method:   http.MethodDelete,
		path:     usersPath + "/delete",
		query:    withTarget(target.Values(), url.Values{"targetUsername": {username}}),
		fallback: "error while deleting user " + username,
	})
	if err != nil {
		return "", err
	}
	return decodeMessage(body), nil
}
