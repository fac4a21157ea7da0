package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dbconsole/dbconsole/internal/model"
)

const connectionsPath = "/api/connections"

// CreateConnection saves a new connection and returns the stored record.
func (c *Client) CreateConnection(ctx context.Context, conn model.Connection) (*model.Connection, error) {
	const op = "connections.create"
	body, err := c.do(ctx, request{
		op:       op,
		method:   http.MethodPost,
		path:     connectionsPath + "/save",
		body:     conn,
		fallback: "error while creating the connection",
	})
	if err != nil {
		return nil, err
	}
	created, err := decodeJSON[model.Connection](op, body)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// ListConnections returns every connection known to the backend.
func (c *Client) ListConnections(ctx context.Context) ([]model.Connection, error) {
	const op = "connections.list"
	body, err := c.do(ctx, request{
		op:       op,
		method:   http.MethodGet,
		path:     connectionsPath + "/all",
		fallback: "error while fetching connections",
	})
	if err != nil {
		return nil, err
	}
	return decodeJSON[[]model.Connection](op, body)
}

// GetConnection fetches one connection by name.
func (c *Client) GetConnection(ctx context.Context, name string) (*model.Connection, error) {
	const op = "connections.get"
	body, err := c.do(ctx, request{
		op:       op,
		method:   http.MethodGet,
		path:     connectionsPath + "/" + url.PathEscape(name),
		fallback: "error while fetching connection " + name,
	})
	if err != nil {
		return nil, err
	}
	conn, err := decodeJSON[model.Connection](op, body)
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

// ListClientConnections returns the connections created by clientID.
func (c *Client) ListClientConnections(ctx context.Context, clientID string) ([]model.Connection, error) {
	const op = "connections.list_client"
	body, err := c.do(ctx, request{
		op:       op,
		method:   http.MethodGet,
		path:     connectionsPath + "/user/" + url.PathEscape(clientID),
		fallback: "error while fetching connections for client " + clientID,
	})
	if err != nil {
		return nil, err
	}
	return decodeJSON[[]model.Connection](op, body)
}

// DeleteConnection removes a connection by id and returns the backend's
// acknowledgement.
func (c *Client) DeleteConnection(ctx context.Context, id string) (string, error) {
	body, err := c.do(ctx, request{
		op:       "connections.delete",
		method:   http.MethodDelete,
		path:     connectionsPath + "/" + url.PathEscape(id),
		fallback: "error while deleting connection " + id,
	})
	if err != nil {
		return "", err
	}
	return decodeMessage(body), nil
}

// TestConnection asks the backend to open the connection. The result is
// model.StatusSuccess when the database answered.
func (c *Client) TestConnection(ctx context.Context, conn model.Connection) (string, error) {
	body, err := c.do(ctx, request{
		op:       "connections.test",
		method:   http.MethodPost,
		path:     connectionsPath + "/test",
		body:     conn,
		fallback: "error while testing the connection",
	})
	if err != nil {
		return "", err
	}
	return decodeMessage(body), nil
}
