package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dbconsole/dbconsole/internal/model"
)

const tablespacesPath = "/api/tablespaces"

// ListTablespaces returns the tablespaces of the target database.
func (c *Client) ListTablespaces(ctx context.Context, target model.Connection) ([]model.TablespaceInfo, error) {
	const op = "tablespaces.list"
	body, err := c.do(ctx, request{
		op:       op,
		method:   http.MethodGet,
		path:     tablespacesPath + "/all",
		query:    target.Values(),
		fallback: "error while fetching tablespaces",
	})
	if err != nil {
		return nil, err
	}
	return decodeJSON[[]model.TablespaceInfo](op, body)
}

// CreateTablespace creates ts on the target database.
func (c *Client) CreateTablespace(ctx context.Context, target model.Connection, ts model.Tablespace) (string, error) {
	body, err := c.do(ctx, request{
		op:       "tablespaces.create",
		method:   http.MethodPost,
		path:     tablespacesPath + "/create",
		query:    target.Values(),
		body:     ts,
		fallback: "error while creating the tablespace",
	})
	if err != nil {
		return "", err
	}
	return decodeMessage(body), nil
}

// TablespaceFileUsage returns the data files backing tablespace name.
func (c *Client) TablespaceFileUsage(ctx context.Context, target model.Connection, name string) ([]model.TablespaceFileUsage, error) {
	const op = "tablespaces.file_usage"
	body, err := c.do(ctx, request{
		op:       op,
		method:   http.MethodGet,
		path:     tablespacesPath + "/" + url.PathEscape(name) + "/file-usage",
		query:    target.Values(),
		fallback: "error while fetching file usage of " + name,
	})
	if err != nil {
		return nil, err
	}
	return decodeJSON[[]model.TablespaceFileUsage](op, body)
}

// DeleteTablespace drops tablespace name, optionally with its contents and
// data files.
func (c *Client) DeleteTablespace(ctx context.Context, target model.Connection, name string, includingContents bool) (string, error) {
	body, err := c.do(ctx, request{
		op:     "tablespaces.delete",
		method: http.MethodDelete,
		path:   tablespacesPath + "/" + url.PathEscape(name),
		query: withTarget(target.Values(), url.Values{
			"includingContentsAndDataFiles": {strconv.FormatBool(includingContents)},
		}),
		fallback: "error while deleting tablespace " + name,
	})
	if err != nil {
		return "", err
	}
	return decodeMessage(body), nil
}
