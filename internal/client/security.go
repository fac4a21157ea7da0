package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dbconsole/dbconsole/internal/model"
)

// ConfigureTDE enables transparent data encryption on a tablespace.
func (c *Client) ConfigureTDE(ctx context.Context, target model.Connection, tablespaceName, algorithm string) (string, error) {
	body, err := c.do(ctx, request{
		op:     "security.tde_configure",
		method: http.MethodPost,
		path:   "/api/security/tde/configure",
		query: url.Values{
			"tablespaceName":      {tablespaceName},
			"encryptionAlgorithm": {algorithm},
		},
		body:     target,
		fallback: "error while configuring encryption",
	})
	if err != nil {
		return "", err
	}
	return decodeMessage(body), nil
}
