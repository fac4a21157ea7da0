package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dbconsole/dbconsole/internal/model"
)

const rolesPath = "/api/roles"

// PrivilegeKind distinguishes system privileges from object privileges.
type PrivilegeKind string

const (
	SystemPrivilege PrivilegeKind = "system"
	ObjectPrivilege PrivilegeKind = "object"
)

// CreateRole creates roleName on the target database.
func (c *Client) CreateRole(ctx context.Context, target model.Connection, roleName string) (string, error) {
	return c.roleAction(ctx, "roles.create", http.MethodPost, "/create", target,
		url.Values{"roleName": {roleName}}, "error while creating the role")
}

// DeleteRole drops roleName.
func (c *Client) DeleteRole(ctx context.Context, target model.Connection, roleName string) (string, error) {
	return c.roleAction(ctx, "roles.delete", http.MethodDelete, "/delete", target,
		url.Values{"roleName": {roleName}}, "error while deleting the role")
}

// GrantSystemPrivilege grants a system privilege such as CREATE SESSION.
func (c *Client) GrantSystemPrivilege(ctx context.Context, target model.Connection, roleName, privilege string) (string, error) {
	return c.roleAction(ctx, "roles.grant_system", http.MethodPost, "/grant/system", target,
		url.Values{"roleName": {roleName}, "privilege": {privilege}}, "error while granting the system privilege")
}

// RevokeSystemPrivilege revokes a system privilege.
func (c *Client) RevokeSystemPrivilege(ctx context.Context, target model.Connection, roleName, privilege string) (string, error) {
	return c.roleAction(ctx, "roles.revoke_system", http.MethodPost, "/revoke/system", target,
		url.Values{"roleName": {roleName}, "privilege": {privilege}}, "error while revoking the system privilege")
}

// GrantObjectPrivilege grants privilege on tableName.
func (c *Client) GrantObjectPrivilege(ctx context.Context, target model.Connection, roleName, privilege, tableName string) (string, error) {
	return c.roleAction(ctx, "roles.grant_object", http.MethodPost, "/grant/object", target,
		url.Values{"roleName": {roleName}, "privilege": {privilege}, "tableName": {tableName}},
		"error while granting the object privilege")
}

// RevokeObjectPrivilege revokes privilege on tableName.
func (c *Client) RevokeObjectPrivilege(ctx context.Context, target model.Connection, roleName, privilege, tableName string) (string, error) {
	return c.roleAction(ctx, "roles.revoke_object", http.MethodPost, "/revoke/object", target,
		url.Values{"roleName": {roleName}, "privilege": {privilege}, "tableName": {tableName}},
		"error while revoking the object privilege")
}

// Grant dispatches to the system or object grant.
func (c *Client) Grant(ctx context.Context, target model.Connection, kind PrivilegeKind, roleName, privilege, tableName string) (string, error) {
	if kind == ObjectPrivilege {
		return c.GrantObjectPrivilege(ctx, target, roleName, privilege, tableName)
	}
	return c.GrantSystemPrivilege(ctx, target, roleName, privilege)
}

// Revoke dispatches to the system or object revoke.
func (c *Client) Revoke(ctx context.Context, target model.Connection, kind PrivilegeKind, roleName, privilege, tableName string) (string, error) {
	if kind == ObjectPrivilege {
		return c.RevokeObjectPrivilege(ctx, target, roleName, privilege, tableName)
	}
	return c.RevokeSystemPrivilege(ctx, target, roleName, privilege)
}

// ListRoles returns the roles of the target database.
func (c *Client) ListRoles(ctx context.Context, target model.Connection) ([]model.Role, error) {
	const op = "roles.list"
	body, err := c.do(ctx, request{
		op:       op,
		method:   http.MethodGet,
		path:     rolesPath + "/all",
		query:    target.Values(),
		fallback: "error while fetching roles",
	})
	if err != nil {
		return nil, err
	}
	return decodeJSON[[]model.Role](op, body)
}

func (c *Client) roleAction(ctx context.Context, op, method, path string, target model.Connection, params url.Values, fallback string) (string, error) {
	body, err := c.do(ctx, request{
		op:       op,
		method:   method,
		path:     rolesPath + path,
		query:    withTarget(target.Values(), params),
		fallback: fallback,
	})
	if err != nil {
		return "", err
	}
	return decodeMessage(body), nil
}
