package adapi

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/GoADConsole/GoADConsole/internal/directory"
)

const directoryPath = "/api/activedirectory"

// UserDetails is the full record of one user.
type UserDetails struct {
	directory.Node

	SamAccountName    string     `json:"samAccountName,omitempty"`
	UserPrincipalName string     `json:"userPrincipalName,omitempty"`
	DisplayName       string     `json:"displayName,omitempty"`
	GivenName         string     `json:"givenName,omitempty"`
	Surname           string     `json:"surname,omitempty"`
	Department        string     `json:"department,omitempty"`
	Title             string     `json:"title,omitempty"`
	Phone             string     `json:"telephoneNumber,omitempty"`
	MemberOf          []string   `json:"memberOf,omitempty"`
	WhenCreated       *time.Time `json:"whenCreated,omitempty"`
	LastLogon         *time.Time `json:"lastLogon,omitempty"`
	PasswordLastSet   *time.Time `json:"passwordLastSet,omitempty"`
}

// Root returns the top level of the directory.
func (c *Client) Root(ctx context.Context) ([]directory.Node, error) {
	var out []directory.Node

	if err := c.get(ctx, directoryPath+"/root", nil, &out); err != nil {
		return nil, err
	}

	return out, nil
}

// Children returns the immediate children of dn.
func (c *Client) Children(ctx context.Context, dn string) ([]directory.Node, error) {
	var out []directory.Node

	q := url.Values{"distinguishedName": {dn}}
	if err := c.get(ctx, directoryPath+"/children", q, &out); err != nil {
		return nil, err
	}

	return out, nil
}

// Search returns at most maxResults entries matching query anywhere in the directory.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]directory.Node, error) {
	var out []directory.Node

	q := url.Values{"query": {query}}
	if maxResults > 0 {
		q.Set("maxResults", strconv.Itoa(maxResults))
	}

	if err := c.get(ctx, directoryPath+"/search", q, &out); err != nil {
		return nil, err
	}

	return out, nil
}

// User returns the details of one user.
func (c *Client) User(ctx context.Context, dn string) (*UserDetails, error) {
	out := &UserDetails{}

	if err := c.get(ctx, directoryPath+"/user/"+url.PathEscape(dn), nil, out); err != nil {
		return nil, err
	}

	return out, nil
}

// HealthPath is the health endpoint of the backend.
const HealthPath = directoryPath + "/health"

// Health pings the backend. Any 2xx answer means healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx, HealthPath)
}

// Ping issues a GET on path and discards the body. Any 2xx answer succeeds.
func (c *Client) Ping(ctx context.Context, path string) error {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return c.get(ctx, path, nil, nil)
}
