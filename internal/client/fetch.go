package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fivetwenty-io/ghextract/pkg/ghapi"
)

// Static errors for err113 compliance.
var (
	ErrMalformedNextLink = errors.New("malformed next link")
	ErrInvalidJSON       = errors.New("response body is not valid JSON")
)

// FetchOne implements ghapi.Pager.FetchOne. Unlike listings, a 404 is an
// error here; use LookupOne when absence is expected.
func (c *Client) FetchOne(ctx context.Context, path string) (json.RawMessage, error) {
	target := c.resourceURL(path)

	c.debug("GET", map[string]interface{}{"url": target})

	resp, err := c.httpClient.GetURL(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", path, err)
	}

	if !json.Valid(resp.Body) {
		return nil, fmt.Errorf("fetching %s: %w", path, ErrInvalidJSON)
	}

	return json.RawMessage(resp.Body), nil
}

// LookupOne implements ghapi.Pager.LookupOne.
func (c *Client) LookupOne(ctx context.Context, path string) (json.RawMessage, bool, error) {
	body, err := c.FetchOne(ctx, path)

	switch {
	case err == nil:
		return body, true, nil
	case ghapi.IsNotFound(err):
		return nil, false, nil
	default:
		return nil, false, err
	}
}
