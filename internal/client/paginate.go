package client

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/url"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/ghextract/pkg/ghapi"
)

const perPageParam = "per_page"

// Stream implements ghapi.Pager.Stream.
//
// Pages are requested lazily as the sequence is consumed. A 404 ends the
// sequence without error: on a listing it means the parent has no such
// sub-items. Any other failure is yielded once and ends the sequence; no page
// is ever skipped. Pagination also stops, with a warning, when the next link
// is unusable or when the page ceiling is reached.
func (c *Client) Stream(ctx context.Context, path string, params url.Values) iter.Seq2[json.RawMessage, error] {
	return func(yield func(json.RawMessage, error) bool) {
		current := c.listURL(path, params)
		visited := map[string]struct{}{}

		c.debug("GET (paginated)", map[string]interface{}{"url": current})

		for pages := 1; ; pages++ {
			visited[current] = struct{}{}

			resp, err := c.httpClient.GetURL(ctx, current)
			if err != nil {
				if ghapi.IsNotFound(err) {
					c.debug("Listing not found, treating as empty", map[string]interface{}{"url": current})

					return
				}

				yield(nil, fmt.Errorf("listing %s: %w", path, err))

				return
			}

			var items []json.RawMessage

			err = json.Unmarshal(resp.Body, &items)
			if err != nil {
				yield(nil, fmt.Errorf("listing %s: %w: %s", path, ghapi.ErrUnexpectedPageShape, current))

				return
			}

			for _, item := range items {
				if !yield(item, nil) {
					return
				}
			}

			next, hasNext := resp.Next()

			if c.reachedPageCeiling(current, pages, hasNext) {
				c.warn(fmt.Sprintf("The GitHub API has reached the maximum page count of %d. "+
					"The returned data may be incomplete", c.maxPages), map[string]interface{}{
					"url":   current,
					"pages": pages,
				})

				return
			}

			if !hasNext {
				return
			}

			nextURL, err := resolveNext(current, next)
			if err != nil {
				c.warn("Stopping pagination on malformed next link", map[string]interface{}{
					"url":   current,
					"next":  next,
					"error": err.Error(),
				})

				return
			}

			if _, seen := visited[nextURL]; seen {
				c.warn("Stopping pagination on a next link to an already fetched page", map[string]interface{}{
					"url":  current,
					"next": nextURL,
				})

				return
			}

			current = nextURL
		}
	}
}

// Collect drains seq into a slice, stopping at the first error.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T

	for item, err := range seq {
		if err != nil {
			return out, err
		}

		out = append(out, item)
	}

	return out, nil
}

// listURL builds <base>/<path>?per_page=<n>&<params>. A per_page in params
// overrides the configured page size.
func (c *Client) listURL(path string, params url.Values) string {
	perPage := strconv.Itoa(c.pageSize)
	rest := url.Values{}

	for k, vs := range params {
		if k == perPageParam {
			if len(vs) > 0 {
				perPage = vs[len(vs)-1]
			}

			continue
		}

		rest[k] = vs
	}

	query := perPageParam + "=" + url.QueryEscape(perPage)
	if encoded := rest.Encode(); encoded != "" {
		query += "&" + encoded
	}

	return c.resourceURL(path) + "?" + query
}

func (c *Client) resourceURL(path string) string {
	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}

// reachedPageCeiling reports whether the provider's page window is exhausted:
// either the current page number is at the ceiling, or as many pages as the
// ceiling allows were fetched and more are advertised.
func (c *Client) reachedPageCeiling(current string, pages int, hasNext bool) bool {
	if c.maxPages <= 0 {
		return false
	}

	if pageNumber(current) >= c.maxPages {
		return true
	}

	return hasNext && pages >= c.maxPages
}

func pageNumber(rawURL string) int {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0
	}

	n, err := strconv.Atoi(u.Query().Get("page"))
	if err != nil {
		return 0
	}

	return n
}

// resolveNext resolves a possibly relative next link against the current
// page URL.
func resolveNext(current, next string) (string, error) {
	base, err := url.Parse(current)
	if err != nil {
		return "", fmt.Errorf("parsing current URL: %w", err)
	}

	ref, err := url.Parse(next)
	if err != nil {
		return "", fmt.Errorf("parsing next link: %w", err)
	}

	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrMalformedNextLink, resolved.Scheme)
	}

	if resolved.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrMalformedNextLink)
	}

	return resolved.String(), nil
}
