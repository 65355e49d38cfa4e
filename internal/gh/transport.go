package gh

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// httpClient never writes the receiver: the client is shared across
// fan-out goroutines and must stay read-only after New.
func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: c.Timeout}
}

func (c *Client) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}

// restGet performs one authenticated GET against the REST API and
// returns the raw body. A single attempt; failures propagate.
func (c *Client) restGet(ctx context.Context, path string) ([]byte, error) {
	url := strings.TrimRight(c.APIURL, "/") + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.send(req)
}

// graphql posts {query, variables} to the GraphQL endpoint. It fails
// with *GraphQLError when the payload carries a non-empty errors array,
// even on HTTP 200.
func (c *Client) graphql(ctx context.Context, query string, variables map[string]any) (gjson.Result, error) {
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return gjson.Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.GraphQLURL, bytes.NewReader(body))
	if err != nil {
		return gjson.Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	data, err := c.send(req)
	if err != nil {
		return gjson.Result{}, err
	}
	if errs := gjson.GetBytes(data, "errors"); errs.IsArray() && len(errs.Array()) > 0 {
		var messages []string
		for _, e := range errs.Array() {
			if msg := e.Get("message").String(); msg != "" {
				messages = append(messages, msg)
			} else {
				messages = append(messages, e.Raw)
			}
		}
		return gjson.Result{}, &GraphQLError{Messages: messages}
	}
	return gjson.ParseBytes(data), nil
}

func (c *Client) send(req *http.Request) ([]byte, error) {
	requestID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("X-Request-ID", requestID)

	c.logger().Printf("github %s %s request_id=%s", req.Method, req.URL.Path, requestID)
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, &TransportError{Op: req.Method + " " + req.URL.String(), Err: err}
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read " + req.URL.String(), Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger().Printf("github %s %s status=%d request_id=%s", req.Method, req.URL.Path, resp.StatusCode, requestID)
		return nil, &RemoteError{Status: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}
