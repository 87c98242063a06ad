package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	reasoncodes "github.com/udaycodespace/credify/pkg/reason_codes"
)

const (
	StatusPath     = "/api/blockchain_status"
	VerifyPath     = "/api/verify_credential"
	DisclosurePath = "/api/selective_disclosure"
)

// Client talks to the credential backend. It holds no per-call state and is
// safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	header     http.Header
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client. Its Timeout is the only
// deadline applied to requests besides the caller's context.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithHeader adds a header sent on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.header.Add(key, value) }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		header:     http.Header{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// Response is a backend answer whose body parsed as a JSON object. The HTTP
// status is kept because the backend reports refusals as JSON with 4xx/5xx.
type Response struct {
	StatusCode int
	Body       Document
}

type verifyRequest struct {
	CredentialID string `json:"credential_id"`
}

type disclosureRequest struct {
	CredentialID string   `json:"credential_id"`
	Fields       []string `json:"fields"`
}

// StatusPayload is the body of GET /api/blockchain_status.
type StatusPayload struct {
	TotalBlocks      *int64  `json:"total_blocks"`
	TotalCredentials *int64  `json:"total_credentials"`
	IPFSStatus       bool    `json:"ipfs_status"`
	LastBlockHash    *string `json:"last_block_hash"`
}

// Status fetches the backend status. Non-2xx answers and bodies without the
// block or credential counts are malformed responses.
func (c *Client) Status(ctx context.Context) (StatusPayload, error) {
	payload, status, err := requestJSON[StatusPayload](ctx, c, http.MethodGet, StatusPath, nil)
	if err != nil {
		return StatusPayload{}, err
	}
	url := c.baseURL + StatusPath
	if status < 200 || status > 299 {
		return StatusPayload{}, malformedError("status", url, status, reasoncodes.ErrUnexpectedStatus,
			fmt.Errorf("HTTP error: %d %s", status, http.StatusText(status)))
	}
	if payload.TotalBlocks == nil || payload.TotalCredentials == nil {
		return StatusPayload{}, malformedError("status", url, status, reasoncodes.ErrMissingField,
			errors.New("total_blocks and total_credentials are required"))
	}
	return payload, nil
}

func (c *Client) VerifyCredential(ctx context.Context, credentialID string) (Response, error) {
	return c.postDocument(ctx, "verify", VerifyPath, verifyRequest{CredentialID: credentialID})
}

func (c *Client) SelectiveDisclosure(ctx context.Context, credentialID string, fields []string) (Response, error) {
	if fields == nil {
		fields = []string{}
	}
	return c.postDocument(ctx, "disclose", DisclosurePath, disclosureRequest{
		CredentialID: credentialID,
		Fields:       fields,
	})
}

func (c *Client) postDocument(ctx context.Context, op, path string, body any) (Response, error) {
	doc, status, err := requestJSON[Document](ctx, c, http.MethodPost, path, body)
	if err != nil {
		return Response{}, err
	}
	if doc == nil {
		return Response{}, malformedError(op, c.baseURL+path, status, reasoncodes.ErrUnmarshal,
			errors.New("response body is not a JSON object"))
	}
	return Response{StatusCode: status, Body: doc}, nil
}

func requestJSON[T any](ctx context.Context, c *Client, method, path string, body any) (T, int, error) {
	var empty T
	fullUrl := c.baseURL + path
	op := method + " " + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return empty, 0, &RequestError{Op: op, URL: fullUrl, Reason: reasoncodes.ErrMarshal, Kind: ErrNetwork, Err: err}
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullUrl, bodyReader)
	if err != nil {
		return empty, 0, networkError(op, fullUrl, reasoncodes.ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return empty, 0, networkError(op, fullUrl, reasoncodes.ErrTransport, err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return empty, resp.StatusCode, networkError(op, fullUrl, reasoncodes.ErrReadBody, err)
	}

	if len(bytes.TrimSpace(responseBody)) == 0 {
		return empty, resp.StatusCode, malformedError(op, fullUrl, resp.StatusCode, reasoncodes.ErrUnmarshal,
			errors.New("empty response body"))
	}

	var apiResponse T
	if err := json.Unmarshal(responseBody, &apiResponse); err != nil {
		return empty, resp.StatusCode, malformedError(op, fullUrl, resp.StatusCode, reasoncodes.ErrUnmarshal, err)
	}

	return apiResponse, resp.StatusCode, nil
}
