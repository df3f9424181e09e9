// Package crm provides the HTTP client for the Salesforce REST API.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"propensia_dashboard/platform/config"
	"propensia_dashboard/platform/logger"

	"golang.org/x/oauth2"
)

const (
	requestTimeout = 30 * time.Second
	maxErrorBody   = 64 << 10
)

// ErrNotConnected is returned when no instance URL is known yet.
var ErrNotConnected = errors.New("crm: not connected")

// APIError is a non-2xx response from the REST API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("salesforce %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("salesforce %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the REST API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client talks to one Salesforce org. It is safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	source      *passwordSource
	apiVersion  string
	instanceURL string
	mu          sync.RWMutex
	log         *logger.Logger
}

// New creates a client that authenticates with the OAuth2 username-password
// flow. No network call is made until Connect or the first request.
func New(cfg config.CRMConfig, log *logger.Logger) *Client {
	loginURL := strings.TrimRight(cfg.GetSFLoginURL(), "/")
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.GetSFClientID(),
		ClientSecret: cfg.GetSFClientSecret(),
		Endpoint: oauth2.Endpoint{
			TokenURL:  loginURL + "/services/oauth2/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	source := &passwordSource{
		conf:     oauthCfg,
		username: cfg.GetSFUsername(),
		password: cfg.GetSFPassword() + cfg.GetSFSecurityToken(),
		timeout:  requestTimeout,
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   requestTimeout,
			Transport: &oauth2.Transport{Source: source, Base: http.DefaultTransport},
		},
		source:      source,
		apiVersion:  cfg.GetSFAPIVersion(),
		instanceURL: strings.TrimRight(cfg.GetSFInstanceURL(), "/"),
		log:         log,
	}
}

// Connect performs the login and resolves the instance URL.
func (c *Client) Connect(ctx context.Context) error {
	token, err := c.source.fetch(ctx)
	if err != nil {
		return fmt.Errorf("salesforce login: %w", err)
	}
	c.adoptInstanceURL(token)
	return nil
}

// Ping reports whether the client holds a usable session, logging in if needed.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.source.fetch(ctx); err != nil {
		return fmt.Errorf("salesforce login: %w", err)
	}
	_, err := c.baseURL(ctx)
	return err
}

// Query runs a SOQL query and follows nextRecordsUrl until all pages are read.
func (c *Client) Query(ctx context.Context, soql string) ([]Record, error) {
	base, err := c.baseURL(ctx)
	if err != nil {
		return nil, err
	}

	next := fmt.Sprintf("%s/services/data/%s/query?q=%s", base, c.apiVersion, url.QueryEscape(soql))
	var records []Record
	for next != "" {
		var page queryResponse
		if err := c.do(ctx, http.MethodGet, next, nil, &page); err != nil {
			c.log.CRMError("query", err)
			return nil, err
		}
		records = append(records, page.Records...)

		next = ""
		if !page.Done && page.NextRecordsURL != "" {
			next = base + page.NextRecordsURL
		}
	}
	return records, nil
}

// Update patches fields on a single sObject record.
func (c *Client) Update(ctx context.Context, sobject, id string, fields map[string]any) error {
	base, err := c.baseURL(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode update: %w", err)
	}
	reqURL := fmt.Sprintf("%s/services/data/%s/sobjects/%s/%s", base, c.apiVersion, url.PathEscape(sobject), url.PathEscape(id))
	if err := c.do(ctx, http.MethodPatch, reqURL, body, nil); err != nil {
		c.log.CRMError("update", err)
		return err
	}
	return nil
}

type queryResponse struct {
	TotalSize      int      `json:"totalSize"`
	Done           bool     `json:"done"`
	NextRecordsURL string   `json:"nextRecordsUrl"`
	Records        []Record `json:"records"`
}

type apiErrorBody struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}

// do sends the request, retrying once with a fresh session on 401.
func (c *Client) do(ctx context.Context, method, reqURL string, body []byte, out any) error {
	resp, err := c.send(ctx, method, reqURL, body)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		c.source.invalidate()
		resp, err = c.send(ctx, method, reqURL, body)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, reqURL string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	return resp, nil
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}

	var bodies []apiErrorBody
	if err := json.Unmarshal(raw, &bodies); err == nil && len(bodies) > 0 {
		apiErr.Code = bodies[0].ErrorCode
		apiErr.Message = bodies[0].Message
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func (c *Client) baseURL(ctx context.Context) (string, error) {
	c.mu.RLock()
	base := c.instanceURL
	c.mu.RUnlock()
	if base != "" {
		return base, nil
	}

	if err := c.Connect(ctx); err != nil {
		return "", err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.instanceURL == "" {
		return "", ErrNotConnected
	}
	return c.instanceURL, nil
}

func (c *Client) adoptInstanceURL(token *oauth2.Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.instanceURL != "" {
		return
	}
	if instance, ok := token.Extra("instance_url").(string); ok {
		c.instanceURL = strings.TrimRight(instance, "/")
	}
}

// passwordSource is an oauth2.TokenSource for the username-password flow.
// Salesforce issues no refresh token here, so an expired session is
// replaced by logging in again.
type passwordSource struct {
	conf     *oauth2.Config
	username string
	password string
	timeout  time.Duration

	mu    sync.Mutex
	token *oauth2.Token
}

func (s *passwordSource) Token() (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.fetch(ctx)
}

func (s *passwordSource) fetch(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != nil && s.token.Valid() {
		return s.token, nil
	}

	token, err := s.conf.PasswordCredentialsToken(ctx, s.username, s.password)
	if err != nil {
		return nil, err
	}
	s.token = token
	return token, nil
}

func (s *passwordSource) invalidate() {
	s.mu.Lock()
	s.token = nil
	s.mu.Unlock()
}
