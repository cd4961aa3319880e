// Package client talks to the lead API over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/phbpx/minicrm"
)

// APIError is returned for every non-2xx answer.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// Is lets callers match 404 answers against the domain errors.
func (e *APIError) Is(target error) bool {
	if e.Status != http.StatusNotFound {
		return false
	}
	switch target {
	case minicrm.ErrLeadNotFound:
		return e.Message == "Lead not found"
	case minicrm.ErrFollowUpNotFound:
		return e.Message == "Task not found"
	}
	return false
}

type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client, which times out after 10s.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ListLeads(ctx context.Context) ([]minicrm.Lead, error) {
	var leads []minicrm.Lead
	if err := c.do(ctx, http.MethodGet, "/api/leads", nil, &leads); err != nil {
		return nil, err
	}
	return leads, nil
}

func (c *Client) GetLead(ctx context.Context, id string) (minicrm.Lead, error) {
	var lead minicrm.Lead
	err := c.do(ctx, http.MethodGet, "/api/leads/"+url.PathEscape(id), nil, &lead)
	return lead, err
}

func (c *Client) CreateLead(ctx context.Context, nl minicrm.NewLead) (minicrm.Lead, error) {
	var lead minicrm.Lead
	err := c.do(ctx, http.MethodPost, "/api/leads", nl, &lead)
	return lead, err
}

// UpdateLead sends the combined field update and optional follow-up.
func (c *Client) UpdateLead(ctx context.Context, id string, patch minicrm.LeadPatch) (minicrm.Lead, error) {
	var lead minicrm.Lead
	err := c.do(ctx, http.MethodPut, "/api/leads/"+url.PathEscape(id), patch, &lead)
	return lead, err
}

func (c *Client) CompleteFollowUp(ctx context.Context, leadID, followUpID string) error {
	body := struct {
		LeadID     string `json:"leadId"`
		FollowUpID string `json:"followUpId"`
	}{leadID, followUpID}

	var resp struct {
		Success bool `json:"success"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/leads/mark-complete", body, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("api: follow-up %s was not completed", followUpID)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, into interface{}) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		var payload struct {
			Code  string `json:"code"`
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
			apiErr.Code = payload.Code
			apiErr.Message = payload.Error
		}
		return apiErr
	}

	if into == nil {
		return nil
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("decoding %s %s: %w", method, path, err)
	}
	return nil
}
