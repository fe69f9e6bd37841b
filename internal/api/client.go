// Package api implements the JSON-over-HTTPS client for the tax
// authority's clearance, reporting, compliance and status endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/rezonia/zatca-phase2/internal/model"
)

// Default sandbox endpoints
const (
	DefaultBaseURL       = "https://gw-apic-gov.gazt.gov.sa/e-invoicing/developer-portal"
	DefaultComplianceURL = "/compliance"
	DefaultReportingURL  = "/invoices/reporting/single"
	DefaultClearanceURL  = "/invoices/clearance/single"
	DefaultStatusURL     = "/invoices/status"
	DefaultTimeout       = 30 * time.Second
)

// Config holds the endpoint layout and the only deadline the pipeline
// enforces: the per-request timeout.
type Config struct {
	BaseURL       string
	ComplianceURL string
	ReportingURL  string
	ClearanceURL  string
	StatusURL     string
	Timeout       time.Duration
}

// DefaultConfig returns the sandbox endpoint configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:       DefaultBaseURL,
		ComplianceURL: DefaultComplianceURL,
		ReportingURL:  DefaultReportingURL,
		ClearanceURL:  DefaultClearanceURL,
		StatusURL:     DefaultStatusURL,
		Timeout:       DefaultTimeout,
	}
}

// Client is the HTTP transport collaborator. All failure shapes are
// wrapped into the shared error taxonomy so the caller sees one error
// type regardless of where the call broke.
type Client struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithLogger sets the client's logger
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// NewClient creates an API client from the endpoint configuration
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// submission is the request body shared by clearance and reporting
type submission struct {
	InvoiceHash string `json:"invoiceHash"`
	UUID        string `json:"uuid"`
	Invoice     string `json:"invoice"`
}

// SubmitClearance submits a signed document through the clearance flow
func (c *Client) SubmitClearance(ctx context.Context, invoiceHash, uuid, document, token string) (*model.SubmissionResponse, error) {
	c.log.Info().Str("uuid", uuid).Msg("clearing invoice")

	body, err := c.post(ctx, c.cfg.ClearanceURL, submission{
		InvoiceHash: invoiceHash,
		UUID:        uuid,
		Invoice:     document,
	}, token)
	if err != nil {
		return nil, err
	}
	return decodeSubmission(body)
}

// SubmitReporting submits a signed document through the reporting flow
func (c *Client) SubmitReporting(ctx context.Context, invoiceHash, uuid, document, token string) (*model.SubmissionResponse, error) {
	c.log.Info().Str("uuid", uuid).Msg("reporting invoice")

	body, err := c.post(ctx, c.cfg.ReportingURL, submission{
		InvoiceHash: invoiceHash,
		UUID:        uuid,
		Invoice:     document,
	}, token)
	if err != nil {
		return nil, err
	}
	return decodeSubmission(body)
}

// CheckStatus looks up the processing state of an earlier submission
func (c *Client) CheckStatus(ctx context.Context, requestID string) (*model.StatusResponse, error) {
	c.log.Info().Str("requestId", requestID).Msg("checking invoice status")

	body, err := c.get(ctx, c.cfg.StatusURL+"/"+requestID)
	if err != nil {
		return nil, err
	}

	var status model.StatusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, model.NewError(model.CodeAPIError, "malformed status response", err)
	}
	return &status, nil
}

// RequestComplianceCertificate submits a CSR for a compliance certificate
func (c *Client) RequestComplianceCertificate(ctx context.Context, csr string) (*model.ComplianceResponse, error) {
	c.log.Info().Msg("requesting compliance certificate")

	body, err := c.post(ctx, c.cfg.ComplianceURL, map[string]string{"csr": csr}, "")
	if err != nil {
		return nil, err
	}

	var resp model.ComplianceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, model.NewError(model.CodeAPIError, "malformed compliance response", err)
	}
	return &resp, nil
}

// VerifyCertificate confirms a compliance request with the emailed CSID
func (c *Client) VerifyCertificate(ctx context.Context, requestID, csid string) (*model.ComplianceResponse, error) {
	c.log.Info().Str("requestId", requestID).Msg("verifying certificate")

	body, err := c.post(ctx, c.cfg.ComplianceURL+"/verify", map[string]string{
		"requestID": requestID,
		"csid":      csid,
	}, "")
	if err != nil {
		return nil, err
	}

	var resp model.ComplianceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, model.NewError(model.CodeAPIError, "malformed verification response", err)
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, token string) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, model.NewError(model.CodeAPIRequest, "failed to encode request body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, model.NewError(model.CodeAPIRequest, "failed to build request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.do(req)
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, model.NewError(model.CodeAPIRequest, "failed to build request", err)
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req)
}

// do executes the request and normalizes every failure shape. A request
// that exceeds the configured timeout surfaces as a connection failure;
// there is no automatic retry.
func (c *Client) do(req *http.Request) ([]byte, error) {
	c.log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Msg("API request")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, model.NewError(model.CodeAPIConnection, "no response from authority API", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, model.NewError(model.CodeAPIConnection, "failed to read response body", err)
	}

	c.log.Debug().Int("status", resp.StatusCode).Msg("API response")

	if resp.StatusCode >= 400 {
		return nil, model.NewError(model.CodeAPIError,
			fmt.Sprintf("authority API error: %d - %s", resp.StatusCode, http.StatusText(resp.StatusCode)), nil)
	}

	// Some authority errors arrive inside a 2xx envelope.
	var envelope struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Errors) > 0 {
		return nil, model.NewError(model.CodeAPIError,
			"authority API error: "+envelope.Errors[0].Message, nil)
	}

	return body, nil
}

func decodeSubmission(body []byte) (*model.SubmissionResponse, error) {
	var resp model.SubmissionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, model.NewError(model.CodeAPIError, "malformed submission response", err)
	}
	resp.Raw = json.RawMessage(body)
	return &resp, nil
}
