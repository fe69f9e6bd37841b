// Package zatca provides the public API for preparing and submitting
// tax invoices to the ZATCA e-invoicing platform.
//
// Example usage:
//
//	client := zatca.New(zatca.DefaultConfig())
//	resp, err := client.SubmitInvoice(ctx, invoice, cert)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(resp.RequestID)
package zatca

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rezonia/zatca-phase2/internal/api"
	"github.com/rezonia/zatca-phase2/internal/certstore"
	"github.com/rezonia/zatca-phase2/internal/config"
	"github.com/rezonia/zatca-phase2/internal/model"
	"github.com/rezonia/zatca-phase2/internal/processor"
	"github.com/rezonia/zatca-phase2/internal/qrcode"
	"github.com/rezonia/zatca-phase2/internal/signing"
	"github.com/rezonia/zatca-phase2/internal/xmlgen"
)

// Re-export core types for the public API
type (
	Invoice            = model.Invoice
	LineItem           = model.LineItem
	CreditNote         = model.CreditNote
	CertificateInfo    = model.CertificateInfo
	SubmissionResponse = model.SubmissionResponse
	StatusResponse     = model.StatusResponse
	Error              = model.Error
	Config             = config.Config
	Organization       = certstore.Organization
	CSRResult          = certstore.CSRResult
)

// Re-export certificate types
const (
	CertTypeCompliance = model.CertTypeCompliance
	CertTypeProduction = model.CertTypeProduction
)

// Re-export error codes
const (
	CodeValidation       = model.CodeValidation
	CodeXMLGeneration    = model.CodeXMLGeneration
	CodeSigning          = model.CodeSigning
	CodeQRCodeGeneration = model.CodeQRCodeGeneration
	CodeAPIError         = model.CodeAPIError
	CodeAPIConnection    = model.CodeAPIConnection
)

// DefaultConfig returns the sandbox configuration
func DefaultConfig() Config {
	return config.Default()
}

// ConfigFromEnv builds a configuration from the environment
func ConfigFromEnv() Config {
	return config.FromEnv()
}

// Client bundles the pipeline behind one handle
type Client struct {
	cfg       Config
	store     *certstore.FileStore
	renderer  *xmlgen.Renderer
	submitter *processor.Submitter
}

// ClientOption configures a Client
type ClientOption func(*clientSettings)

type clientSettings struct {
	log zerolog.Logger
}

// WithLogger attaches a logger to every component
func WithLogger(log zerolog.Logger) ClientOption {
	return func(s *clientSettings) {
		s.log = log
	}
}

// New wires the pipeline from the given configuration
func New(cfg Config, opts ...ClientOption) *Client {
	settings := &clientSettings{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(settings)
	}

	store := certstore.NewFileStore(cfg.CertDir, certstore.WithLogger(settings.log))
	transport := api.NewClient(cfg.API, api.WithLogger(settings.log))

	return &Client{
		cfg:      cfg,
		store:    store,
		renderer: xmlgen.NewRenderer(xmlgen.WithLogger(settings.log)),
		submitter: processor.NewSubmitter(transport, store,
			processor.WithThreshold(cfg.ClearanceThreshold),
			processor.WithLogger(settings.log),
		),
	}
}

// SubmitInvoice runs the full pipeline for an invoice
func (c *Client) SubmitInvoice(ctx context.Context, inv *Invoice, cert CertificateInfo) (*SubmissionResponse, error) {
	return c.submitter.SubmitInvoice(ctx, inv, cert)
}

// CreateCreditNote derives, signs and submits a credit note
func (c *Client) CreateCreditNote(ctx context.Context, original *Invoice, reason string, cert CertificateInfo) (*CreditNote, *SubmissionResponse, error) {
	return c.submitter.CreateCreditNote(ctx, original, reason, cert)
}

// CheckStatus queries the state of a submitted invoice
func (c *Client) CheckStatus(ctx context.Context, inv *Invoice) (*StatusResponse, error) {
	return c.submitter.CheckStatus(ctx, inv)
}

// RenderInvoice renders an invoice to UBL XML without submitting it
func (c *Client) RenderInvoice(inv *Invoice) (string, error) {
	return c.renderer.RenderInvoice(inv)
}

// Hash computes the content hash of a rendered document
func Hash(xml string) string {
	return signing.Hash(xml)
}

// QRPayload returns the base64 TLV summary of an invoice
func QRPayload(inv *Invoice) (string, error) {
	return qrcode.Payload(inv)
}

// QRImage renders the invoice summary as a PNG data URL
func QRImage(inv *Invoice) (string, error) {
	return qrcode.Generate(inv)
}

// GenerateCSR creates and stores an onboarding key pair and CSR
func (c *Client) GenerateCSR(ctx context.Context, org Organization) (*CSRResult, error) {
	return certstore.GenerateCSR(ctx, c.store, org)
}
