// Package processor drives invoice records through the render, hash,
// sign and submit stages, routing each signed document to the clearance
// or reporting flow.
package processor

import (
	"context"
	"encoding/base64"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rezonia/zatca-phase2/internal/model"
	"github.com/rezonia/zatca-phase2/internal/signing"
	"github.com/rezonia/zatca-phase2/internal/xmlgen"
)

// DefaultClearanceThreshold is the amount at and above which documents
// require clearance before they are legally valid.
var DefaultClearanceThreshold = decimal.NewFromInt(1000)

// Transport submits signed documents to the authority. The HTTP client
// in internal/api satisfies this; tests substitute a fake.
type Transport interface {
	SubmitClearance(ctx context.Context, invoiceHash, uuid, document, token string) (*model.SubmissionResponse, error)
	SubmitReporting(ctx context.Context, invoiceHash, uuid, document, token string) (*model.SubmissionResponse, error)
	CheckStatus(ctx context.Context, requestID string) (*model.StatusResponse, error)
}

// Submitter runs the full submission pipeline. It holds no mutable
// state of its own, so one instance may process distinct records
// concurrently.
type Submitter struct {
	renderer  *xmlgen.Renderer
	signer    *signing.Signer
	transport Transport
	threshold decimal.Decimal
	log       zerolog.Logger
}

// Option configures a Submitter
type Option func(*Submitter)

// WithThreshold overrides the clearance threshold
func WithThreshold(threshold decimal.Decimal) Option {
	return func(s *Submitter) {
		s.threshold = threshold
	}
}

// WithLogger sets the submitter's logger, shared with its renderer and
// signer.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Submitter) {
		s.log = log
	}
}

// NewSubmitter wires the pipeline stages around the given transport and
// key store.
func NewSubmitter(transport Transport, keys signing.KeyStore, opts ...Option) *Submitter {
	s := &Submitter{
		transport: transport,
		threshold: DefaultClearanceThreshold,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.renderer = xmlgen.NewRenderer(xmlgen.WithLogger(s.log))
	s.signer = signing.NewSigner(keys, signing.WithLogger(s.log))
	return s
}

// SubmitInvoice renders, hashes, signs and submits an invoice. Already
// populated derived fields are reused, so a record that failed mid-way
// picks up where it left off; the submission call itself is not
// idempotence-guarded and runs on every invocation.
func (s *Submitter) SubmitInvoice(ctx context.Context, inv *model.Invoice, cert model.CertificateInfo) (*model.SubmissionResponse, error) {
	s.log.Info().Str("invoiceNumber", inv.InvoiceNumber).Msg("starting invoice submission")

	if err := inv.Validate(); err != nil {
		return nil, err
	}
	if err := cert.Validate(); err != nil {
		return nil, err
	}

	if err := s.prepare(ctx, inv, cert, s.renderInvoice(inv)); err != nil {
		return nil, err
	}

	document := base64.StdEncoding.EncodeToString([]byte(inv.SignedXML))

	var resp *model.SubmissionResponse
	var err error
	if inv.TotalAmount.Abs().GreaterThanOrEqual(s.threshold) {
		s.log.Info().
			Str("totalAmount", inv.TotalAmount.String()).
			Str("threshold", s.threshold.String()).
			Msg("clearing invoice (amount >= threshold)")

		resp, err = s.transport.SubmitClearance(ctx, inv.Hash, inv.UUID, document, cert.Token)
		if err != nil {
			return nil, model.WrapError(err, "failed to clear invoice")
		}
		inv.ClearanceStatus = model.StatusSubmitted
	} else {
		s.log.Info().
			Str("totalAmount", inv.TotalAmount.String()).
			Str("threshold", s.threshold.String()).
			Msg("reporting invoice (amount < threshold)")

		resp, err = s.transport.SubmitReporting(ctx, inv.Hash, inv.UUID, document, cert.Token)
		if err != nil {
			return nil, model.WrapError(err, "failed to report invoice")
		}
	}

	inv.Status = model.StatusSubmitted
	inv.Response = resp

	s.log.Info().
		Str("invoiceNumber", inv.InvoiceNumber).
		Str("requestId", resp.RequestID).
		Msg("invoice submitted")
	return resp, nil
}

// renderFunc produces the document XML for a record
type renderFunc func() (string, error)

func (s *Submitter) renderInvoice(inv *model.Invoice) renderFunc {
	return func() (string, error) {
		return s.renderer.RenderInvoice(inv)
	}
}

// prepare fills the derived fields that are still empty: rendered XML,
// content hash, then signed XML. Each field is written only after its
// computation fully succeeds.
func (s *Submitter) prepare(ctx context.Context, inv *model.Invoice, cert model.CertificateInfo, render renderFunc) error {
	if inv.XML == "" {
		xml, err := render()
		if err != nil {
			return err
		}
		inv.XML = xml
	}

	if inv.Hash == "" {
		inv.Hash = signing.Hash(inv.XML)
	}

	if inv.SignedXML == "" {
		signed, err := s.signer.Sign(ctx, inv.XML, cert)
		if err != nil {
			return err
		}
		inv.SignedXML = signed
	}

	return nil
}
