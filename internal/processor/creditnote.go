package processor

import (
	"context"
	"encoding/base64"

	"github.com/rezonia/zatca-phase2/internal/model"
)

// CreateCreditNote derives a credit note from an invoice, runs it
// through the render/hash/sign stages and submits it. Credit notes
// always travel the reporting flow regardless of amount.
func (s *Submitter) CreateCreditNote(ctx context.Context, original *model.Invoice, reason string, cert model.CertificateInfo) (*model.CreditNote, *model.SubmissionResponse, error) {
	s.log.Info().
		Str("originalInvoiceNumber", original.InvoiceNumber).
		Msg("creating credit note")

	if err := cert.Validate(); err != nil {
		return nil, nil, err
	}

	cn := model.NewCreditNote(original, reason)

	render := func() (string, error) {
		return s.renderer.RenderCreditNote(cn)
	}
	if err := s.prepare(ctx, &cn.Invoice, cert, render); err != nil {
		return nil, nil, err
	}

	document := base64.StdEncoding.EncodeToString([]byte(cn.SignedXML))
	resp, err := s.transport.SubmitReporting(ctx, cn.Hash, cn.UUID, document, cert.Token)
	if err != nil {
		return nil, nil, model.WrapError(err, "failed to submit credit note")
	}

	cn.Status = model.StatusSubmitted
	cn.Response = resp

	s.log.Info().
		Str("creditNoteNumber", cn.InvoiceNumber).
		Str("requestId", resp.RequestID).
		Msg("credit note submitted")
	return cn, resp, nil
}
