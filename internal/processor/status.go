package processor

import (
	"context"

	"github.com/rezonia/zatca-phase2/internal/model"
)

// CheckStatus queries the authority for the state of an already
// submitted record and updates the record's status field.
func (s *Submitter) CheckStatus(ctx context.Context, inv *model.Invoice) (*model.StatusResponse, error) {
	s.log.Info().Str("invoiceNumber", inv.InvoiceNumber).Msg("checking invoice status")

	if inv.Response == nil || inv.Response.RequestID == "" {
		return nil, model.NewValidationError(
			"invoice has no submission response with a request ID",
			[]string{"zatcaResponse.requestID"},
		)
	}

	status, err := s.transport.CheckStatus(ctx, inv.Response.RequestID)
	if err != nil {
		return nil, model.WrapError(err, "failed to check invoice status")
	}

	if status.Status != "" {
		inv.Status = model.SubmissionStatus(status.Status)
	} else {
		inv.Status = "unknown"
	}

	s.log.Info().
		Str("invoiceNumber", inv.InvoiceNumber).
		Str("status", string(inv.Status)).
		Msg("invoice status updated")
	return status, nil
}
