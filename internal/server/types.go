package server

import "github.com/rezonia/zatca-phase2/internal/model"

// SubmitRequest is the body for invoice submission
type SubmitRequest struct {
	Invoice     model.Invoice         `json:"invoice"`
	Certificate model.CertificateInfo `json:"certificate"`
}

// SubmitResponse is the answer to a successful submission
type SubmitResponse struct {
	Invoice  *model.Invoice            `json:"invoice"`
	Response *model.SubmissionResponse `json:"response"`
}

// CreditNoteRequest is the body for credit note creation
type CreditNoteRequest struct {
	Invoice     model.Invoice         `json:"invoice"`
	Reason      string                `json:"reason"`
	Certificate model.CertificateInfo `json:"certificate"`
}

// CreditNoteResponse is the answer to a successful credit note submission
type CreditNoteResponse struct {
	CreditNote *model.CreditNote         `json:"creditNote"`
	Response   *model.SubmissionResponse `json:"response"`
}

// ValidationResponse is the answer to the validate endpoint
type ValidationResponse struct {
	Valid  bool     `json:"valid"`
	Fields []string `json:"fields,omitempty"`
}

// QRResponse carries the QR payload and rendered image
type QRResponse struct {
	Payload string `json:"payload"`
	QR      string `json:"qr"`
}

// ErrorResponse is the standard error body
type ErrorResponse struct {
	Error  string   `json:"error"`
	Code   string   `json:"code,omitempty"`
	Fields []string `json:"fields,omitempty"`
}
