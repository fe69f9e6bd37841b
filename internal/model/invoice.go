// Package model defines the invoice aggregate flowing through the
// submission pipeline, together with the shared error taxonomy.
package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubmissionStatus tracks where a document is in the submission lifecycle
type SubmissionStatus string

const (
	StatusUnsubmitted SubmissionStatus = ""
	StatusSubmitted   SubmissionStatus = "submitted"
)

// CertificateType discriminates which issued certificate signs a document
type CertificateType string

const (
	CertTypeCompliance CertificateType = "compliance"
	CertTypeProduction CertificateType = "production"
)

// Invoice is the mutable aggregate enriched in place as it passes through
// the pipeline stages. Persistence is the caller's responsibility.
type Invoice struct {
	UUID          string    `json:"uuid,omitempty"`
	InvoiceNumber string    `json:"invoiceNumber"`
	IssueDate     time.Time `json:"issueDate"`
	SupplyDate    time.Time `json:"supplyDate,omitempty"`

	SupplierName       string `json:"supplierName"`
	SupplierTaxNumber  string `json:"supplierTaxNumber"`
	SupplierStreet     string `json:"supplierStreet,omitempty"`
	SupplierBuilding   string `json:"supplierBuilding,omitempty"`
	SupplierCity       string `json:"supplierCity,omitempty"`
	SupplierPostalCode string `json:"supplierPostalCode,omitempty"`
	SupplierRegion     string `json:"supplierRegion,omitempty"`

	CustomerName       string `json:"customerName"`
	CustomerTaxNumber  string `json:"customerTaxNumber,omitempty"`
	CustomerStreet     string `json:"customerStreet,omitempty"`
	CustomerBuilding   string `json:"customerBuilding,omitempty"`
	CustomerCity       string `json:"customerCity,omitempty"`
	CustomerPostalCode string `json:"customerPostalCode,omitempty"`
	CustomerRegion     string `json:"customerRegion,omitempty"`

	// VAT-inclusive total and VAT portion, same currency.
	TotalAmount decimal.Decimal `json:"totalAmount"`
	VATAmount   decimal.Decimal `json:"vatAmount"`

	Items []LineItem `json:"items"`

	// Derived fields, populated by the pipeline. Counter is the invoice
	// counter value (ICV): generated on first render and reused after
	// that, so re-rendering the same record is byte-stable.
	Counter   string `json:"-"`
	XML       string `json:"-"`
	Hash      string `json:"hash,omitempty"`
	SignedXML string `json:"-"`

	Status          SubmissionStatus    `json:"zatcaStatus,omitempty"`
	ClearanceStatus SubmissionStatus    `json:"clearanceStatus,omitempty"`
	Response        *SubmissionResponse `json:"zatcaResponse,omitempty"`
}

// LineItem is a single invoice line. Numeric fields use NullDecimal so
// validation can tell a missing value apart from an explicit zero.
type LineItem struct {
	Name        string              `json:"name"`
	Quantity    decimal.NullDecimal `json:"quantity"`
	UnitPrice   decimal.NullDecimal `json:"unitPrice"`
	TaxRate     decimal.NullDecimal `json:"taxRate"`
	TaxAmount   decimal.NullDecimal `json:"taxAmount"`
	TotalAmount decimal.NullDecimal `json:"totalAmount"`
	UnitCode    string              `json:"unitCode,omitempty"`
}

// CreditNote is structurally an Invoice plus a back-reference to the
// original document and a free-text reason.
type CreditNote struct {
	Invoice

	Reason            string    `json:"reason,omitempty"`
	OriginalNumber    string    `json:"originalInvoiceNumber"`
	OriginalUUID      string    `json:"originalInvoiceUuid"`
	OriginalIssueDate time.Time `json:"originalIssueDate"`
}

// NewCreditNote derives a credit note from an invoice: totals and per-line
// quantity/taxAmount/totalAmount are negated, unitPrice and taxRate kept.
func NewCreditNote(original *Invoice, reason string) *CreditNote {
	now := time.Now().UTC()

	items := make([]LineItem, len(original.Items))
	for i, item := range original.Items {
		negated := item
		negated.Quantity = negateNull(item.Quantity)
		negated.TaxAmount = negateNull(item.TaxAmount)
		negated.TotalAmount = negateNull(item.TotalAmount)
		items[i] = negated
	}

	return &CreditNote{
		Invoice: Invoice{
			UUID:               uuid.NewString(),
			InvoiceNumber:      "CN-" + original.InvoiceNumber,
			IssueDate:          now,
			SupplyDate:         now,
			SupplierName:       original.SupplierName,
			SupplierTaxNumber:  original.SupplierTaxNumber,
			SupplierStreet:     original.SupplierStreet,
			SupplierBuilding:   original.SupplierBuilding,
			SupplierCity:       original.SupplierCity,
			SupplierPostalCode: original.SupplierPostalCode,
			SupplierRegion:     original.SupplierRegion,
			CustomerName:       original.CustomerName,
			CustomerTaxNumber:  original.CustomerTaxNumber,
			CustomerStreet:     original.CustomerStreet,
			CustomerBuilding:   original.CustomerBuilding,
			CustomerCity:       original.CustomerCity,
			CustomerPostalCode: original.CustomerPostalCode,
			CustomerRegion:     original.CustomerRegion,
			TotalAmount:        original.TotalAmount.Abs().Neg(),
			VATAmount:          original.VATAmount.Abs().Neg(),
			Items:              items,
		},
		Reason:            reason,
		OriginalNumber:    original.InvoiceNumber,
		OriginalUUID:      original.UUID,
		OriginalIssueDate: original.IssueDate,
	}
}

func negateNull(d decimal.NullDecimal) decimal.NullDecimal {
	if !d.Valid {
		return d
	}
	return decimal.NullDecimal{Decimal: d.Decimal.Abs().Neg(), Valid: true}
}

// CertificateInfo locates the key material used for signing and carries
// the bearer token for authenticated submission calls. It is caller
// supplied and never persisted by the pipeline.
type CertificateInfo struct {
	CertificateID string          `json:"certificateId"`
	Type          CertificateType `json:"type"`
	Token         string          `json:"token,omitempty"`
}

// SubmissionResponse is the authority's answer to a clearance or
// reporting call. Raw keeps the unparsed body for auditing.
type SubmissionResponse struct {
	RequestID       string          `json:"requestID"`
	ClearanceStatus string          `json:"clearanceStatus,omitempty"`
	ReportingStatus string          `json:"reportingStatus,omitempty"`
	Raw             json.RawMessage `json:"-"`
}

// StatusResponse is the answer to a status check call
type StatusResponse struct {
	RequestID string `json:"requestID,omitempty"`
	Status    string `json:"status"`
}

// ComplianceResponse is the answer to compliance certificate calls
type ComplianceResponse struct {
	RequestID   string `json:"requestID"`
	Certificate string `json:"certificate,omitempty"`
}
