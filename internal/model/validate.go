package model

import "fmt"

// Validate runs the precondition checks applied before rendering. Every
// violation is collected so the caller sees the complete list of missing
// fields, not only the first one.
func (inv *Invoice) Validate() error {
	var missing []string

	if inv.InvoiceNumber == "" {
		missing = append(missing, "invoiceNumber")
	}
	if inv.IssueDate.IsZero() {
		missing = append(missing, "issueDate")
	}
	if inv.SupplierName == "" {
		missing = append(missing, "supplierName")
	}
	if inv.SupplierTaxNumber == "" {
		missing = append(missing, "supplierTaxNumber")
	}
	if inv.CustomerName == "" {
		missing = append(missing, "customerName")
	}
	if inv.TotalAmount.IsZero() {
		missing = append(missing, "totalAmount")
	}
	if inv.VATAmount.IsZero() {
		missing = append(missing, "vatAmount")
	}

	if len(inv.Items) == 0 {
		missing = append(missing, "items")
	}

	// Zero is an acceptable item value; only absence is a violation.
	for i, item := range inv.Items {
		if item.Name == "" {
			missing = append(missing, itemField(i, "name"))
		}
		if !item.Quantity.Valid {
			missing = append(missing, itemField(i, "quantity"))
		}
		if !item.UnitPrice.Valid {
			missing = append(missing, itemField(i, "unitPrice"))
		}
		if !item.TaxRate.Valid {
			missing = append(missing, itemField(i, "taxRate"))
		}
		if !item.TaxAmount.Valid {
			missing = append(missing, itemField(i, "taxAmount"))
		}
		if !item.TotalAmount.Valid {
			missing = append(missing, itemField(i, "totalAmount"))
		}
	}

	if len(missing) > 0 {
		return NewValidationError("missing required invoice fields", missing)
	}
	return nil
}

func itemField(index int, field string) string {
	return fmt.Sprintf("items[%d].%s", index, field)
}

// Validate checks that the certificate info can locate key material and
// authorize submission calls.
func (c CertificateInfo) Validate() error {
	var missing []string

	if c.CertificateID == "" {
		missing = append(missing, "certificateId")
	}
	switch c.Type {
	case CertTypeCompliance, CertTypeProduction:
	case "":
		missing = append(missing, "type")
	default:
		return NewValidationError(
			`certificate type must be either "compliance" or "production"`,
			[]string{"type"},
		)
	}

	if len(missing) > 0 {
		return NewValidationError("missing required certificate fields", missing)
	}
	return nil
}
