package model_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/zatca-phase2/internal/model"
	"github.com/rezonia/zatca-phase2/internal/money"
)

func sampleInvoice() *model.Invoice {
	return &model.Invoice{
		UUID:              "3cf5ee18-ee25-44ea-a444-2c37ba7f28be",
		InvoiceNumber:     "INV-001",
		IssueDate:         time.Date(2023, 4, 15, 12, 0, 0, 0, time.UTC),
		SupplyDate:        time.Date(2023, 4, 15, 12, 0, 0, 0, time.UTC),
		SupplierName:      "Saudi Trading Co",
		SupplierTaxNumber: "310122393500003",
		CustomerName:      "Acme LLC",
		CustomerTaxNumber: "311111111100003",
		TotalAmount:       money.FromFloat(1150.00),
		VATAmount:         money.FromFloat(150.00),
		Items: []model.LineItem{
			{
				Name:        "Consulting services",
				Quantity:    money.Null(1),
				UnitPrice:   money.Null(1000.00),
				TaxRate:     money.Null(15),
				TaxAmount:   money.Null(150.00),
				TotalAmount: money.Null(1150.00),
			},
		},
	}
}

func TestNewCreditNote_NegatesAmounts(t *testing.T) {
	original := sampleInvoice()

	cn := model.NewCreditNote(original, "goods returned")

	assert.Equal(t, "CN-INV-001", cn.InvoiceNumber)
	assert.Equal(t, "goods returned", cn.Reason)
	assert.NotEmpty(t, cn.UUID)
	assert.NotEqual(t, original.UUID, cn.UUID)

	assert.True(t, cn.TotalAmount.Equal(money.FromFloat(-1150.00)),
		"expected total -1150.00, got %s", cn.TotalAmount.String())
	assert.True(t, cn.VATAmount.Equal(money.FromFloat(-150.00)),
		"expected VAT -150.00, got %s", cn.VATAmount.String())

	require.Len(t, cn.Items, 1)
	item := cn.Items[0]
	assert.True(t, item.Quantity.Decimal.Equal(decimal.NewFromInt(-1)),
		"expected quantity -1, got %s", item.Quantity.Decimal.String())
	assert.True(t, item.TaxAmount.Decimal.Equal(money.FromFloat(-150.00)))
	assert.True(t, item.TotalAmount.Decimal.Equal(money.FromFloat(-1150.00)))

	// Unit price and tax rate stay untouched.
	assert.True(t, item.UnitPrice.Decimal.Equal(money.FromFloat(1000.00)))
	assert.True(t, item.TaxRate.Decimal.Equal(decimal.NewFromInt(15)))
}

func TestNewCreditNote_BackReference(t *testing.T) {
	original := sampleInvoice()

	cn := model.NewCreditNote(original, "")

	assert.Equal(t, original.InvoiceNumber, cn.OriginalNumber)
	assert.Equal(t, original.UUID, cn.OriginalUUID)
	assert.Equal(t, original.IssueDate, cn.OriginalIssueDate)
}

func TestNewCreditNote_NegatesAlreadyNegative(t *testing.T) {
	original := sampleInvoice()
	original.TotalAmount = money.FromFloat(-1150.00)

	cn := model.NewCreditNote(original, "")

	assert.True(t, cn.TotalAmount.IsNegative())
}

func TestInvoiceValidate_Valid(t *testing.T) {
	assert.NoError(t, sampleInvoice().Validate())
}

func TestInvoiceValidate_ListsEveryMissingField(t *testing.T) {
	inv := sampleInvoice()
	inv.InvoiceNumber = ""
	inv.SupplierName = ""
	inv.CustomerName = ""

	err := inv.Validate()
	require.Error(t, err)

	var zerr *model.Error
	require.ErrorAs(t, err, &zerr)
	assert.Equal(t, model.CodeValidation, zerr.Code)
	assert.ElementsMatch(t, []string{"invoiceNumber", "supplierName", "customerName"}, zerr.Fields)
}

func TestInvoiceValidate_EmptyItems(t *testing.T) {
	inv := sampleInvoice()
	inv.Items = nil

	err := inv.Validate()

	var zerr *model.Error
	require.ErrorAs(t, err, &zerr)
	assert.Contains(t, zerr.Fields, "items")
}

func TestInvoiceValidate_MissingItemFields(t *testing.T) {
	inv := sampleInvoice()
	inv.Items[0].Quantity = decimal.NullDecimal{}
	inv.Items[0].TaxAmount = decimal.NullDecimal{}

	err := inv.Validate()

	var zerr *model.Error
	require.ErrorAs(t, err, &zerr)
	assert.ElementsMatch(t, []string{"items[0].quantity", "items[0].taxAmount"}, zerr.Fields)
}

func TestInvoiceValidate_ZeroItemValueIsAcceptable(t *testing.T) {
	inv := sampleInvoice()
	// An explicit zero is present, only absence is a violation.
	inv.Items[0].TaxAmount = money.Null(0)
	inv.Items[0].TaxRate = money.Null(0)

	assert.NoError(t, inv.Validate())
}

func TestCertificateInfoValidate(t *testing.T) {
	tests := []struct {
		name    string
		cert    model.CertificateInfo
		wantErr bool
		fields  []string
	}{
		{
			name: "valid compliance",
			cert: model.CertificateInfo{CertificateID: "123", Type: model.CertTypeCompliance},
		},
		{
			name: "valid production",
			cert: model.CertificateInfo{CertificateID: "123", Type: model.CertTypeProduction},
		},
		{
			name:    "missing both",
			cert:    model.CertificateInfo{},
			wantErr: true,
			fields:  []string{"certificateId", "type"},
		},
		{
			name:    "bad type",
			cert:    model.CertificateInfo{CertificateID: "123", Type: "staging"},
			wantErr: true,
			fields:  []string{"type"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cert.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var zerr *model.Error
			require.ErrorAs(t, err, &zerr)
			assert.ElementsMatch(t, tt.fields, zerr.Fields)
		})
	}
}

func TestInvoice_TotalsConsistentWithItems(t *testing.T) {
	inv := sampleInvoice()

	var itemTotal, itemTax decimal.Decimal
	for _, item := range inv.Items {
		itemTotal = itemTotal.Add(item.TotalAmount.Decimal)
		itemTax = itemTax.Add(item.TaxAmount.Decimal)
	}

	assert.True(t, inv.TotalAmount.Equal(itemTotal))
	assert.True(t, inv.VATAmount.Equal(itemTax))
}
