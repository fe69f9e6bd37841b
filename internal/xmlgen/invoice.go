package xmlgen

import (
	"strconv"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rezonia/zatca-phase2/internal/model"
	"github.com/rezonia/zatca-phase2/internal/money"
)

// The authority distinguishes the standard profile below this amount.
// This is a document-profile constant, separate from the configurable
// routing threshold.
var profileBoundary = decimal.NewFromInt(1000)

// RenderInvoice renders an invoice into its UBL XML form. The record's
// UUID and counter value are generated on demand and written back, so
// the later stages and repeated renders observe the same identifiers.
func (r *Renderer) RenderInvoice(inv *model.Invoice) (string, error) {
	r.log.Debug().Str("invoiceNumber", inv.InvoiceNumber).Msg("generating invoice XML")

	if err := inv.Validate(); err != nil {
		return "", err
	}
	if err := ensureIdentifiers(&inv.UUID, &inv.Counter); err != nil {
		return "", model.NewError(model.CodeXMLGeneration, "failed to generate invoice identifiers", err)
	}

	doc, root := newDocument("Invoice", nsInvoice)

	addText(root, "cbc:UBLVersionID", "2.1")
	profile := "standard:reporting:1.0"
	if inv.TotalAmount.GreaterThanOrEqual(profileBoundary) {
		profile = "reporting:1.0"
	}
	addText(root, "cbc:ProfileID", profile)
	addText(root, "cbc:ID", inv.InvoiceNumber)
	addText(root, "cbc:UUID", inv.UUID)
	addText(root, "cbc:IssueDate", formatDate(inv.IssueDate))
	addText(root, "cbc:IssueTime", formatTime(inv.IssueDate))
	addText(root, "cbc:InvoiceTypeCode", invoiceTypeCode)
	addText(root, "cbc:DocumentCurrencyCode", currencyCode)
	addText(root, "cbc:TaxCurrencyCode", currencyCode)

	counterRef := root.CreateElement("cac:AdditionalDocumentReference")
	addText(counterRef, "cbc:ID", "ICV")
	addText(counterRef, "cbc:UUID", inv.Counter)

	addParty(root, "cac:AccountingSupplierParty", party{
		taxNumber:  inv.SupplierTaxNumber,
		name:       inv.SupplierName,
		street:     inv.SupplierStreet,
		building:   inv.SupplierBuilding,
		city:       inv.SupplierCity,
		postalCode: inv.SupplierPostalCode,
		region:     inv.SupplierRegion,
	})
	addParty(root, "cac:AccountingCustomerParty", party{
		taxNumber:  orDefault(inv.CustomerTaxNumber, "NA"),
		name:       inv.CustomerName,
		street:     inv.CustomerStreet,
		building:   inv.CustomerBuilding,
		city:       inv.CustomerCity,
		postalCode: inv.CustomerPostalCode,
		region:     inv.CustomerRegion,
	})

	taxable := inv.TotalAmount.Sub(inv.VATAmount)
	addTaxTotal(root, taxable, inv.VATAmount)
	addMonetaryTotal(root, taxable, inv.TotalAmount)

	for i, item := range inv.Items {
		addInvoiceLine(root, i, item)
	}

	xml, err := serialize(doc)
	if err != nil {
		return "", model.NewError(model.CodeXMLGeneration, "failed to serialize invoice XML", err)
	}

	r.log.Debug().Msg("invoice XML generated")
	return xml, nil
}

func ensureIdentifiers(id, counter *string) error {
	if *id == "" {
		*id = uuid.NewString()
	}
	if *counter == "" {
		c, err := newCounter()
		if err != nil {
			return err
		}
		*counter = c
	}
	return nil
}

func addInvoiceLine(root *etree.Element, index int, item model.LineItem) {
	line := root.CreateElement("cac:InvoiceLine")
	addText(line, "cbc:ID", strconv.Itoa(index+1))

	qty := line.CreateElement("cbc:InvoicedQuantity")
	qty.CreateAttr("unitCode", orDefault(item.UnitCode, "EA"))
	qty.SetText(item.Quantity.Decimal.String())

	extension := item.Quantity.Decimal.Mul(item.UnitPrice.Decimal)
	addAmount(line, "cbc:LineExtensionAmount", extension)

	taxTotal := line.CreateElement("cac:TaxTotal")
	addAmount(taxTotal, "cbc:TaxAmount", item.TaxAmount.Decimal)
	addAmount(taxTotal, "cbc:RoundingAmount", extension.Add(item.TaxAmount.Decimal))

	addLineItemDetail(line, item)
}

// addLineItemDetail writes the shared Item/Price tail of a line
func addLineItemDetail(line *etree.Element, item model.LineItem) {
	detail := line.CreateElement("cac:Item")
	addText(detail, "cbc:Name", item.Name)
	cat := detail.CreateElement("cac:ClassifiedTaxCategory")
	addText(cat, "cbc:ID", "S")
	addText(cat, "cbc:Percent", money.Format(item.TaxRate.Decimal))
	scheme := cat.CreateElement("cac:TaxScheme")
	addText(scheme, "cbc:ID", "VAT")

	price := line.CreateElement("cac:Price")
	addAmount(price, "cbc:PriceAmount", item.UnitPrice.Decimal)
}
