package xmlgen

import (
	"strconv"

	"github.com/beevik/etree"

	"github.com/rezonia/zatca-phase2/internal/model"
)

// RenderCreditNote renders a credit note into its UBL XML form. The
// document embeds a billing reference back to the original invoice and
// serializes every monetary amount as its absolute value, per the
// authority's credit note profile.
func (r *Renderer) RenderCreditNote(cn *model.CreditNote) (string, error) {
	r.log.Debug().
		Str("creditNoteNumber", cn.InvoiceNumber).
		Str("originalInvoiceNumber", cn.OriginalNumber).
		Msg("generating credit note XML")

	if err := cn.Validate(); err != nil {
		return "", err
	}
	if err := ensureIdentifiers(&cn.UUID, &cn.Counter); err != nil {
		return "", model.NewError(model.CodeXMLGeneration, "failed to generate credit note identifiers", err)
	}

	doc, root := newDocument("CreditNote", nsCreditNote)

	addText(root, "cbc:UBLVersionID", "2.1")
	addText(root, "cbc:ProfileID", "reporting:1.0")
	addText(root, "cbc:ID", cn.InvoiceNumber)
	addText(root, "cbc:UUID", cn.UUID)
	addText(root, "cbc:IssueDate", formatDate(cn.IssueDate))
	addText(root, "cbc:IssueTime", formatTime(cn.IssueDate))
	addText(root, "cbc:CreditNoteTypeCode", creditNoteTypeCode)
	addText(root, "cbc:DocumentCurrencyCode", currencyCode)
	addText(root, "cbc:TaxCurrencyCode", currencyCode)

	note := cn.Reason
	if note == "" {
		note = "Credit note for invoice " + cn.OriginalNumber
	}
	addText(root, "cbc:Note", note)

	counterRef := root.CreateElement("cac:AdditionalDocumentReference")
	addText(counterRef, "cbc:ID", "ICV")
	addText(counterRef, "cbc:UUID", cn.Counter)

	previousRef := root.CreateElement("cac:AdditionalDocumentReference")
	addText(previousRef, "cbc:ID", "PIH")
	addText(previousRef, "cbc:DocumentDescription", "Credit note for invoice "+cn.OriginalNumber)

	billing := root.CreateElement("cac:BillingReference")
	docRef := billing.CreateElement("cac:InvoiceDocumentReference")
	addText(docRef, "cbc:ID", cn.OriginalNumber)
	addText(docRef, "cbc:UUID", cn.OriginalUUID)
	addText(docRef, "cbc:IssueDate", formatDate(cn.OriginalIssueDate))

	addParty(root, "cac:AccountingSupplierParty", party{
		taxNumber:  cn.SupplierTaxNumber,
		name:       cn.SupplierName,
		street:     cn.SupplierStreet,
		building:   cn.SupplierBuilding,
		city:       cn.SupplierCity,
		postalCode: cn.SupplierPostalCode,
		region:     cn.SupplierRegion,
	})
	addParty(root, "cac:AccountingCustomerParty", party{
		taxNumber:  orDefault(cn.CustomerTaxNumber, "NA"),
		name:       cn.CustomerName,
		street:     cn.CustomerStreet,
		building:   cn.CustomerBuilding,
		city:       cn.CustomerCity,
		postalCode: cn.CustomerPostalCode,
		region:     cn.CustomerRegion,
	})

	taxable := cn.TotalAmount.Sub(cn.VATAmount).Abs()
	addTaxTotal(root, taxable, cn.VATAmount.Abs())
	addMonetaryTotal(root, taxable, cn.TotalAmount.Abs())

	for i, item := range cn.Items {
		addCreditNoteLine(root, i, item)
	}

	xml, err := serialize(doc)
	if err != nil {
		return "", model.NewError(model.CodeXMLGeneration, "failed to serialize credit note XML", err)
	}

	r.log.Debug().Msg("credit note XML generated")
	return xml, nil
}

func addCreditNoteLine(root *etree.Element, index int, item model.LineItem) {
	line := root.CreateElement("cac:CreditNoteLine")
	addText(line, "cbc:ID", strconv.Itoa(index+1))

	qty := line.CreateElement("cbc:CreditedQuantity")
	qty.CreateAttr("unitCode", orDefault(item.UnitCode, "EA"))
	qty.SetText(item.Quantity.Decimal.Abs().String())

	extension := item.Quantity.Decimal.Mul(item.UnitPrice.Decimal).Abs()
	addAmount(line, "cbc:LineExtensionAmount", extension)

	taxTotal := line.CreateElement("cac:TaxTotal")
	addAmount(taxTotal, "cbc:TaxAmount", item.TaxAmount.Decimal.Abs())
	rounding := item.Quantity.Decimal.Mul(item.UnitPrice.Decimal).Add(item.TaxAmount.Decimal).Abs()
	addAmount(taxTotal, "cbc:RoundingAmount", rounding)

	addLineItemDetail(line, item)
}
