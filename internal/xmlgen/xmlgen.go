// Package xmlgen renders invoices and credit notes into the UBL 2.1
// document format accepted by the tax authority.
package xmlgen

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/beevik/etree"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rezonia/zatca-phase2/internal/money"
)

// UBL namespaces
const (
	nsInvoice    = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	nsCreditNote = "urn:oasis:names:specification:ubl:schema:xsd:CreditNote-2"
	nsCAC        = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	nsCBC        = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
	nsEXT        = "urn:oasis:names:specification:ubl:schema:xsd:CommonExtensionComponents-2"
)

// Document type codes
const (
	invoiceTypeCode    = "388"
	creditNoteTypeCode = "381"
)

const currencyCode = "SAR"

// Renderer converts invoice records into UBL XML strings
type Renderer struct {
	log zerolog.Logger
}

// Option configures a Renderer
type Option func(*Renderer)

// WithLogger sets the renderer's logger
func WithLogger(log zerolog.Logger) Option {
	return func(r *Renderer) {
		r.log = log
	}
}

// NewRenderer creates a renderer. Without options it stays silent.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// newCounter produces the invoice counter value: 4 random bytes, hex
func newCounter() (string, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf[:]), nil
}

func formatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func formatTime(t time.Time) string {
	return t.UTC().Format("15:04:05")
}

func addText(parent *etree.Element, tag, text string) *etree.Element {
	el := parent.CreateElement(tag)
	el.SetText(text)
	return el
}

// addAmount writes a two-decimal monetary element with the fixed
// currency attribute.
func addAmount(parent *etree.Element, tag string, amount decimal.Decimal) *etree.Element {
	el := parent.CreateElement(tag)
	el.CreateAttr("currencyID", currencyCode)
	el.SetText(money.Format(amount))
	return el
}

// party carries the identity fields of one document party. Address
// pieces fall back to the authority's sandbox placeholders when empty.
type party struct {
	taxNumber  string
	name       string
	street     string
	building   string
	city       string
	postalCode string
	region     string
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func addParty(parent *etree.Element, tag string, p party) {
	container := parent.CreateElement(tag)
	el := container.CreateElement("cac:Party")

	ident := el.CreateElement("cac:PartyIdentification")
	addText(ident, "cbc:ID", p.taxNumber)

	name := el.CreateElement("cac:PartyName")
	addText(name, "cbc:Name", p.name)

	addr := el.CreateElement("cac:PostalAddress")
	addText(addr, "cbc:StreetName", orDefault(p.street, "Street"))
	addText(addr, "cbc:BuildingNumber", orDefault(p.building, "1234"))
	addText(addr, "cbc:CityName", orDefault(p.city, "City"))
	addText(addr, "cbc:PostalZone", orDefault(p.postalCode, "12345"))
	addText(addr, "cbc:CountrySubentity", orDefault(p.region, "Region"))
	country := addr.CreateElement("cac:Country")
	addText(country, "cbc:IdentificationCode", "SA")

	scheme := el.CreateElement("cac:PartyTaxScheme")
	addText(scheme, "cbc:CompanyID", p.taxNumber)
	tax := scheme.CreateElement("cac:TaxScheme")
	addText(tax, "cbc:ID", "VAT")
}

// addTaxTotal writes the document-level tax block. Amounts are passed
// already adjusted (absolute for credit notes).
func addTaxTotal(parent *etree.Element, taxable, vat decimal.Decimal) {
	total := parent.CreateElement("cac:TaxTotal")
	addAmount(total, "cbc:TaxAmount", vat)

	sub := total.CreateElement("cac:TaxSubtotal")
	addAmount(sub, "cbc:TaxableAmount", taxable)
	addAmount(sub, "cbc:TaxAmount", vat)

	cat := sub.CreateElement("cac:TaxCategory")
	addText(cat, "cbc:ID", "S")
	addText(cat, "cbc:Percent", "15.00")
	scheme := cat.CreateElement("cac:TaxScheme")
	addText(scheme, "cbc:ID", "VAT")
}

func addMonetaryTotal(parent *etree.Element, taxable, total decimal.Decimal) {
	el := parent.CreateElement("cac:LegalMonetaryTotal")
	addAmount(el, "cbc:LineExtensionAmount", taxable)
	addAmount(el, "cbc:TaxExclusiveAmount", taxable)
	addAmount(el, "cbc:TaxInclusiveAmount", total)
	addAmount(el, "cbc:PayableAmount", total)
}

func serialize(doc *etree.Document) (string, error) {
	doc.WriteSettings.CanonicalAttrVal = false
	return doc.WriteToString()
}

func newDocument(rootTag, ns string) (*etree.Document, *etree.Element) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement(rootTag)
	root.CreateAttr("xmlns", ns)
	root.CreateAttr("xmlns:cac", nsCAC)
	root.CreateAttr("xmlns:cbc", nsCBC)
	root.CreateAttr("xmlns:ext", nsEXT)
	return doc, root
}
