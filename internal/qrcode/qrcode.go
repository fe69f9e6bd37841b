package qrcode

import (
	"encoding/base64"

	qr "github.com/skip2/go-qrcode"

	"github.com/rezonia/zatca-phase2/internal/model"
)

// defaultSize is the rendered QR image edge in pixels
const defaultSize = 200

// Payload returns the base64 encoding of the invoice's TLV summary,
// the sole content embedded in the QR image.
func Payload(inv *model.Invoice) (string, error) {
	tlv, err := EncodeTLV(inv)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(tlv), nil
}

// Generate renders the invoice summary as a PNG QR code and returns it
// as a data URL, ready for embedding in a printed or displayed invoice.
func Generate(inv *model.Invoice) (string, error) {
	payload, err := Payload(inv)
	if err != nil {
		return "", err
	}

	png, err := qr.Encode(payload, qr.Medium, defaultSize)
	if err != nil {
		return "", model.NewError(model.CodeQRCodeGeneration, "failed to encode QR image", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
