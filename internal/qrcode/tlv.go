// Package qrcode builds the TLV-encoded invoice summary and renders it
// as a scannable QR image.
package qrcode

import (
	"fmt"
	"time"

	"github.com/rezonia/zatca-phase2/internal/model"
	"github.com/rezonia/zatca-phase2/internal/money"
)

// TLV field tags, in their fixed encoding order
const (
	TagSellerName  byte = 1
	TagVATNumber   byte = 2
	TagTimestamp   byte = 3
	TagTotalAmount byte = 4
	TagVATAmount   byte = 5
	TagSignature   byte = 6
)

// maxFieldLen is the largest value a single-byte length can declare
const maxFieldLen = 255

// EncodeTLV builds the tag-length-value summary of an invoice. Tags 1-5
// are always present in fixed order; tag 6 is appended only when the
// record carries a signed document.
//
// Tag 6 currently carries the content hash: extracting the DER
// SignatureValue out of the embedded ds:Signature element is still to
// be done, and scanners in the sandbox accept the hash in the interim.
func EncodeTLV(inv *model.Invoice) ([]byte, error) {
	var buf []byte
	var err error

	fields := []struct {
		tag   byte
		value string
	}{
		{TagSellerName, inv.SupplierName},
		{TagVATNumber, inv.SupplierTaxNumber},
		{TagTimestamp, formatTimestamp(inv.IssueDate)},
		{TagTotalAmount, money.Format(inv.TotalAmount)},
		{TagVATAmount, money.Format(inv.VATAmount)},
	}

	for _, f := range fields {
		if buf, err = appendField(buf, f.tag, f.value); err != nil {
			return nil, err
		}
	}

	if inv.SignedXML != "" {
		if buf, err = appendField(buf, TagSignature, inv.Hash); err != nil {
			return nil, err
		}
	}

	return buf, nil
}

// appendField writes one [tag][length][value] triple. Length declares
// the value's byte length, not its rune count, so multi-byte UTF-8 is
// counted correctly; values that cannot fit a single length byte are
// rejected rather than truncated.
func appendField(buf []byte, tag byte, value string) ([]byte, error) {
	raw := []byte(value)
	if len(raw) > maxFieldLen {
		return nil, model.NewError(model.CodeQRCodeGeneration,
			fmt.Sprintf("TLV field %d exceeds %d bytes", tag, maxFieldLen), nil)
	}
	buf = append(buf, tag, byte(len(raw)))
	return append(buf, raw...), nil
}

// formatTimestamp renders the issue timestamp as ISO-8601 UTC without
// fractional seconds.
func formatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format("2006-01-02T15:04:05Z")
}

// Field is one decoded TLV triple
type Field struct {
	Tag   byte
	Value []byte
}

// DecodeTLV parses a TLV buffer back into its fields
func DecodeTLV(data []byte) ([]Field, error) {
	var fields []Field
	for i := 0; i < len(data); {
		if len(data)-i < 2 {
			return nil, model.NewError(model.CodeQRCodeGeneration, "truncated TLV header", nil)
		}
		tag, length := data[i], int(data[i+1])
		i += 2
		if len(data)-i < length {
			return nil, model.NewError(model.CodeQRCodeGeneration,
				fmt.Sprintf("TLV field %d declares %d bytes, %d remain", tag, length, len(data)-i), nil)
		}
		fields = append(fields, Field{Tag: tag, Value: data[i : i+length]})
		i += length
	}
	return fields, nil
}
