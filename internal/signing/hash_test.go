package signing_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rezonia/zatca-phase2/internal/signing"
)

var hexDigest = regexp.MustCompile(`^[a-f0-9]{64}$`)

func TestHash_Format(t *testing.T) {
	digest := signing.Hash("<Invoice><cbc:ID>INV-001</cbc:ID></Invoice>")

	assert.Len(t, digest, 64)
	assert.Regexp(t, hexDigest, digest)
}

func TestHash_PureFunctionOfBytes(t *testing.T) {
	xml := "<Invoice><cbc:ID>INV-001</cbc:ID></Invoice>"

	assert.Equal(t, signing.Hash(xml), signing.Hash(xml))
	assert.NotEqual(t, signing.Hash(xml), signing.Hash(xml+" "))
}

func TestHash_KnownVector(t *testing.T) {
	// sha256("abc")
	assert.Equal(t,
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		signing.Hash("abc"))
}
