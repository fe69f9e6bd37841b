package signing

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/rs/zerolog"
	dsig "github.com/russellhaering/goxmldsig"

	"github.com/rezonia/zatca-phase2/internal/model"
)

// Key material kinds understood by the key store
const (
	kindPrivate = "private"
)

// KeyStore loads PEM-encoded key material by certificate id and kind.
// The file-backed store in internal/certstore satisfies this.
type KeyStore interface {
	Load(ctx context.Context, certificateID, kind string) ([]byte, error)
}

// Signer applies enveloped XMLDSig signatures to rendered documents
type Signer struct {
	store KeyStore
	log   zerolog.Logger
}

// Option configures a Signer
type Option func(*Signer)

// WithLogger sets the signer's logger
func WithLogger(log zerolog.Logger) Option {
	return func(s *Signer) {
		s.log = log
	}
}

// NewSigner creates a signer backed by the given key store
func NewSigner(store KeyStore, opts ...Option) *Signer {
	s := &Signer{store: store, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sign embeds an enveloped signature into the rendered document. The
// signed reference targets the Invoice or CreditNote element itself,
// whichever the document carries, so a future envelope format can nest
// them without changing the signature semantics. Canonicalization is
// exclusive c14n, the digest SHA-256, the signature RSA-SHA256, and the
// X.509 certificate is embedded in KeyInfo without its PEM armor.
func (s *Signer) Sign(ctx context.Context, documentXML string, cert model.CertificateInfo) (string, error) {
	s.log.Debug().Str("certificateId", cert.CertificateID).Msg("signing document XML")

	key, certDER, err := s.loadKeyPair(ctx, cert)
	if err != nil {
		return "", err
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromString(documentXML); err != nil {
		return "", model.NewError(model.CodeSigning, "failed to parse document for signing", err)
	}

	target := findSignTarget(doc.Root())
	if target == nil {
		return "", model.NewError(model.CodeSigning, "document has no Invoice or CreditNote element", nil)
	}

	signCtx := dsig.NewDefaultSigningContext(&memoryKeyStore{key: key, cert: certDER})
	signCtx.Hash = crypto.SHA256
	signCtx.Canonicalizer = dsig.MakeC14N10ExclusiveCanonicalizerWithPrefixList("")

	signed, err := signCtx.SignEnveloped(target)
	if err != nil {
		return "", model.NewError(model.CodeSigning, "failed to compute enveloped signature", err)
	}

	if parent := target.Parent(); parent != nil {
		idx := target.Index()
		parent.RemoveChild(target)
		parent.InsertChildAt(idx, signed)
	} else {
		doc.SetRoot(signed)
	}

	out, err := doc.WriteToString()
	if err != nil {
		return "", model.NewError(model.CodeSigning, "failed to serialize signed document", err)
	}

	s.log.Debug().Msg("document XML signed")
	return out, nil
}

// loadKeyPair retrieves and parses the private key and certificate
func (s *Signer) loadKeyPair(ctx context.Context, cert model.CertificateInfo) (*rsa.PrivateKey, []byte, error) {
	keyPEM, err := s.store.Load(ctx, cert.CertificateID, kindPrivate)
	if err != nil {
		return nil, nil, model.NewError(model.CodeSigning, "failed to load private key", err)
	}
	certPEM, err := s.store.Load(ctx, cert.CertificateID, string(cert.Type))
	if err != nil {
		return nil, nil, model.NewError(model.CodeSigning, "failed to load signing certificate", err)
	}

	key, err := parseRSAPrivateKey(keyPEM)
	if err != nil {
		return nil, nil, model.NewError(model.CodeSigning, "failed to parse private key", err)
	}

	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, nil, model.NewError(model.CodeSigning, "signing certificate is not valid PEM", nil)
	}
	if _, err := x509.ParseCertificate(block.Bytes); err != nil {
		return nil, nil, model.NewError(model.CodeSigning, "failed to parse signing certificate", err)
	}

	return key, block.Bytes, nil
}

func parseRSAPrivateKey(pemData []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("private key is not RSA")
		}
		return rsaKey, nil
	}

	return x509.ParsePKCS1PrivateKey(block.Bytes)
}

// findSignTarget locates the element the enveloped reference covers.
// CreditNote wins over Invoice when both somehow appear.
func findSignTarget(root *etree.Element) *etree.Element {
	if root == nil {
		return nil
	}
	if el := findByLocalName(root, "CreditNote"); el != nil {
		return el
	}
	return findByLocalName(root, "Invoice")
}

func findByLocalName(el *etree.Element, localName string) *etree.Element {
	tag := el.Tag
	if idx := strings.IndexByte(tag, ':'); idx >= 0 {
		tag = tag[idx+1:]
	}
	if tag == localName {
		return el
	}
	for _, child := range el.ChildElements() {
		if found := findByLocalName(child, localName); found != nil {
			return found
		}
	}
	return nil
}

// memoryKeyStore satisfies goxmldsig's keystore interface with key
// material already held in memory.
type memoryKeyStore struct {
	key  *rsa.PrivateKey
	cert []byte
}

func (m *memoryKeyStore) GetKeyPair() (*rsa.PrivateKey, []byte, error) {
	return m.key, m.cert, nil
}
