package certstore

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"strconv"
	"time"

	"github.com/rezonia/zatca-phase2/internal/model"
)

// Organization holds the subject fields of a certificate request
type Organization struct {
	Name   string `json:"name"`
	City   string `json:"city"`
	Region string `json:"region"`
	Email  string `json:"email"`
}

// CSRResult carries the generated request and key pair. All three PEM
// documents are also persisted through the store under CertificateID.
type CSRResult struct {
	CertificateID string `json:"certificateId"`
	CSR           string `json:"csr"`
	PrivateKey    string `json:"privateKey"`
	PublicKey     string `json:"publicKey"`
}

// GenerateCSR creates an RSA-2048 key pair and a certificate signing
// request for onboarding with the authority, persisting the CSR and
// both keys in the store.
func GenerateCSR(ctx context.Context, store *FileStore, org Organization) (*CSRResult, error) {
	store.log.Info().Str("organization", org.Name).Msg("generating certificate signing request")

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, model.NewError(model.CodeCertGeneration, "failed to generate RSA key pair", err)
	}

	template := &x509.CertificateRequest{
		Subject: pkix.Name{
			CommonName:         org.Name,
			Organization:       []string{org.Name},
			OrganizationalUnit: []string{"IT Department"},
			Locality:           []string{org.City},
			Province:           []string{org.Region},
			Country:            []string{"SA"},
		},
		EmailAddresses:     []string{org.Email},
		SignatureAlgorithm: x509.SHA256WithRSA,
	}

	csrDER, err := x509.CreateCertificateRequest(rand.Reader, template, key)
	if err != nil {
		return nil, model.NewError(model.CodeCertGeneration, "failed to create certificate request", err)
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, model.NewError(model.CodeCertGeneration, "failed to encode private key", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, model.NewError(model.CodeCertGeneration, "failed to encode public key", err)
	}

	result := &CSRResult{
		CertificateID: strconv.FormatInt(time.Now().UnixMilli(), 10),
		CSR:           encodePEM("CERTIFICATE REQUEST", csrDER),
		PrivateKey:    encodePEM("PRIVATE KEY", keyDER),
		PublicKey:     encodePEM("PUBLIC KEY", pubDER),
	}

	if err := store.Store(ctx, result.CertificateID, []byte(result.CSR), KindCSR); err != nil {
		return nil, err
	}
	if err := store.Store(ctx, result.CertificateID, []byte(result.PrivateKey), KindPrivate); err != nil {
		return nil, err
	}
	if err := store.Store(ctx, result.CertificateID, []byte(result.PublicKey), KindPublic); err != nil {
		return nil, err
	}

	store.log.Info().Str("certificateId", result.CertificateID).Msg("certificate signing request generated")
	return result, nil
}

func encodePEM(blockType string, der []byte) string {
	return string(pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der}))
}
