package processor_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/zatca-phase2/internal/model"
	"github.com/rezonia/zatca-phase2/internal/money"
	"github.com/rezonia/zatca-phase2/internal/processor"
)

// fakeTransport records calls and returns canned responses
type fakeTransport struct {
	clearanceCalls []submissionCall
	reportingCalls []submissionCall
	statusCalls    []string

	clearanceErr error
	reportingErr error
	statusErr    error
	status       string
}

type submissionCall struct {
	hash     string
	uuid     string
	document string
	token    string
}

func (f *fakeTransport) SubmitClearance(_ context.Context, invoiceHash, uuid, document, token string) (*model.SubmissionResponse, error) {
	f.clearanceCalls = append(f.clearanceCalls, submissionCall{invoiceHash, uuid, document, token})
	if f.clearanceErr != nil {
		return nil, f.clearanceErr
	}
	return &model.SubmissionResponse{RequestID: "clearance-req", ClearanceStatus: "CLEARED"}, nil
}

func (f *fakeTransport) SubmitReporting(_ context.Context, invoiceHash, uuid, document, token string) (*model.SubmissionResponse, error) {
	f.reportingCalls = append(f.reportingCalls, submissionCall{invoiceHash, uuid, document, token})
	if f.reportingErr != nil {
		return nil, f.reportingErr
	}
	return &model.SubmissionResponse{RequestID: "reporting-req", ReportingStatus: "REPORTED"}, nil
}

func (f *fakeTransport) CheckStatus(_ context.Context, requestID string) (*model.StatusResponse, error) {
	f.statusCalls = append(f.statusCalls, requestID)
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return &model.StatusResponse{RequestID: requestID, Status: f.status}, nil
}

// mapKeyStore serves generated key material from memory
type mapKeyStore map[string][]byte

func (m mapKeyStore) Load(_ context.Context, certificateID, kind string) ([]byte, error) {
	content, ok := m[kind+"_"+certificateID]
	if !ok {
		return nil, model.NewError(model.CodeCertLoading,
			fmt.Sprintf("failed to load %s certificate", kind), nil)
	}
	return content, nil
}

func newKeyStore(t *testing.T) mapKeyStore {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "Test Supplier"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	return mapKeyStore{
		"private_c1":    pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}),
		"compliance_c1": pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER}),
	}
}

func testCert() model.CertificateInfo {
	return model.CertificateInfo{
		CertificateID: "c1",
		Type:          model.CertTypeCompliance,
		Token:         "bearer-token",
	}
}

func testInvoice(total, vat float64) *model.Invoice {
	return &model.Invoice{
		InvoiceNumber:     "INV-001",
		IssueDate:         time.Date(2023, 4, 15, 12, 0, 0, 0, time.UTC),
		SupplierName:      "Saudi Trading Co",
		SupplierTaxNumber: "310122393500003",
		CustomerName:      "Acme LLC",
		TotalAmount:       money.FromFloat(total),
		VATAmount:         money.FromFloat(vat),
		Items: []model.LineItem{
			{
				Name:        "Consulting services",
				Quantity:    money.Null(1),
				UnitPrice:   money.Null(total - vat),
				TaxRate:     money.Null(15),
				TaxAmount:   money.Null(vat),
				TotalAmount: money.Null(total),
			},
		},
	}
}

func TestSubmitInvoice_ClearanceAboveThreshold(t *testing.T) {
	transport := &fakeTransport{}
	submitter := processor.NewSubmitter(transport, newKeyStore(t))

	inv := testInvoice(1150, 150)
	resp, err := submitter.SubmitInvoice(context.Background(), inv, testCert())
	require.NoError(t, err)

	require.Len(t, transport.clearanceCalls, 1)
	assert.Empty(t, transport.reportingCalls)
	assert.Equal(t, "clearance-req", resp.RequestID)

	assert.Equal(t, model.StatusSubmitted, inv.Status)
	assert.Equal(t, model.StatusSubmitted, inv.ClearanceStatus)
	assert.Same(t, resp, inv.Response)

	call := transport.clearanceCalls[0]
	assert.Equal(t, inv.Hash, call.hash)
	assert.Equal(t, inv.UUID, call.uuid)
	assert.Equal(t, "bearer-token", call.token)

	decoded, err := base64.StdEncoding.DecodeString(call.document)
	require.NoError(t, err)
	assert.Equal(t, inv.SignedXML, string(decoded))
}

func TestSubmitInvoice_ReportingBelowThreshold(t *testing.T) {
	transport := &fakeTransport{}
	submitter := processor.NewSubmitter(transport, newKeyStore(t))

	inv := testInvoice(575, 75)
	resp, err := submitter.SubmitInvoice(context.Background(), inv, testCert())
	require.NoError(t, err)

	require.Len(t, transport.reportingCalls, 1)
	assert.Empty(t, transport.clearanceCalls)
	assert.Equal(t, "reporting-req", resp.RequestID)

	assert.Equal(t, model.StatusSubmitted, inv.Status)
	assert.Empty(t, inv.ClearanceStatus)
}

func TestSubmitInvoice_ThresholdIsInclusive(t *testing.T) {
	transport := &fakeTransport{}
	submitter := processor.NewSubmitter(transport, newKeyStore(t))

	inv := testInvoice(1000, 130.43)
	_, err := submitter.SubmitInvoice(context.Background(), inv, testCert())
	require.NoError(t, err)

	assert.Len(t, transport.clearanceCalls, 1)
	assert.Empty(t, transport.reportingCalls)
}

func TestSubmitInvoice_RoutesOnAbsoluteAmount(t *testing.T) {
	transport := &fakeTransport{}
	submitter := processor.NewSubmitter(transport, newKeyStore(t))

	inv := testInvoice(1150, 150)
	inv.TotalAmount = inv.TotalAmount.Neg()
	inv.VATAmount = inv.VATAmount.Neg()

	_, err := submitter.SubmitInvoice(context.Background(), inv, testCert())
	require.NoError(t, err)
	assert.Len(t, transport.clearanceCalls, 1)
}

func TestSubmitInvoice_CustomThreshold(t *testing.T) {
	transport := &fakeTransport{}
	submitter := processor.NewSubmitter(transport, newKeyStore(t),
		processor.WithThreshold(money.FromFloat(500)))

	_, err := submitter.SubmitInvoice(context.Background(), testInvoice(575, 75), testCert())
	require.NoError(t, err)
	assert.Len(t, transport.clearanceCalls, 1)
}

func TestSubmitInvoice_ReusesDerivedFields(t *testing.T) {
	transport := &fakeTransport{}
	submitter := processor.NewSubmitter(transport, newKeyStore(t))

	inv := testInvoice(1150, 150)
	_, err := submitter.SubmitInvoice(context.Background(), inv, testCert())
	require.NoError(t, err)

	xml, hash, signed := inv.XML, inv.Hash, inv.SignedXML
	require.NotEmpty(t, xml)
	require.NotEmpty(t, hash)
	require.NotEmpty(t, signed)

	// A second submission reuses the cached artifacts and calls the
	// transport again.
	_, err = submitter.SubmitInvoice(context.Background(), inv, testCert())
	require.NoError(t, err)

	assert.Equal(t, xml, inv.XML)
	assert.Equal(t, hash, inv.Hash)
	assert.Equal(t, signed, inv.SignedXML)
	assert.Len(t, transport.clearanceCalls, 2)
}

func TestSubmitInvoice_ValidationFailureBeforeTransport(t *testing.T) {
	transport := &fakeTransport{}
	submitter := processor.NewSubmitter(transport, newKeyStore(t))

	inv := testInvoice(1150, 150)
	inv.SupplierName = ""

	_, err := submitter.SubmitInvoice(context.Background(), inv, testCert())
	require.Error(t, err)
	assert.True(t, model.HasCode(err, model.CodeValidation))
	assert.Empty(t, transport.clearanceCalls)
	assert.Empty(t, transport.reportingCalls)
}

func TestSubmitInvoice_InvalidCertificate(t *testing.T) {
	submitter := processor.NewSubmitter(&fakeTransport{}, newKeyStore(t))

	cert := testCert()
	cert.Type = "staging"

	_, err := submitter.SubmitInvoice(context.Background(), testInvoice(1150, 150), cert)
	require.Error(t, err)
	assert.True(t, model.HasCode(err, model.CodeValidation))
}

func TestSubmitInvoice_TransportFailureKeepsStatus(t *testing.T) {
	transport := &fakeTransport{
		clearanceErr: model.NewError(model.CodeAPIConnection, "no response from authority API", nil),
	}
	submitter := processor.NewSubmitter(transport, newKeyStore(t))

	inv := testInvoice(1150, 150)
	_, err := submitter.SubmitInvoice(context.Background(), inv, testCert())
	require.Error(t, err)
	assert.True(t, model.HasCode(err, model.CodeAPIConnection))

	assert.Empty(t, inv.Status)
	assert.Empty(t, inv.ClearanceStatus)
	assert.Nil(t, inv.Response)

	// Derived artifacts survive the failed attempt.
	assert.NotEmpty(t, inv.SignedXML)
}

func TestCreateCreditNote_AlwaysReports(t *testing.T) {
	transport := &fakeTransport{}
	submitter := processor.NewSubmitter(transport, newKeyStore(t))

	original := testInvoice(1150, 150)
	cn, resp, err := submitter.CreateCreditNote(context.Background(), original, "product returned", testCert())
	require.NoError(t, err)

	require.Len(t, transport.reportingCalls, 1)
	assert.Empty(t, transport.clearanceCalls, "credit notes never travel the clearance flow")

	assert.Equal(t, "reporting-req", resp.RequestID)
	assert.Equal(t, model.StatusSubmitted, cn.Status)
	assert.Equal(t, "INV-001", cn.OriginalNumber)
	assert.True(t, cn.TotalAmount.IsNegative())
	assert.Contains(t, cn.SignedXML, "CreditNote")

	// The original record is untouched.
	assert.Empty(t, original.Status)
	assert.True(t, original.TotalAmount.IsPositive())
}

func TestCheckStatus(t *testing.T) {
	transport := &fakeTransport{status: "CLEARED"}
	submitter := processor.NewSubmitter(transport, newKeyStore(t))

	inv := testInvoice(1150, 150)
	inv.Response = &model.SubmissionResponse{RequestID: "req-9"}

	status, err := submitter.CheckStatus(context.Background(), inv)
	require.NoError(t, err)

	assert.Equal(t, "CLEARED", status.Status)
	assert.Equal(t, model.SubmissionStatus("CLEARED"), inv.Status)
	assert.Equal(t, []string{"req-9"}, transport.statusCalls)
}

func TestCheckStatus_RequiresRequestID(t *testing.T) {
	transport := &fakeTransport{}
	submitter := processor.NewSubmitter(transport, newKeyStore(t))

	_, err := submitter.CheckStatus(context.Background(), testInvoice(1150, 150))
	require.Error(t, err)
	assert.True(t, model.HasCode(err, model.CodeValidation))
	assert.Empty(t, transport.statusCalls)
}

func TestCheckStatus_EmptyStatusBecomesUnknown(t *testing.T) {
	transport := &fakeTransport{status: ""}
	submitter := processor.NewSubmitter(transport, newKeyStore(t))

	inv := testInvoice(1150, 150)
	inv.Response = &model.SubmissionResponse{RequestID: "req-9"}

	_, err := submitter.CheckStatus(context.Background(), inv)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionStatus("unknown"), inv.Status)
}

func TestSubmitInvoice_SignedDocumentCarriesSignature(t *testing.T) {
	transport := &fakeTransport{}
	submitter := processor.NewSubmitter(transport, newKeyStore(t))

	inv := testInvoice(575, 75)
	_, err := submitter.SubmitInvoice(context.Background(), inv, testCert())
	require.NoError(t, err)

	assert.True(t, strings.Contains(inv.SignedXML, "Signature"))
	assert.NotEqual(t, inv.XML, inv.SignedXML)
}
