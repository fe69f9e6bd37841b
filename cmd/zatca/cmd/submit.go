package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/zatca-phase2/internal/api"
	"github.com/rezonia/zatca-phase2/internal/certstore"
	"github.com/rezonia/zatca-phase2/internal/model"
	"github.com/rezonia/zatca-phase2/internal/processor"
)

var (
	certificateID string
	certType      string
	bearerToken   string
	submitTimeout time.Duration
)

var submitCmd = &cobra.Command{
	Use:   "submit <invoice.json>",
	Short: "Submit an invoice from a JSON file",
	Long: `Render, hash, sign and submit an invoice described in a JSON file.

The routing (clearance vs reporting) follows the configured threshold.

Example:
  zatca submit invoice.json --certificate-id 1712345678 --type compliance --token <bearer>`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().StringVar(&certificateID, "certificate-id", "", "Certificate ID in the store (required)")
	submitCmd.Flags().StringVar(&certType, "type", string(model.CertTypeCompliance), "Certificate type (compliance or production)")
	submitCmd.Flags().StringVar(&bearerToken, "token", "", "Bearer token for submission calls")
	submitCmd.Flags().DurationVar(&submitTimeout, "timeout", 2*time.Minute, "Submission timeout")
	_ = submitCmd.MarkFlagRequired("certificate-id")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read invoice file: %w", err)
	}

	var inv model.Invoice
	if err := json.Unmarshal(data, &inv); err != nil {
		return fmt.Errorf("failed to parse invoice JSON: %w", err)
	}

	store := certstore.NewFileStore(appConfig.CertDir, certstore.WithLogger(logger))
	client := api.NewClient(appConfig.API, api.WithLogger(logger))
	submitter := processor.NewSubmitter(client, store,
		processor.WithThreshold(appConfig.ClearanceThreshold),
		processor.WithLogger(logger),
	)

	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()

	resp, err := submitter.SubmitInvoice(ctx, &inv, model.CertificateInfo{
		CertificateID: certificateID,
		Type:          model.CertificateType(certType),
		Token:         bearerToken,
	})
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(resp)
}
