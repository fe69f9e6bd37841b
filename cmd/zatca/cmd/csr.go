package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rezonia/zatca-phase2/internal/certstore"
)

var org certstore.Organization

var csrCmd = &cobra.Command{
	Use:   "csr",
	Short: "Generate a certificate signing request for onboarding",
	RunE:  runCSR,
}

func init() {
	rootCmd.AddCommand(csrCmd)

	csrCmd.Flags().StringVar(&org.Name, "name", "", "Organization name (required)")
	csrCmd.Flags().StringVar(&org.City, "city", "", "City")
	csrCmd.Flags().StringVar(&org.Region, "region", "", "Region")
	csrCmd.Flags().StringVar(&org.Email, "email", "", "Contact email")
	_ = csrCmd.MarkFlagRequired("name")
}

func runCSR(cmd *cobra.Command, args []string) error {
	store := certstore.NewFileStore(appConfig.CertDir, certstore.WithLogger(logger))

	result, err := certstore.GenerateCSR(context.Background(), store, org)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "CSR and key pair stored under id %s in %s\n",
		result.CertificateID, appConfig.CertDir)

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
