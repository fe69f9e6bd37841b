package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rezonia/zatca-phase2/internal/config"
)

var (
	version = "1.0.0"

	// Global flags
	verbose bool
	certDir string

	appConfig config.Config
	logger    zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "zatca",
	Short: "Prepare and submit tax invoices to the ZATCA e-invoicing platform",
	Long: `zatca prepares tax invoices for the Saudi e-invoicing authority:
it renders UBL XML, hashes and signs the document, produces the TLV QR
payload and submits through the clearance or reporting flow.

Examples:
  # Submit an invoice described in a JSON file
  zatca submit invoice.json --certificate-id 1712345678 --type compliance

  # Generate a CSR for onboarding
  zatca csr --name "My Company" --city Riyadh --region Riyadh --email it@example.com

  # Start the HTTP API server
  zatca serve --address :8080`,
	Version: version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&certDir, "cert-dir", "", "Certificate store directory (env: ZATCA_CERT_DIR)")

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	appConfig = config.FromEnv()
	if certDir != "" {
		appConfig.CertDir = certDir
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	} else if l, err := zerolog.ParseLevel(appConfig.LogLevel); err == nil {
		level = l
	}
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}
