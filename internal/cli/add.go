package cli

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tfkr-ae/trustreg/domain"
)

var addCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Trust a certificate for a source",
	Long: `Trust a certificate for a source, creating the source when it is not registered yet.

The certificate is given either by fingerprint and subject or as a PEM file, in which
case the fingerprint is computed with the selected algorithm.

A certificate that is already trusted keeps its stored priority.

Examples:
  trustreg add nuget.org --fingerprint 3F9001EA83C560D712C24CF213C3D312CB3BFF51EE89435D3430BD06B5D0EECE --subject "CN=NuGet.org Repository by Microsoft"
  trustreg add myfeed --cert signer.pem --algorithm SHA512 --service-index https://feed.example.com/v3/index.json`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().String("fingerprint", "", "Certificate fingerprint (hex)")
	addCmd.Flags().String("subject", "", "Certificate subject name")
	addCmd.Flags().String("cert", "", "PEM encoded certificate file")
	addCmd.Flags().String("algorithm", domain.SHA256.String(), "Fingerprint hash algorithm (SHA256, SHA384, SHA512)")
	addCmd.Flags().Int("priority", 0, "Priority of a newly trusted certificate")
	addCmd.Flags().String("service-index", "", "Service index URL of the source")

	addCmd.MarkFlagFilename("cert", "pem", "crt", "cer")
	addCmd.MarkFlagsMutuallyExclusive("cert", "fingerprint")
	addCmd.MarkFlagsMutuallyExclusive("cert", "subject")
}

// readCertificate returns the DER bytes and subject of the first certificate in a PEM file.
func readCertificate(path string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading certificate file: %w", err)
	}

	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			return nil, "", errors.New("no CERTIFICATE block found in " + path)
		}
		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, "", fmt.Errorf("parsing certificate %s: %w", path, err)
		}
		return block.Bytes, cert.Subject.String(), nil
	}
}

func certificateInputFromFlags(cmd *cobra.Command, name string) (certificateInput, error) {
	in := certificateInput{Source: name}
	in.Fingerprint, _ = cmd.Flags().GetString("fingerprint")
	in.Subject, _ = cmd.Flags().GetString("subject")
	in.Algorithm, _ = cmd.Flags().GetString("algorithm")
	in.Priority, _ = cmd.Flags().GetInt("priority")
	in.ServiceIndex, _ = cmd.Flags().GetString("service-index")
	certFile, _ := cmd.Flags().GetString("cert")

	if certFile != "" {
		alg, ok := domain.ParseHashAlgorithmName(in.Algorithm)
		if !ok {
			return in, validationError(inputValidator.Struct(in))
		}
		der, subject, err := readCertificate(certFile)
		if err != nil {
			return in, err
		}
		in.Fingerprint = domain.CertificateFingerprint(der, alg)
		in.Subject = subject
	}

	return in, in.validate()
}

func runAdd(cmd *cobra.Command, args []string) error {
	in, err := certificateInputFromFlags(cmd, args[0])
	if err != nil {
		return err
	}

	registry, closer, err := openRegistry(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	source, err := registry.LoadOne(in.Source)
	if err != nil {
		return err
	}
	if source == nil {
		source = domain.NewTrustedSource(in.Source)
	}
	if in.ServiceIndex != "" {
		source.ServiceIndex = in.ServiceIndex
	}

	entry := &domain.CertificateTrustEntry{
		Fingerprint: strings.ToUpper(in.Fingerprint),
		SubjectName: in.Subject,
		Algorithm:   domain.NormalizeHashAlgorithm(in.Algorithm),
		Priority:    in.Priority,
	}
	if existing := source.Certificate(entry.Fingerprint); existing != nil {
		*existing = *entry
	} else {
		source.Certificates = append(source.Certificates, entry)
	}

	if err := registry.SaveOne(source); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Trusted %s for %s\n", entry.Fingerprint, source.SourceName)
	return nil
}
