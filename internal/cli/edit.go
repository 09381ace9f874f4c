package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tfkr-ae/trustreg/domain"
)

var setServiceIndexCmd = &cobra.Command{
	Use:   "set-service-index NAME URL",
	Short: "Set the service index URL of a trusted source",
	Args:  cobra.ExactArgs(2),
	RunE:  runSetServiceIndex,
}

var removeCmd = &cobra.Command{
	Use:   "remove NAME",
	Short: "Remove a trusted source or one of its certificates",
	Long: `Remove a trusted source, or only one of its certificates when --fingerprint is given.

Examples:
  trustreg remove myfeed
  trustreg remove nuget.org --fingerprint 3F9001EA83C560D712C24CF213C3D312CB3BFF51EE89435D3430BD06B5D0EECE`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	removeCmd.Flags().String("fingerprint", "", "Only remove the certificate with this fingerprint")
}

func runSetServiceIndex(cmd *cobra.Command, args []string) error {
	name, url := args[0], args[1]
	if err := validateServiceIndex(url); err != nil {
		return err
	}

	registry, closer, err := openRegistry(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	source, err := registry.LoadOne(name)
	if err != nil {
		return err
	}
	if source == nil {
		source = domain.NewTrustedSource(name)
	}
	source.ServiceIndex = url

	if err := registry.SaveOne(source); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Service index of %s set to %s\n", source.SourceName, url)
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	name := args[0]
	fingerprint, _ := cmd.Flags().GetString("fingerprint")

	registry, closer, err := openRegistry(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	source, err := registry.LoadOne(name)
	if err != nil {
		return err
	}
	if source == nil {
		return fmt.Errorf("%w: %s", ErrNoSuchSource, name)
	}

	if fingerprint == "" {
		if err := registry.DeleteOne(name); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", source.SourceName)
		return nil
	}

	cert := source.Certificate(fingerprint)
	if cert == nil {
		return fmt.Errorf("certificate %s is not trusted for %s", fingerprint, source.SourceName)
	}

	kept := make([]*domain.CertificateTrustEntry, 0, len(source.Certificates))
	for _, c := range source.Certificates {
		if c != cert {
			kept = append(kept, c)
		}
	}
	source.Certificates = kept

	if err := registry.SaveOne(source); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %s\n", cert.Fingerprint, source.SourceName)
	return nil
}
