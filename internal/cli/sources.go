package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List trusted sources",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Show a trusted source and its certificates",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runList(cmd *cobra.Command, args []string) error {
	registry, closer, err := openRegistry(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	sources, err := registry.LoadAll()
	if err != nil {
		return err
	}

	if len(sources) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No trusted sources")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCERTIFICATES\tSERVICE INDEX")
	for _, source := range sources {
		fmt.Fprintf(w, "%s\t%d\t%s\n", source.SourceName, len(source.Certificates), source.ServiceIndex)
	}
	return w.Flush()
}

func runShow(cmd *cobra.Command, args []string) error {
	registry, closer, err := openRegistry(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	source, err := registry.LoadOne(args[0])
	if err != nil {
		return err
	}
	if source == nil {
		return fmt.Errorf("%w: %s", ErrNoSuchSource, args[0])
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Name:          %s\n", source.SourceName)
	if source.ServiceIndex != "" {
		fmt.Fprintf(out, "Service index: %s\n", source.ServiceIndex)
	}
	if len(source.Certificates) == 0 {
		fmt.Fprintln(out, "No certificates")
		return nil
	}

	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FINGERPRINT\tALGORITHM\tPRIORITY\tSUBJECT")
	for _, cert := range source.Certificates {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", cert.Fingerprint, cert.Algorithm, cert.Priority, cert.SubjectName)
	}
	return w.Flush()
}
