package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tfkr-ae/trustreg"
	"github.com/tfkr-ae/trustreg/docformat"
	"github.com/tfkr-ae/trustreg/domain"
	"github.com/tfkr-ae/trustreg/xmlstore"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all trusted sources",
	Long: `Export all trusted sources as YAML, JSON or a NuGet.Config style XML document.

Examples:
  trustreg export
  trustreg export --format xml --output NuGet.Config`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import trusted sources from a YAML, JSON or NuGet.Config file",
	Long: `Import trusted sources from a YAML, JSON or NuGet.Config style XML file.

The format is detected from the file content. Every source is checked like the
input of the add command before anything is written. Each imported source replaces
the registered source of the same name; certificates that are already trusted keep
their stored priority.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	exportCmd.Flags().StringP("format", "f", string(docformat.YAML), "Output format (yaml, json, xml)")
	exportCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")

	exportCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "json", "xml"}, cobra.ShellCompDirectiveNoFileComp
	})
}

// encodeXML writes sources into a fresh NuGet.Config document through the XML store.
// Only this output is re-indented; YAML and JSON come out of docformat.Encode already formatted.
func encodeXML(sources domain.Snapshot) ([]byte, error) {
	dir, err := os.MkdirTemp("", "trustreg-export")
	if err != nil {
		return nil, fmt.Errorf("creating export dir: %w", err)
	}
	defer os.RemoveAll(dir)

	store, err := xmlstore.Open(filepath.Join(dir, "NuGet.Config"))
	if err != nil {
		return nil, err
	}
	registry, err := trustreg.New(trustreg.WithSettings(store))
	if err != nil {
		return nil, err
	}
	if err := registry.SaveAll(sources); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(store.Path)
	if err != nil {
		return nil, err
	}
	return docformat.Prettify(data)
}

// decodeXML reads the trusted sources of a NuGet.Config file without ever writing to it.
func decodeXML(path string) (domain.Snapshot, error) {
	store, err := xmlstore.Open(path, xmlstore.WithMachineWide())
	if err != nil {
		return nil, err
	}
	registry, err := trustreg.New(trustreg.WithSettings(store))
	if err != nil {
		return nil, err
	}
	return registry.LoadAll()
}

func runExport(cmd *cobra.Command, args []string) error {
	formatName, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	format, err := docformat.ParseFormat(formatName)
	if err != nil {
		return err
	}

	registry, closer, err := openRegistry(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	sources, err := registry.LoadAll()
	if err != nil {
		return err
	}

	var data []byte
	if format == docformat.XML {
		data, err = encodeXML(sources)
	} else {
		data, err = docformat.Encode(format, sources)
	}
	if err != nil {
		return fmt.Errorf("exporting trusted sources: %w", err)
	}

	if output == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0600); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d trusted sources to %s\n", len(sources), output)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	format, err := docformat.Detect(data)
	if err != nil {
		return fmt.Errorf("detecting format of %s: %w", path, err)
	}

	var sources domain.Snapshot
	if format == docformat.XML {
		sources, err = decodeXML(path)
	} else {
		sources, err = docformat.Decode(format, data)
	}
	if err != nil {
		return fmt.Errorf("importing %s: %w", path, err)
	}
	for _, source := range sources {
		if err := validateSource(source); err != nil {
			return fmt.Errorf("importing %s: %w", path, err)
		}
	}

	registry, closer, err := openRegistry(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	for _, source := range sources {
		if err := registry.SaveOne(source); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d trusted sources from %s (%s)\n", len(sources), path, format)
	return nil
}
