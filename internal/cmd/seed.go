package cmd

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/openops/cost-optimization-server/internal/config"
	"github.com/openops/cost-optimization-server/internal/persistence"
)

func newSeedCommand(o *options) *cobra.Command {
	var (
		name   string
		file   string
		remove bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Store a cost data blob in the data directory",
		Long: "Store a JSON object as a pre-seeded cost data blob. The server reads it at " +
			"startup when the matching environment variable is empty. Use --file - to read stdin.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !slices.Contains(config.BlobNames, name) {
				return fmt.Errorf("--name must be one of %v, got %q", config.BlobNames, name)
			}

			if remove {
				if err := persistence.DeleteBlob(name); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", name)
				return nil
			}

			if file == "" {
				return fmt.Errorf("--file is required")
			}
			raw, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			blob, err := config.ParseBlob(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			if err := persistence.SaveBlob(name, raw); err != nil {
				return err
			}

			o.log.Debug("seeded data blob", "blob", name, "keys", len(blob))
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %s (%d keys)\n", name, len(blob))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "blob name: cost_explorer or cost_analysis")
	cmd.Flags().StringVar(&file, "file", "", "JSON file to store, or - for stdin")
	cmd.Flags().BoolVar(&remove, "remove", false, "remove the stored blob instead")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func readInput(stdin io.Reader, file string) ([]byte, error) {
	if file == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	return data, nil
}
