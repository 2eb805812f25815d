package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/openops/cost-optimization-server/internal/persistence"
	"github.com/openops/cost-optimization-server/internal/registry"
	"github.com/openops/cost-optimization-server/internal/schema"
)

var (
	headingColor = color.New(color.Bold)
	toolColor    = color.New(color.FgCyan, color.Bold)
	argColor     = color.New(color.FgYellow)
	dimColor     = color.New(color.Faint)
)

func newListCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the registered tools, their arguments and seeded data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := buildRouter(o.cfg, o.log, nil)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printTools(out, r.Registry().List())

			blobs, err := persistence.ListBlobs()
			if err != nil {
				o.log.Warn("failed to list seeded data", "err", err)
				return nil
			}
			printBlobs(out, blobs)
			return nil
		},
	}
}

// printTools writes each tool with its arguments, marking required ones and
// showing declared defaults.
func printTools(w io.Writer, descs []registry.Descriptor) {
	headingColor.Fprintf(w, "Tools (%d):\n", len(descs))
	for _, d := range descs {
		fmt.Fprintf(w, "  • %s - %s\n", toolColor.Sprint(d.Name), d.Description)
		if d.InputSchema == nil {
			continue
		}

		names := make([]string, 0, len(d.InputSchema.Properties))
		for name := range d.InputSchema.Properties {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			prop := d.InputSchema.Properties[name]
			line := fmt.Sprintf("      %s (%s)", argColor.Sprint(name), prop.Type)
			if slices.Contains(d.InputSchema.Required, name) {
				line += " required"
			}
			if def, ok := schema.Default(d.InputSchema, name); ok {
				encoded, _ := json.Marshal(def)
				line += dimColor.Sprintf(" default %s", encoded)
			}
			fmt.Fprintln(w, line)
		}
	}
	fmt.Fprintln(w)
}

func printBlobs(w io.Writer, names []string) {
	headingColor.Fprintln(w, "Seeded data:")
	if len(names) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, name := range names {
		fmt.Fprintf(w, "  • %s\n", name)
	}
}
