package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/stubd/pkg/config"
	"github.com/getmockd/stubd/pkg/engine"
)

var validateRootDir string

var validateCmd = &cobra.Command{
	Use:   "validate <file|glob>...",
	Short: "Validate mapping files without starting a server",
	Long: `Validate mapping files without starting a server.

Each argument is a file path or a doublestar glob. Every stub is compiled
exactly as the server would compile it, so invalid regular expressions,
JSONPath, XPath, JSON schemas and expressions are reported.`,
	Example: `  stubd validate mappings/users.json
  stubd validate 'mappings/**/*.yaml'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		baseDir := validateRootDir
		if baseDir == "" {
			baseDir = "."
		}

		out := cmd.OutOrStdout()
		total := 0
		for _, pattern := range args {
			stubs, err := config.LoadMappings([]string{pattern}, baseDir)
			if err != nil {
				return err
			}
			if err := engine.ValidateStubs(stubs); err != nil {
				return fmt.Errorf("%s: %w", pattern, err)
			}
			fmt.Fprintf(out, "%s: %d mapping(s) OK\n", pattern, len(stubs))
			total += len(stubs)
		}

		fmt.Fprintf(out, "%d mapping(s) valid\n", total)
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateRootDir, "root-dir", "", "Base directory for relative paths")
	rootCmd.AddCommand(validateCmd)
}
