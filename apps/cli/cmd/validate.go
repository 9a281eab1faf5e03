package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/restcheck/restcheck/packages/core/parser"
	"github.com/restcheck/restcheck/packages/core/resolve"
)

var validateStrictFlag bool

var validateCmd = &cobra.Command{
	Use:   "validate <file|directory>...",
	Short: "Validate template files without executing them",
	Long: `Validate restcheck template files for syntax errors, and optionally
check that every {{variable}} resolves.

Examples:
  restcheck validate api.http
  restcheck validate ./requests/ --strict`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func init() {
	validateCmd.Flags().BoolVar(&validateStrictFlag, "strict", false, "Also fail on unresolved {{variables}}")
}

func validateCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .http or .rest files found")
	}

	resolver := resolve.NewResolver(resolve.WithStrict(validateStrictFlag))

	hasErrors := false
	for _, file := range files {
		src, err := parser.ParseFile(file)
		if err != nil {
			fmt.Fprintf(cmd.OutOrStderr(), "Error in %s: %v\n", file, err)
			hasErrors = true
			continue
		}
		if _, err := resolver.ResolveSource(src); err != nil {
			fmt.Fprintf(cmd.OutOrStderr(), "Error in %s: %v\n", file, err)
			hasErrors = true
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", file)
	}

	if hasErrors {
		return fmt.Errorf("validation failed")
	}
	return nil
}
