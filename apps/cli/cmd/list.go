package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/restcheck/restcheck/packages/core/parser"
)

var listCmd = &cobra.Command{
	Use:   "list <file|directory>...",
	Short: "List all requests in template files",
	Long: `List all requests defined in restcheck template files.

Examples:
  restcheck list api.http
  restcheck list ./requests/`,
	Args: cobra.MinimumNArgs(1),
	RunE: listCommand,
}

func listCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .http or .rest files found")
	}

	for _, file := range files {
		src, err := parser.ParseFile(file)
		if err != nil {
			fmt.Fprintf(cmd.OutOrStderr(), "Error parsing %s: %v\n", file, err)
			continue
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\n%s:\n", file)
		for _, req := range src.Requests {
			name := req.Name
			if name == "" {
				name = fmt.Sprintf("%s %s", req.Method, req.URL)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", name)
			if req.Expected != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "    expects: %d\n", req.Expected.StatusCode)
			}
		}
	}
	return nil
}
