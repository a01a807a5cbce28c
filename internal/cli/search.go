package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"docqa/internal/domain"
	"docqa/internal/usecase"
)

var (
	searchText string
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Show the documents nearest to a query",
	Long: `Retrieve without generating: print the top_k documents ranked by
squared Euclidean distance to the query embedding.

Examples:
  docqa search -q "sky"
  docqa search -q "sky" --json`,
	Args: cobra.NoArgs,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchText, "query", "q", "", "search query (required)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	searchCmd.MarkFlagRequired("query")
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), GetConfig(), GetRootDir(), nil)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := withTimeout(cmd.Context())
	defer cancel()

	results, err := a.pipeline.Retrieve(ctx, searchText)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if searchJSON {
		if results == nil {
			results = []domain.ScoredDocument{}
		}
		output, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(output))
		return nil
	}

	fmt.Fprintf(out, "Found %d results for: %s\n\n", len(results), searchText)
	for i, r := range results {
		fmt.Fprintf(out, "--- [%d] %s (distance: %.4f) ---\n", i+1, r.Document.Name, r.Distance)
		fmt.Fprintln(out, usecase.Truncate(r.Document.Text, 500, usecase.UnitRune))
		fmt.Fprintln(out)
	}
	return nil
}
