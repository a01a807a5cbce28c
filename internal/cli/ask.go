package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	askQuery       string
	askShowContext bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer questions from the documents",
	Long: `Load the documents, then answer one question (-q) or read questions from
stdin until "exit".

Examples:
  docqa ask
  docqa ask -q "What color is the sky?" --timeout 30s`,
	Args: cobra.NoArgs,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuery, "query", "q", "", "answer a single question and exit")
	askCmd.Flags().BoolVar(&askShowContext, "show-context", false, "print the assembled context before the answer")
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), GetConfig(), GetRootDir(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Fprintf(cmd.ErrOrStderr(), "Loaded %s\n", a.summary())
	out := cmd.OutOrStdout()

	if askQuery != "" {
		return answerOne(cmd.Context(), a, out, askQuery)
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, "\nAsk a question (type 'exit' to quit): ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		q := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(q, "exit") {
			fmt.Fprintln(out, "Bye")
			return nil
		}
		if err := answerOne(cmd.Context(), a, out, q); err != nil {
			logger.Debug("question failed", zap.String("query", q), zap.Error(err))
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
	}
}

func answerOne(parent context.Context, a *app, out io.Writer, q string) error {
	ctx, cancel := withTimeout(parent)
	defer cancel()

	answer, err := a.pipeline.Run(ctx, q)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "\nRetrieved from:")
	for _, name := range answer.Names() {
		fmt.Fprintf(out, " - %s\n", name)
	}
	if askShowContext {
		fmt.Fprintln(out, "\nContext:")
		fmt.Fprint(out, answer.Context)
	}
	fmt.Fprintln(out, "\nAnswer:")
	fmt.Fprintln(out, answer.Text)
	return nil
}
