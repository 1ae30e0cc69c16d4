package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"pdfqa/rag"
)

var (
	askPrompt  string
	askTopK    int
	askSources bool
)

var askCmd = &cobra.Command{
	Use:   "ask <file>",
	Short: "Index one document and answer a prompt about it",
	Long: `Indexes the given PDF or text file and prints the answer to --prompt.
Without --prompt the medical-record summary prompt is used.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askPrompt, "prompt", "p", "", "prompt to answer (default: summary prompt)")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of segments to retrieve (default from config)")
	askCmd.Flags().BoolVar(&askSources, "sources", false, "print the retrieved segments after the answer")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	session, err := buildSession(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	idx, err := session.Ingest(ctx, rag.NewDocument(filepath.Base(path), data))
	if err != nil {
		return err
	}

	prompt := askPrompt
	if prompt == "" {
		prompt = cfg.Query.Prompt
	}
	if prompt == "" {
		prompt = rag.SummaryPrompt
	}

	res, err := session.QueryIndex(ctx, idx, prompt, askTopK)
	if err != nil {
		return err
	}
	printResult(cmd, res, askSources)
	return nil
}

func printResult(cmd *cobra.Command, res *rag.QueryResult, sources bool) {
	cmd.Println(res.Answer)
	if !sources {
		return
	}
	cmd.Println()
	cmd.Printf("Sources (%d retrieved, %d in context):\n", len(res.Retrieved), res.Used)
	for i, h := range res.Retrieved {
		snippet := []rune(strings.Join(strings.Fields(h.Segment.Text), " "))
		if len(snippet) > 120 {
			snippet = append(snippet[:120], '…')
		}
		cmd.Printf("  [%d] segment %d (%.3f) %s\n", i+1, h.Segment.Seq, h.Score, string(snippet))
	}
}
