package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/blackrose-blackhat/phishguard/backend/internal/analyzer"
	"github.com/spf13/cobra"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

var (
	urlJSON   bool
	emailJSON bool
)

var urlCmd = &cobra.Command{
	Use:   "url <url>",
	Short: "Analyze a single URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[0] == "" {
			return fmt.Errorf("url is required")
		}
		return printResult(cmd.OutOrStdout(), analyzer.AnalyzeURL(args[0]), urlJSON)
	},
}

var emailCmd = &cobra.Command{
	Use:   "email [file|-]",
	Short: "Analyze an email body read from a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := "-"
		if len(args) == 1 {
			src = args[0]
		}
		body, err := readEmail(src, cmd.InOrStdin())
		if err != nil {
			return err
		}
		if body == "" {
			return fmt.Errorf("email content is required")
		}
		return printResult(cmd.OutOrStdout(), analyzer.AnalyzeEmail(body), emailJSON)
	},
}

func init() {
	urlCmd.Flags().BoolVar(&urlJSON, "json", false, "print the raw JSON result")
	emailCmd.Flags().BoolVar(&emailJSON, "json", false, "print the raw JSON result")
}

// readEmail reads the body from path, or from stdin when path is "-"
func readEmail(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read email file: %w", err)
	}
	return string(data), nil
}

func printResult(w io.Writer, res analyzer.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintln(w)
	color := levelColor(res.RiskLevel)
	fmt.Fprintf(w, "%s%s  %s RISK  %s %d/10\n", colorBold, color, strings.ToUpper(string(res.RiskLevel)), colorReset, res.RiskScore)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s┌─ Indicators ───────────────────────────────────────%s\n", colorYellow, colorReset)
	if len(res.Indicators) == 0 {
		fmt.Fprintf(w, "│ None\n")
	}
	for _, ind := range res.Indicators {
		fmt.Fprintf(w, "│ • %s\n", ind)
	}
	fmt.Fprintf(w, "%s└────────────────────────────────────────────────────%s\n", colorYellow, colorReset)

	fmt.Fprintf(w, "%s┌─ Explanation ──────────────────────────────────────%s\n", colorCyan, colorReset)
	fmt.Fprintf(w, "│ %s\n", res.Explanation)
	fmt.Fprintf(w, "%s└────────────────────────────────────────────────────%s\n", colorCyan, colorReset)
	return nil
}

func levelColor(level analyzer.Level) string {
	switch level {
	case analyzer.LevelHigh:
		return colorRed
	case analyzer.LevelMedium:
		return colorYellow
	default:
		return colorGreen
	}
}
