package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/blackrose-blackhat/phishguard/backend/internal/analyzer"
	"github.com/spf13/cobra"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive analysis prompt",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runREPL(cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

const replBanner = `
╔═══════════════════════════════════════════════════════════╗
║          PHISHGUARD - Interactive Analyzer                ║
║          url <address>   score a URL                      ║
║          email <text>    score an email body              ║
║          Type 'exit' or 'quit' to exit                    ║
╚═══════════════════════════════════════════════════════════╝`

func runREPL(in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, colorCyan+colorBold+replBanner+colorReset)
	fmt.Fprintln(out)

	engine := analyzer.NewEngine()
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprintf(out, "%s> %s", colorBold, colorReset)

		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			fmt.Fprintln(out, colorCyan+"Goodbye!"+colorReset)
			return nil
		}

		cmdWord, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		var kind analyzer.Kind
		switch cmdWord {
		case "url":
			kind = analyzer.KindURL
		case "email":
			kind = analyzer.KindEmail
		default:
			fmt.Fprintf(out, "%sUnknown command %q (use url, email or exit)%s\n", colorRed, cmdWord, colorReset)
			continue
		}
		if arg == "" {
			fmt.Fprintf(out, "%sNothing to analyze%s\n", colorRed, colorReset)
			continue
		}

		res, err := engine.Analyze(analyzer.Input{Kind: kind, Raw: arg})
		if err != nil {
			fmt.Fprintf(out, "%sError: %v%s\n", colorRed, err, colorReset)
			continue
		}
		printResult(out, res, false)
		fmt.Fprintln(out)
	}

	return scanner.Err()
}
