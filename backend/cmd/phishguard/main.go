// phishguard scores URLs and email bodies for phishing indicators.
//
// Usage:
//
//	phishguard serve                  HTTP API
//	phishguard mcp                    MCP tool server on stdio
//	phishguard url <url> [--json]     one-shot URL analysis
//	phishguard email [file|-] [--json]
//	phishguard repl                   interactive prompt
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
