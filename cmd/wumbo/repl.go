package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/wumbohq/wumbo/executor"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive template loop",
	Long: `Evaluate template snippets interactively. Each entered snippet executes
as its own template, so bindings do not persist between lines.

Features:
  - Command history (up/down arrows)
  - History search (Ctrl+R)
  - Multi-line input (end line with \)

Type 'exit' or 'quit' to end the session, or press Ctrl+D.`,
	Run: runRepl,
}

func init() {
	replCmd.Flags().String("history", "", "History file path (default: ~/.wumbo_history)")
	replCmd.Flags().Bool("no-sandbox", false, "Disable resource limits")
	rootCmd.AddCommand(replCmd)
}

func runRepl(cmd *cobra.Command, args []string) {
	langFlag, _ := cmd.Flags().GetString("lang")
	historyFile, _ := cmd.Flags().GetString("history")
	noSandbox, _ := cmd.Flags().GetBool("no-sandbox")

	lang, err := getLanguage(langFlag, "")
	if err != nil {
		fatal(err)
	}
	if historyFile == "" {
		home, _ := os.UserHomeDir()
		historyFile = filepath.Join(home, ".wumbo_history")
	}

	// One registry for the whole session so the runtime probe happens once.
	registry := executor.DefaultRegistry(slog.Default())
	opts := []executor.Option{
		executor.WithRegistry(registry),
		executor.WithName("repl"),
	}
	if noSandbox {
		opts = append(opts, executor.WithSandboxDisabled())
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            ">>> ",
		HistoryFile:       historyFile,
		HistoryLimit:      1000,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		fatal(err)
	}
	defer rl.Close()

	fmt.Fprintf(os.Stderr, "wumbo %s REPL (type 'exit' to quit, Ctrl+D to exit)\n", lang)

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)

	var multiLine strings.Builder
	inMultiLine := false

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if inMultiLine {
					multiLine.Reset()
					inMultiLine = false
					rl.SetPrompt(">>> ")
				}
				continue
			}
			if err == io.EOF {
				fmt.Println()
				break
			}
			fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
			break
		}

		if strings.HasSuffix(line, "\\") {
			multiLine.WriteString(strings.TrimSuffix(line, "\\"))
			multiLine.WriteString("\n")
			inMultiLine = true
			rl.SetPrompt("... ")
			continue
		}
		if inMultiLine {
			multiLine.WriteString(line)
			line = multiLine.String()
			multiLine.Reset()
			inMultiLine = false
			rl.SetPrompt(">>> ")
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if trimmed == "exit" || trimmed == "quit" {
			break
		}

		tpl, err := executor.New(lang, line, opts...)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		value, err := tpl.Call(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		enc.Encode(value)
	}
}
