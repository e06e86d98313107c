package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wumbohq/wumbo/runtime"
)

var rootCmd = &cobra.Command{
	Use:   "wumbo [file]",
	Short: "Execute templates across languages with a uniform calling convention",
	Long: `wumbo - Run template snippets in Python, JavaScript, TypeScript, Go, or
shell with one calling convention.

Templates receive their arguments through language-appropriate bindings
(wumbo_args, wumboArgs, WUMBO_ARGS) and report results through an explicit
success call. By default each execution runs in a private working directory
with resource limits applied.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runRun, // Default to run command behavior
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("lang", "l", "", "Language: python, javascript, typescript, go, shell (default: auto-detect)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetString("log-level")
		configureLogging(level)
	}

	addRunFlags(rootCmd)
}

func configureLogging(level string) {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}

func getLanguage(langFlag, filename string) (runtime.Language, error) {
	if langFlag != "" {
		return runtime.Parse(langFlag)
	}
	if filename != "" {
		if lang, ok := runtime.Extension(filepath.Ext(filename)); ok {
			return lang, nil
		}
	}
	return "", fmt.Errorf("language required: use --lang (python, javascript, typescript, go, shell)")
}

// parseArgValue decodes a CLI argument as JSON when possible, falling back to
// a plain string. "3" becomes a number, "[1,2]" a list, "three" a string.
func parseArgValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}

func parseKeyValue(spec string) (string, string, error) {
	k, v, ok := strings.Cut(spec, "=")
	if !ok || k == "" {
		return "", "", fmt.Errorf("invalid key=value spec %q", spec)
	}
	return k, v, nil
}

// parseMemorySize parses sizes like "512mb" or "1gb" into bytes.
func parseMemorySize(s string) (int64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, nil
	}
	mult := int64(1)
	switch {
	case strings.HasSuffix(s, "kb"):
		mult, s = 1<<10, strings.TrimSuffix(s, "kb")
	case strings.HasSuffix(s, "mb"):
		mult, s = 1<<20, strings.TrimSuffix(s, "mb")
	case strings.HasSuffix(s, "gb"):
		mult, s = 1<<30, strings.TrimSuffix(s, "gb")
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid memory size %q", s)
	}
	return n * mult, nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
