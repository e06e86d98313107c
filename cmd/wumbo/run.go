package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wumbohq/wumbo/executor"
	"github.com/wumbohq/wumbo/runtime"
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a template once",
	Long: `Execute a template snippet and print its result as JSON.

The template can be provided via:
  - File argument: wumbo run script.py
  - Inline flag: wumbo run -l python -c 'wumbo_success(sum(wumbo_args))'
  - Stdin: echo 'wumbo_success(1)' | wumbo run -l python

Arguments are passed with repeated --arg flags and keyword arguments with
repeated --kwarg key=value flags; values parse as JSON where possible.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runRun,
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("code", "c", "", "Template code to execute")
	cmd.Flags().StringArray("arg", nil, "Positional argument, JSON or plain string (repeatable)")
	cmd.Flags().StringArray("kwarg", nil, "Keyword argument key=value (repeatable)")
	cmd.Flags().String("name", "", "Template name reported to the template")
	cmd.Flags().Duration("timeout", runtime.DefaultTimeout, "Execution timeout")
	cmd.Flags().String("interpreter", "", "Override the language's interpreter binary")
	cmd.Flags().StringArray("env", nil, "Environment variable key=value (repeatable)")
	cmd.Flags().String("max-memory", "", "Memory limit, e.g. 512mb or 1gb")
	cmd.Flags().Bool("no-sandbox", false, "Disable resource limits")
	cmd.Flags().Bool("json", false, "Print the full result envelope instead of the bare data")
}

// readSource resolves the template text from -c, a file argument, or stdin.
func readSource(cmd *cobra.Command, args []string) (source, filename string, ok bool) {
	code, _ := cmd.Flags().GetString("code")
	switch {
	case code != "":
		return code, "", true
	case len(args) > 0:
		data, err := os.ReadFile(args[0])
		if err != nil {
			fatal(err)
		}
		return string(data), args[0], true
	default:
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) != 0 {
			return "", "", false
		}
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fatal(err)
		}
		if len(data) == 0 {
			return "", "", false
		}
		return string(data), "", true
	}
}

func buildOptions(cmd *cobra.Command) []executor.Option {
	name, _ := cmd.Flags().GetString("name")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	interpreter, _ := cmd.Flags().GetString("interpreter")
	envSpecs, _ := cmd.Flags().GetStringArray("env")
	maxMemory, _ := cmd.Flags().GetString("max-memory")
	noSandbox, _ := cmd.Flags().GetBool("no-sandbox")

	var opts []executor.Option
	if name != "" {
		opts = append(opts, executor.WithName(name))
	}
	if timeout > 0 {
		opts = append(opts, executor.WithTimeout(timeout))
	}
	if interpreter != "" {
		opts = append(opts, executor.WithInterpreter(interpreter))
	}
	if len(envSpecs) > 0 {
		env := make(map[string]string, len(envSpecs))
		for _, spec := range envSpecs {
			k, v, err := parseKeyValue(spec)
			if err != nil {
				fatal(err)
			}
			env[k] = v
		}
		opts = append(opts, executor.WithEnv(env))
	}
	if maxMemory != "" {
		bytes, err := parseMemorySize(maxMemory)
		if err != nil {
			fatal(err)
		}
		opts = append(opts, executor.WithMaxMemory(bytes))
	}
	if noSandbox {
		opts = append(opts, executor.WithSandboxDisabled())
	}
	return opts
}

func runRun(cmd *cobra.Command, args []string) {
	source, filename, ok := readSource(cmd, args)
	if !ok {
		cmd.Help()
		return
	}

	langFlag, _ := cmd.Flags().GetString("lang")
	lang, err := getLanguage(langFlag, filename)
	if err != nil {
		fatal(err)
	}

	argSpecs, _ := cmd.Flags().GetStringArray("arg")
	callArgs := make([]any, 0, len(argSpecs))
	for _, spec := range argSpecs {
		callArgs = append(callArgs, parseArgValue(spec))
	}
	kwargSpecs, _ := cmd.Flags().GetStringArray("kwarg")
	var kwargs map[string]any
	if len(kwargSpecs) > 0 {
		kwargs = make(map[string]any, len(kwargSpecs))
		for _, spec := range kwargSpecs {
			k, v, err := parseKeyValue(spec)
			if err != nil {
				fatal(err)
			}
			kwargs[k] = parseArgValue(v)
		}
	}

	tpl, err := executor.New(lang, source, buildOptions(cmd)...)
	if err != nil {
		fatal(err)
	}

	res, err := tpl.Execute(context.Background(), callArgs, kwargs)
	if err != nil {
		fatal(err)
	}

	asEnvelope, _ := cmd.Flags().GetBool("json")
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	if asEnvelope {
		enc.Encode(resultEnvelope(res))
	} else if res.Err == nil {
		enc.Encode(res.Data)
	}
	if res.Err != nil {
		if !asEnvelope {
			fmt.Fprintf(os.Stderr, "Error: %v\n", res.Err)
		}
		os.Exit(1)
	}
}

type envelope struct {
	Data        any    `json:"data,omitempty"`
	Type        string `json:"type,omitempty"`
	Error       string `json:"error,omitempty"`
	ErrorKind   string `json:"error_kind,omitempty"`
	DurationMs  int64  `json:"duration_ms"`
	ExecutionID string `json:"execution_id"`
}

func resultEnvelope(res executor.Result) envelope {
	e := envelope{
		Data:        res.Data,
		Type:        res.Type,
		DurationMs:  res.Duration.Milliseconds(),
		ExecutionID: res.ExecutionID,
	}
	if res.Err != nil {
		e.Error = res.Err.Message
		e.ErrorKind = string(res.Err.Kind)
	}
	return e
}
