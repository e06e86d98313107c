package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wumbohq/wumbo/executor"
)

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Validate a template without executing it",
	Long: `Syntax-check a template the way construction would: Python templates get
an AST security scan, JavaScript a parse check, TypeScript a type check,
Go a build of the wrapped snippet, and shell a no-exec parse.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runCheck,
}

func init() {
	checkCmd.Flags().StringP("code", "c", "", "Template code to validate")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) {
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

	if _, err := executor.New(lang, source); err != nil {
		fatal(err)
	}
	fmt.Printf("%s template ok\n", lang)
}
