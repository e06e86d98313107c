package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wumbohq/wumbo/executor"
	"github.com/wumbohq/wumbo/language"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for template execution",
	Long: `Start an HTTP server that executes templates.

Endpoints:
  POST /execute     Execute a template: {"code": "...", "lang": "python",
                    "args": [...], "kwargs": {...}, "timeout": "30s"}
  GET  /languages   Report supported languages and availability
  GET  /health      Health check`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().Duration("timeout", 30*time.Second, "Default execution timeout")
	serveCmd.Flags().Bool("no-sandbox", false, "Disable resource limits")
	rootCmd.AddCommand(serveCmd)
}

type executeRequest struct {
	Code    string         `json:"code"`
	Lang    string         `json:"lang,omitempty"`
	Name    string         `json:"name,omitempty"`
	Args    []any          `json:"args,omitempty"`
	Kwargs  map[string]any `json:"kwargs,omitempty"`
	Timeout string         `json:"timeout,omitempty"`
}

type executeResponse struct {
	Data        any    `json:"data,omitempty"`
	Type        string `json:"type,omitempty"`
	Error       string `json:"error,omitempty"`
	ErrorKind   string `json:"error_kind,omitempty"`
	DurationMs  int64  `json:"duration_ms"`
	ExecutionID string `json:"execution_id,omitempty"`
}

type serveConfig struct {
	defaultLang    string
	defaultTimeout time.Duration
	noSandbox      bool
}

// newServeMux builds the handler set against an injected registry so the
// server is exercisable in tests without real interpreters.
func newServeMux(registry *language.Registry, cfg serveConfig) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/execute", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req executeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Code == "" {
			http.Error(w, "code required", http.StatusBadRequest)
			return
		}

		reqLang := req.Lang
		if reqLang == "" {
			reqLang = cfg.defaultLang
		}
		lang, err := getLanguage(reqLang, "")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		timeout := cfg.defaultTimeout
		if req.Timeout != "" {
			if d, err := time.ParseDuration(req.Timeout); err == nil {
				timeout = d
			}
		}

		opts := []executor.Option{
			executor.WithRegistry(registry),
			executor.WithTimeout(timeout),
		}
		if req.Name != "" {
			opts = append(opts, executor.WithName(req.Name))
		}
		if cfg.noSandbox {
			opts = append(opts, executor.WithSandboxDisabled())
		}

		tpl, err := executor.New(lang, req.Code, opts...)
		if err != nil {
			writeTemplateError(w, err)
			return
		}
		res, err := tpl.Execute(r.Context(), req.Args, req.Kwargs)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		resp := executeResponse{
			Data:        res.Data,
			Type:        res.Type,
			DurationMs:  res.Duration.Milliseconds(),
			ExecutionID: res.ExecutionID,
		}
		if res.Err != nil {
			resp.Error = res.Err.Message
			resp.ErrorKind = string(res.Err.Kind)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	mux.HandleFunc("/languages", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(registry.Describe())
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return mux
}

// writeTemplateError maps construction failures onto HTTP statuses: a bad
// template is the caller's fault, a missing runtime is the host's.
func writeTemplateError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	if te, ok := err.(*executor.Error); ok && te.Kind == executor.KindRuntimeUnavailable {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func runServe(cmd *cobra.Command, args []string) {
	port, _ := cmd.Flags().GetInt("port")
	defaultLang, _ := cmd.Flags().GetString("lang")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	noSandbox, _ := cmd.Flags().GetBool("no-sandbox")

	registry := executor.DefaultRegistry(slog.Default())
	mux := newServeMux(registry, serveConfig{
		defaultLang:    defaultLang,
		defaultTimeout: timeout,
		noSandbox:      noSandbox,
	})

	addr := fmt.Sprintf(":%d", port)
	fmt.Fprintf(os.Stderr, "wumbo server listening on %s\n", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		fatal(err)
	}
}
