package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"plansheet-cli/internal/api"
	"plansheet-cli/internal/format"
	"plansheet-cli/internal/host"
	"plansheet-cli/internal/sections"
	"plansheet-cli/internal/store"
	"plansheet-cli/internal/table"
	"plansheet-cli/internal/tui"
)

type App struct {
	Server       string
	Project      string
	Token        string
	Cookie       string
	SectionsFile string
	Format       string
	PrettyJSON   bool
	ReadOnly     bool
	Timeout      time.Duration

	cfg     *store.Config
	log     *slog.Logger
	logFile io.Closer

	// prompts and newService are replaced in tests.
	prompts    Prompter
	newService func(h *host.Context) (sections.Service, error)
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{prompts: surveyPrompter{}})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "plansheet",
		Short:        "Browse and edit project plan sections from the terminal",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  plansheet --server http://localhost:8000 --project 12

  # Scriptable commands
  plansheet sections list
  plansheet sections show deliverables --search owner --sort "Planned Date"

  # Shortcut for: plansheet sections show deliverables
  plansheet @deliverables

  # Run a local development server
  plansheet serve --addr 127.0.0.1:8000
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := app.resolve(cmd); err != nil {
			return writeErr(cmd, err)
		}
		return nil
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.logFile != nil {
			_ = app.logFile.Close()
		}
		return nil
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&app.Server, "server", envOr("PLANSHEET_SERVER", ""), "Server base URL")
	pf.StringVar(&app.Project, "project", envOr("PLANSHEET_PROJECT", ""), "Project id")
	pf.StringVar(&app.Token, "token", envOr("PLANSHEET_TOKEN", ""), "Anti-forgery token (default: csrftoken from --cookie)")
	pf.StringVar(&app.Cookie, "cookie", envOr("PLANSHEET_COOKIE", ""), "Raw Cookie header forwarded to the server")
	pf.StringVar(&app.SectionsFile, "sections-file", envOr("PLANSHEET_SECTIONS_FILE", ""), "YAML section list (default: built-in sections)")
	pf.StringVar(&app.Format, "format", envOr("PLANSHEET_FORMAT", "text"), "Output format (json|edn|text)")
	pf.BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON/EDN output")
	pf.BoolVar(&app.ReadOnly, "read-only", envBool("PLANSHEET_READ_ONLY"), "Disable editing")
	pf.DurationVar(&app.Timeout, "timeout", 0, "Per-request timeout (0 = none)")

	cmd.AddCommand(newSectionsCmd(app))
	cmd.AddCommand(newRowsCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newConfigCmd(app))

	return cmd
}

// resolve fills unset settings from the config file and sets up logging.
// Precedence: flag, then PLANSHEET_* env, then config.json.
func (app *App) resolve(cmd *cobra.Command) error {
	if _, err := format.Parse(app.Format); err != nil {
		return err
	}
	app.log, app.logFile = openDebugLog(os.Getenv("PLANSHEET_DEBUG_LOG"))

	cfg, err := store.LoadConfig()
	if err != nil {
		return err
	}
	app.cfg = cfg
	fill := func(dst *string, v string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = v
		}
	}
	fill(&app.Server, cfg.ServerURL)
	fill(&app.Project, cfg.ProjectID)
	fill(&app.Token, cfg.Token)
	fill(&app.Cookie, cfg.Cookie)
	fill(&app.SectionsFile, cfg.SectionsFile)
	if !cmd.Flags().Changed("read-only") && os.Getenv("PLANSHEET_READ_ONLY") == "" {
		app.ReadOnly = cfg.ReadOnly
	}
	if !cmd.Flags().Changed("timeout") && cfg.TimeoutSeconds > 0 {
		app.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return nil
}

func (app *App) hostInput() host.Input {
	return host.Input{
		ServerURL:    app.Server,
		ProjectID:    app.Project,
		CanEdit:      !app.ReadOnly,
		Token:        app.Token,
		Cookie:       app.Cookie,
		SectionsFile: app.SectionsFile,
		Timeout:      app.Timeout,
	}
}

func (app *App) service(h *host.Context) (sections.Service, error) {
	if app.newService != nil {
		return app.newService(h)
	}
	if h.ServerURL() == "" {
		return nil, errMissingSetting("server", "--server, PLANSHEET_SERVER or `plansheet config set serverUrl ...`")
	}
	if h.ProjectID() == "" {
		return nil, errMissingSetting("project", "--project, PLANSHEET_PROJECT or `plansheet config set projectId ...`")
	}
	return api.New(h.ServerURL(), h.ProjectID(),
		api.WithToken(h.Token()),
		api.WithCookie(h.Cookie()),
		api.WithTimeout(h.Timeout()),
		api.WithLogger(app.log),
	)
}

// openController builds the host context, the service and a controller. tune,
// when set, adjusts the widget options of every section.
func (app *App) openController(tune func(*table.Options)) (*sections.Controller, error) {
	h, err := host.Load(app.hostInput())
	if err != nil {
		return nil, err
	}
	svc, err := app.service(h)
	if err != nil {
		return nil, err
	}
	opts := []sections.Option{sections.WithLogger(app.log)}
	if tune != nil {
		opts = append(opts, sections.WithTableOptions(func(s host.Section) table.Options {
			o := s.TableOptions(nil)
			tune(&o)
			return o
		}))
	}
	return sections.New(h, svc, opts...), nil
}

func runTUI(cmd *cobra.Command, app *App) error {
	h, err := host.Load(app.hostInput())
	if err != nil {
		return writeErr(cmd, err)
	}
	svc, err := app.service(h)
	if err != nil {
		return writeErr(cmd, err)
	}
	st, err := store.Default()
	if err != nil {
		return writeErr(cmd, err)
	}
	opts := tui.Options{Store: st, Logger: app.log}
	if app.cfg != nil && app.cfg.TUI != nil {
		opts.Theme = app.cfg.TUI.Theme
		opts.PageSize = app.cfg.TUI.PageSize
	}
	return tui.Run(cmd.Context(), h, svc, opts)
}

func openDebugLog(path string) (*slog.Logger, io.Closer) {
	path = strings.TrimSpace(path)
	if path == "" {
		return slog.New(slog.DiscardHandler), nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "plansheet: debug log disabled: %v\n", err)
		return slog.New(slog.DiscardHandler), nil
	}
	return slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})), f
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv(k)))
	return b
}

func outFormat(app *App) format.Format {
	f, _ := format.Parse(app.Format)
	return f
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, outFormat(app), app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
