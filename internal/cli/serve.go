package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"plansheet-cli/internal/catalog"
	"plansheet-cli/internal/store"
	"plansheet-cli/internal/web"
)

func newServeCmd(app *App) *cobra.Command {
	var (
		addr     string
		dbPath   string
		csrf     string
		projects []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local section server backed by SQLite",
		Long: strings.TrimSpace(`
Run a development server that speaks the section API: section payloads with
field metadata and template rows, row create/update/delete with validation,
singleton sections and read-only mode.
`),
		Example: strings.TrimSpace(`
plansheet serve --addr 127.0.0.1:8000
plansheet serve --read-only --csrf-token secret
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				return writeErr(cmd, errors.New("serve: missing --addr"))
			}
			if dbPath == "" {
				st, err := store.Default()
				if err != nil {
					return writeErr(cmd, err)
				}
				if err := st.Ensure(); err != nil {
					return writeErr(cmd, err)
				}
				dbPath = st.RowsPath()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rows, err := store.OpenRows(ctx, dbPath)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer rows.Close()

			srv, err := web.NewServer(web.ServerConfig{
				Addr:      listenAddr,
				ReadOnly:  app.ReadOnly,
				CSRFToken: csrf,
				Projects:  projects,
			}, catalog.Builtin(), rows, app.log)
			if err != nil {
				return writeErr(cmd, err)
			}

			ln, err := net.Listen("tcp", srv.Addr())
			if err != nil {
				return writeErr(cmd, err)
			}
			url := "http://" + ln.Addr().String() + "/"
			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      ln.Addr().String(),
					"url":       url,
					"db":        dbPath,
					"readOnly":  app.ReadOnly,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "plansheet server running at %s (db=%s)\n", url, dbPath)

			hs := &http.Server{Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-ctx.Done()
				shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = hs.Shutdown(shutdown)
			}()
			if err := hs.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", envOr("PLANSHEET_ADDR", "127.0.0.1:8000"), "Bind address (host:port or :port)")
	cmd.Flags().StringVar(&dbPath, "db", envOr("PLANSHEET_DB", ""), "SQLite database path (default: ~/.plansheet/rows.db)")
	cmd.Flags().StringVar(&csrf, "csrf-token", envOr("PLANSHEET_CSRF_TOKEN", ""), "Require this X-CSRFToken on writes")
	cmd.Flags().StringSliceVar(&projects, "projects", nil, "Allowed project ids (default: any)")
	return cmd
}
