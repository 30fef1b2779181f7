package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"plansheet-cli/internal/format"
	"plansheet-cli/internal/host"
	"plansheet-cli/internal/model"
)

const exportConcurrency = 4

type exportedSection struct {
	Key     string               `json:"key"`
	Title   string               `json:"title"`
	Payload model.SectionPayload `json:"payload"`
}

func newExportCmd(app *App) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Fetch every section and write them as one document",
		Example: strings.TrimSpace(`
plansheet export > plan.json
plansheet export --format edn --out plan.edn
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := host.Load(app.hostInput())
			if err != nil {
				return writeErr(cmd, err)
			}
			svc, err := app.service(h)
			if err != nil {
				return writeErr(cmd, err)
			}

			secs := h.Sections()
			results := make([]exportedSection, len(secs))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(exportConcurrency)
			for i, s := range secs {
				g.Go(func() error {
					p, err := svc.FetchSection(ctx, s.Key)
					if err != nil {
						return fmt.Errorf("export %s: %w", s.Key, err)
					}
					results[i] = exportedSection{Key: s.Key, Title: s.Title, Payload: p}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return writeErr(cmd, err)
			}

			f := outFormat(app)
			if f == format.Text {
				f = format.JSON
			}
			doc := map[string]any{"sections": results}
			if out == "" {
				return format.Write(cmd.OutOrStdout(), doc, f, app.PrettyJSON)
			}
			file, err := os.Create(out)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := format.Write(file, doc, f, app.PrettyJSON); err != nil {
				_ = file.Close()
				return writeErr(cmd, err)
			}
			return file.Close()
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to a file instead of stdout")
	return cmd
}
