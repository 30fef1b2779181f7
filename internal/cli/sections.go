package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"plansheet-cli/internal/format"
	"plansheet-cli/internal/model"
	"plansheet-cli/internal/printers"
	"plansheet-cli/internal/sections"
	"plansheet-cli/internal/table"
)

func newSectionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sections",
		Short: "List and show plan sections",
	}
	cmd.AddCommand(newSectionsListCmd(app))
	cmd.AddCommand(newSectionsShowCmd(app))
	return cmd
}

func newSectionsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the configured sections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := app.openController(nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			secs := ctrl.Host().Sections()
			if outFormat(app) == format.Text {
				printers.New(cmd.OutOrStdout()).Sections(secs)
				return nil
			}
			out := make([]model.SectionDescriptor, 0, len(secs))
			for _, s := range secs {
				out = append(out, s.SectionDescriptor)
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}
}

type showOptions struct {
	search   string
	sort     string
	desc     bool
	page     int
	pageSize int
	all      bool
}

func newSectionsShowCmd(app *App) *cobra.Command {
	var opts showOptions

	cmd := &cobra.Command{
		Use:   "show <section-key>",
		Short: "Show the rows of a section",
		Example: strings.TrimSpace(`
plansheet sections show deliverables
plansheet sections show deliverables --search "design" --sort "Planned Date" --desc
plansheet sections show stakeholders --page 2 --page-size 5
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := app.openController(opts.tune)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := activate(cmd.Context(), ctrl, args[0]); err != nil {
				return writeErr(cmd, err)
			}
			if err := opts.apply(ctrl); err != nil {
				return writeErr(cmd, err)
			}
			sec, _ := ctrl.Section()
			v := ctrl.Table().View()
			if outFormat(app) == format.Text {
				pp := printers.New(cmd.OutOrStdout())
				pp.ShowID = true
				pp.Section(sec.Title, v)
				return nil
			}
			return writeOut(cmd, app, map[string]any{"data": sectionOutput(ctrl, v)})
		},
	}

	cmd.Flags().StringVar(&opts.search, "search", "", "Only rows containing this text")
	cmd.Flags().StringVar(&opts.sort, "sort", "", "Sort by column (label, field name or 1-based index)")
	cmd.Flags().BoolVar(&opts.desc, "desc", false, "Sort descending")
	cmd.Flags().IntVar(&opts.page, "page", 1, "Page to show")
	cmd.Flags().IntVar(&opts.pageSize, "page-size", 0, "Rows per page (default: section setting)")
	cmd.Flags().BoolVar(&opts.all, "all", false, "Disable paging")
	return cmd
}

func (o showOptions) tune(t *table.Options) {
	if o.pageSize > 0 {
		t.PageSize = o.pageSize
	}
	if o.all {
		t.Paging = false
	}
}

// apply replays the requested interactions on the freshly loaded widget.
func (o showOptions) apply(ctrl *sections.Controller) error {
	t := ctrl.Table()
	if o.search != "" {
		t.Search(o.search)
	}
	if o.sort != "" {
		col, err := columnIndex(ctrl.Payload().Fields, o.sort)
		if err != nil {
			return err
		}
		t.SortBy(col)
		if o.desc {
			t.SortBy(col)
		}
	}
	if o.page > 1 {
		t.SetPage(o.page)
	}
	return nil
}

func columnIndex(fields []model.FieldSpec, ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	for i, f := range fields {
		if strings.EqualFold(f.Name, ref) || strings.EqualFold(f.Label, ref) {
			return i, nil
		}
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(fields) {
		return n - 1, nil
	}
	return 0, fmt.Errorf("unknown column %q", ref)
}

func activate(ctx context.Context, ctrl *sections.Controller, key string) error {
	if err := ctrl.Activate(ctx, key); err != nil {
		if ctrl.State() == sections.StateError {
			return fmt.Errorf("%s: %w", sections.MsgLoadFailed, err)
		}
		return err
	}
	return nil
}

type sortOutput struct {
	Column    string `json:"column"`
	Direction string `json:"direction"`
}

type sectionView struct {
	Key       string            `json:"key"`
	Title     string            `json:"title"`
	Singleton bool              `json:"singleton"`
	Fields    []model.FieldSpec `json:"fields"`
	Rows      []model.RowRecord `json:"rows"`
	Query     string            `json:"query,omitempty"`
	Sort      *sortOutput       `json:"sort,omitempty"`
	Total     int               `json:"total"`
	Page      int               `json:"page"`
	PageCount int               `json:"pageCount"`
}

func sectionOutput(ctrl *sections.Controller, v table.View[sections.Row]) sectionView {
	sec, _ := ctrl.Section()
	p := ctrl.Payload()
	out := sectionView{
		Key:       sec.Key,
		Title:     sec.Title,
		Singleton: p.Singleton,
		Fields:    p.Fields,
		Rows:      make([]model.RowRecord, 0, len(v.Rows)),
		Query:     ctrl.Table().Query(),
		Total:     v.Total,
		Page:      v.Page,
		PageCount: v.PageCount,
	}
	for _, r := range v.Rows {
		out.Rows = append(out.Rows, r.Record)
	}
	if col, dir, ok := ctrl.Table().SortState(); ok {
		out.Sort = &sortOutput{Column: p.Fields[col].Name, Direction: dir.String()}
	}
	return out
}
