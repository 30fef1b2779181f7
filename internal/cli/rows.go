package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"plansheet-cli/internal/format"
	"plansheet-cli/internal/printers"
	"plansheet-cli/internal/sections"
)

func newRowsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rows",
		Short: "Add, edit and delete section rows",
	}
	cmd.AddCommand(newRowsAddCmd(app))
	cmd.AddCommand(newRowsEditCmd(app))
	cmd.AddCommand(newRowsDeleteCmd(app))
	return cmd
}

type editOptions struct {
	sets        []string
	interactive bool
}

func (o *editOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&o.sets, "set", nil, "Field value as field=value (repeatable)")
	cmd.Flags().BoolVarP(&o.interactive, "interactive", "i", false, "Prompt for every field")
}

func newRowsAddCmd(app *App) *cobra.Command {
	var opts editOptions
	cmd := &cobra.Command{
		Use:   "add <section-key>",
		Short: "Add a row (on a singleton section: edit its record)",
		Example: strings.TrimSpace(`
plansheet rows add deliverables --set sl_no=13 --set work_product="Test report"
plansheet rows add product-overview -i
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, app, args[0], "", opts)
		},
	}
	opts.bind(cmd)
	return cmd
}

func newRowsEditCmd(app *App) *cobra.Command {
	var opts editOptions
	cmd := &cobra.Command{
		Use:   "edit <section-key> <row-id>",
		Short: "Edit a row",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, app, args[0], args[1], opts)
		},
	}
	opts.bind(cmd)
	return cmd
}

func runEdit(cmd *cobra.Command, app *App, key, rowID string, opts editOptions) error {
	ctx := cmd.Context()
	ctrl, err := app.openController(nil)
	if err != nil {
		return writeErr(cmd, err)
	}
	if err := activate(ctx, ctrl, key); err != nil {
		return writeErr(cmd, err)
	}
	sess, err := ctrl.Begin(rowID)
	if err != nil {
		return writeErr(cmd, err)
	}
	for _, a := range opts.sets {
		name, value, ok := strings.Cut(a, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return writeErr(cmd, badAssignmentError{arg: a})
		}
		if !sess.Form.Set(strings.TrimSpace(name), value) {
			return writeErr(cmd, unknownFieldError{section: key, field: name})
		}
	}

	pp := printers.New(cmd.ErrOrStderr())
	for {
		if opts.interactive {
			pp.Title(sess.Title)
			if err := fillForm(ctx, app.prompts, sess.Form); err != nil {
				return writeErr(cmd, err)
			}
		}
		err := ctrl.Submit(ctx)
		if err == nil {
			break
		}
		var merr *sections.MutationError
		if !errors.As(err, &merr) {
			return writeErr(cmd, err)
		}
		if opts.interactive && ctrl.Form() != nil && len(merr.Mapping.Fields) > 0 {
			pp.FormErrors(sess.Form)
			continue
		}
		return writeFailure(cmd, app, err)
	}

	if outFormat(app) == format.Text {
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s.\n", key)
		return nil
	}
	return writeOut(cmd, app, map[string]any{"data": sectionOutput(ctrl, ctrl.Table().View())})
}

func newRowsDeleteCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <section-key> <row-id>",
		Short: "Delete a row",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctrl, err := app.openController(nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := activate(ctx, ctrl, args[0]); err != nil {
				return writeErr(cmd, err)
			}
			confirmed := false
			confirm := sections.ConfirmFunc(func(ctx context.Context, prompt string) (bool, error) {
				if yes {
					confirmed = true
					return true, nil
				}
				ok, err := app.prompts.Confirm(ctx, prompt)
				confirmed = ok
				return ok, err
			})
			if err := ctrl.Delete(ctx, args[1], confirm); err != nil {
				return writeFailure(cmd, app, err)
			}
			if outFormat(app) == format.Text {
				if confirmed {
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted row %s from %s.\n", args[1], args[0])
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				}
				return nil
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"section": args[0],
				"id":      args[1],
				"deleted": confirmed,
			}})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

// writeFailure reports a rejected write; structured formats get the field
// messages as data on stdout.
func writeFailure(cmd *cobra.Command, app *App, err error) error {
	if outFormat(app) != format.Text {
		if payload, ok := saveErrorPayload(err); ok {
			_ = writeOut(cmd, app, payload)
			return err
		}
	}
	var merr *sections.MutationError
	if errors.As(err, &merr) && !merr.Mapping.Empty() {
		pp := printers.New(cmd.ErrOrStderr())
		for _, msg := range merr.Mapping.Form {
			pp.Notice(msg)
		}
		for _, name := range sortedKeys(merr.Mapping.Fields) {
			for _, msg := range merr.Mapping.Fields[name] {
				pp.Notice(name + ": " + msg)
			}
		}
		return err
	}
	return writeErr(cmd, err)
}
