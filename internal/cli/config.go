package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"plansheet-cli/internal/format"
	"plansheet-cli/internal/store"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and edit ~/.plansheet/config.json",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the saved configuration (secrets masked)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := store.ConfigPath()
			if err != nil {
				return writeErr(cmd, err)
			}
			cfg := *app.cfg
			cfg.Token = mask(cfg.Token)
			cfg.Cookie = mask(cfg.Cookie)
			if outFormat(app) == format.Text {
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", path)
				return format.WriteJSON(cmd.OutOrStdout(), cfg, true)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"path": path, "config": cfg}})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one config key (empty value clears it)",
		Long:  "Keys: " + strings.Join(store.ConfigKeys, ", "),
		Example: strings.TrimSpace(`
plansheet config set serverUrl http://localhost:8000
plansheet config set projectId 12
plansheet config set tui.theme dark
`),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *app.cfg
			if err := store.SetConfigValue(&cfg, args[0], args[1]); err != nil {
				return writeErr(cmd, err)
			}
			if err := store.SaveConfig(&cfg); err != nil {
				return writeErr(cmd, err)
			}
			*app.cfg = cfg
			if outFormat(app) == format.Text {
				fmt.Fprintf(cmd.OutOrStdout(), "Set %s.\n", args[0])
				return nil
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"key": args[0], "ok": true}})
		},
	})
	return cmd
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", 4) + s[len(s)-2:]
}
