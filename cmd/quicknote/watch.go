package main

import (
	"fmt"

	"github.com/aretw0/lifecycle"
	"github.com/spf13/cobra"

	"github.com/aretw0/quicknote"
	qlifecycle "github.com/aretw0/quicknote/pkg/adapters/lifecycle"
	"github.com/aretw0/quicknote/pkg/core"
	"github.com/aretw0/quicknote/pkg/render"
)

var watchPattern string

var watchCmd = &cobra.Command{
	Use:   "watch [id...]",
	Short: "Follow changes made to the store",
	Long: `Print every change other processes make to the store until interrupted.
With widget ids, re-render those widgets on each change instead, like a
home screen refreshing its widgets.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]core.WidgetID, 0, len(args))
		for _, arg := range args {
			id, err := parseWidget(arg)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}

		svc, err := openService()
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx := lifecycle.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		events, err := svc.Watch(ctx, watchPattern)
		if err != nil {
			return err
		}
		src := qlifecycle.NewSource(events)
		if err := src.Start(ctx); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "watching %s (Ctrl+C to stop)\n", cfg.Store)
		for e := range src.Events() {
			if len(ids) == 0 {
				fmt.Fprintln(out, e.String())
				continue
			}
			for _, id := range ids {
				view, err := quicknote.Render(ctx, svc, id,
					render.WithLayout(cfg.DateLayout),
					render.WithDefaultText(cfg.DefaultNote),
					render.WithTodos())
				if err != nil {
					return err
				}
				fmt.Fprint(out, view.String())
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchPattern, "pattern", "", "Namespace files to watch (glob, default *.json)")
}
