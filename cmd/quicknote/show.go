package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/quicknote"
	"github.com/aretw0/quicknote/pkg/render"
)

var showTodos bool

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a widget as it is rendered",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseWidget(args[0])
		if err != nil {
			return err
		}
		svc, err := openService()
		if err != nil {
			return err
		}
		defer svc.Close()

		opts := []render.Option{
			render.WithLayout(cfg.DateLayout),
			render.WithDefaultText(cfg.DefaultNote),
		}
		if showTodos {
			opts = append(opts, render.WithTodos())
		}
		view, err := quicknote.Render(cmd.Context(), svc, id, opts...)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), view.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showTodos, "todos", true, "Include the todo list")
}
