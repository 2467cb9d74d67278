package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a widget's note and todos",
	Long:  `Delete permanently removes every value stored for the widget, as when it is removed from the home screen.`,
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

		if err := svc.DeleteWidget(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Widget deleted: %d\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
