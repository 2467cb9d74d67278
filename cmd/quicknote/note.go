package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Read or replace a widget's note",
}

var noteGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Print the note text",
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

		text, err := svc.LoadNote(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

var noteSetCmd = &cobra.Command{
	Use:   "set [id] [text...]",
	Short: "Replace the note text",
	Long:  `Replace the note text with the remaining arguments, or with stdin when none are given.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseWidget(args[0])
		if err != nil {
			return err
		}

		text := strings.Join(args[1:], " ")
		if len(args) == 1 {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			text = string(data)
		}

		svc, err := openService()
		if err != nil {
			return err
		}
		defer svc.Close()

		if err := svc.SaveNote(cmd.Context(), id, text); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Note of widget %d saved.\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(noteCmd)
	noteCmd.AddCommand(noteGetCmd, noteSetCmd)
}
