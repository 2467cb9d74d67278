package main

import (
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/quicknote/pkg/core"
)

// widgetExport is the YAML document printed by export.
type widgetExport struct {
	Widget       core.WidgetID   `yaml:"widget"`
	Note         string          `yaml:"note"`
	LastModified *time.Time      `yaml:"last_modified,omitempty"`
	Todos        []core.TodoItem `yaml:"todos"`
}

var exportCmd = &cobra.Command{
	Use:   "export [id]",
	Short: "Print a widget's note and todos as YAML",
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

		note, _, err := svc.LoadNoteRecord(cmd.Context(), id)
		if err != nil {
			return err
		}
		todos, err := svc.LoadTodos(cmd.Context(), id)
		if err != nil {
			return err
		}

		doc := widgetExport{Widget: id, Note: note.Content, Todos: todos}
		if !note.LastModified.IsZero() {
			ts := note.LastModified.UTC()
			doc.LastModified = &ts
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
