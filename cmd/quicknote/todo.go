package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/quicknote/pkg/core"
)

var todoCmd = &cobra.Command{
	Use:   "todo",
	Short: "Manage a widget's todo list",
}

// printTodos writes the list numbered from 1, as the CLI addresses items.
func printTodos(w io.Writer, items []core.TodoItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "(no todos)")
		return
	}
	for i, item := range items {
		mark := " "
		if item.Completed {
			mark = "x"
		}
		fmt.Fprintf(w, "%d. [%s] %s\n", i+1, mark, item.Text)
	}
}

// parseIndex converts a 1-based item number into a list index.
func parseIndex(arg string, items []core.TodoItem) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(items) {
		return 0, fmt.Errorf("no todo number %s (list has %d)", arg, len(items))
	}
	return n - 1, nil
}

// updateTodos loads the list, applies fn and saves the result.
func updateTodos(ctx context.Context, out io.Writer, arg string, fn func(items []core.TodoItem) ([]core.TodoItem, error)) error {
	id, err := parseWidget(arg)
	if err != nil {
		return err
	}
	svc, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	items, err := svc.LoadTodos(ctx, id)
	if err != nil {
		return err
	}
	items, err = fn(items)
	if err != nil {
		return err
	}
	if err := svc.SaveTodos(ctx, id, items); err != nil {
		return err
	}
	printTodos(out, items)
	return nil
}

var todoListCmd = &cobra.Command{
	Use:   "list [id]",
	Short: "List the todo items",
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

		items, err := svc.LoadTodos(cmd.Context(), id)
		if err != nil {
			return err
		}
		printTodos(cmd.OutOrStdout(), items)
		return nil
	},
}

var todoAddCmd = &cobra.Command{
	Use:   "add [id] [text...]",
	Short: "Append an item (default text: \"" + core.DefaultTodoText + "\")",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args[1:], " ")
		if text == "" {
			text = core.DefaultTodoText
		}
		return updateTodos(cmd.Context(), cmd.OutOrStdout(), args[0], func(items []core.TodoItem) ([]core.TodoItem, error) {
			return append(items, core.NewTodoItem(text)), nil
		})
	},
}

func setCompleted(completed bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return updateTodos(cmd.Context(), cmd.OutOrStdout(), args[0], func(items []core.TodoItem) ([]core.TodoItem, error) {
			i, err := parseIndex(args[1], items)
			if err != nil {
				return nil, err
			}
			items[i].Completed = completed
			return items, nil
		})
	}
}

var todoCheckCmd = &cobra.Command{
	Use:   "check [id] [n]",
	Short: "Mark item n as done",
	Args:  cobra.ExactArgs(2),
	RunE:  setCompleted(true),
}

var todoUncheckCmd = &cobra.Command{
	Use:   "uncheck [id] [n]",
	Short: "Mark item n as not done",
	Args:  cobra.ExactArgs(2),
	RunE:  setCompleted(false),
}

var todoTextCmd = &cobra.Command{
	Use:   "text [id] [n] [text...]",
	Short: "Replace the text of item n",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateTodos(cmd.Context(), cmd.OutOrStdout(), args[0], func(items []core.TodoItem) ([]core.TodoItem, error) {
			i, err := parseIndex(args[1], items)
			if err != nil {
				return nil, err
			}
			items[i].Text = strings.Join(args[2:], " ")
			return items, nil
		})
	},
}

var todoClearCmd = &cobra.Command{
	Use:   "clear [id]",
	Short: "Remove the completed items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateTodos(cmd.Context(), cmd.OutOrStdout(), args[0], func(items []core.TodoItem) ([]core.TodoItem, error) {
			return core.RemoveCompleted(items), nil
		})
	},
}

func init() {
	rootCmd.AddCommand(todoCmd)
	todoCmd.AddCommand(todoListCmd, todoAddCmd, todoCheckCmd, todoUncheckCmd, todoTextCmd, todoClearCmd)
}
