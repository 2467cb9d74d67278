package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/quicknote"
	"github.com/aretw0/quicknote/pkg/session"
)

var editCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Edit a widget interactively from stdin",
	Long: `Open an edit session for the widget and read commands line by line.

A plain line replaces the note text; it is saved once input pauses for the
configured debounce delay. Commands:

  :add             append a todo item
  :check N         mark item N as done
  :uncheck N       mark item N as not done
  :todo N text     replace the text of item N
  :show            print the current text and todos
  :save            save, remove completed items and exit
  :quit            exit without saving pending text

End of input saves pending text and exits.`,
	Args: cobra.ExactArgs(1),
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

		out := cmd.OutOrStdout()
		s, err := quicknote.Open(cmd.Context(), svc, id,
			session.WithDelay(cfg.Debounce),
			session.WithLogger(slog.Default()),
			session.WithErrorHandler(func(err error) {
				fmt.Fprintf(cmd.ErrOrStderr(), "auto-save failed: %v\n", err)
			}),
		)
		if err != nil {
			return err
		}
		defer s.Close()

		return runEditLoop(cmd.Context(), s, cmd.InOrStdin(), out)
	},
}

// runEditLoop feeds input lines to the session until :save, :quit or EOF.
func runEditLoop(ctx context.Context, s *session.Session, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, ":") {
			if err := s.SetText(line); err != nil {
				return err
			}
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case ":add":
			i, err := s.AddTodo(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "added todo %d\n", i+1)
		case ":check", ":uncheck":
			i, err := editIndex(fields)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			if err := s.SetTodoCompleted(ctx, i, fields[0] == ":check"); err != nil {
				fmt.Fprintln(out, err)
			}
		case ":todo":
			i, err := editIndex(fields)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line[len(":todo"):]), fields[1]))
			if err := s.SetTodoText(ctx, i, text); err != nil {
				fmt.Fprintln(out, err)
			}
		case ":show":
			fmt.Fprintln(out, s.Text())
			printTodos(out, s.Todos())
		case ":save":
			if err := s.SaveAndClear(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, "saved")
			return nil
		case ":quit":
			return nil
		default:
			fmt.Fprintf(out, "unknown command %s\n", fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	if s.Pending() {
		return s.SaveNow(ctx)
	}
	return nil
}

// editIndex parses the 1-based item number of an edit command.
func editIndex(fields []string) (int, error) {
	if len(fields) < 2 {
		return 0, fmt.Errorf("%s needs an item number", fields[0])
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid item number %q", fields[1])
	}
	return n - 1, nil
}

func init() {
	rootCmd.AddCommand(editCmd)
}
