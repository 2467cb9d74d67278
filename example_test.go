package quicknote_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aretw0/quicknote"
)

// Example_basic saves a note and a todo list, then renders the widget.
func Example_basic() {
	tmpDir, err := os.MkdirTemp("", "quicknote-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	svc, err := quicknote.New(tmpDir)
	if err != nil {
		log.Fatal(err)
	}
	defer svc.Close()

	ctx := context.Background()
	if err := svc.SaveNote(ctx, 7, "  call mom  "); err != nil {
		log.Fatal(err)
	}
	todos := []quicknote.TodoItem{{Text: "milk", Completed: true}, {Text: "eggs"}}
	if err := svc.SaveTodos(ctx, 7, svc.RemoveCompleted(7, todos)); err != nil {
		log.Fatal(err)
	}

	view, err := quicknote.Render(ctx, svc, 7)
	if err != nil {
		log.Fatal(err)
	}
	left, err := svc.LoadTodos(ctx, 7)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(view.Text)
	fmt.Println(len(left), left[0].Text)
	// Output:
	// call mom
	// 1 eggs
}

// ExampleOpen edits a widget through a session.
func ExampleOpen() {
	svc, err := quicknote.New("", quicknote.WithAdapter("memory"))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if _, err := quicknote.Open(ctx, svc, 0); err != nil {
		fmt.Println(err)
	}

	s, err := quicknote.Open(ctx, svc, 3)
	if err != nil {
		log.Fatal(err)
	}
	s.SetText("draft")
	if _, err := s.AddTodo(ctx); err != nil {
		log.Fatal(err)
	}
	if err := s.SaveAndClear(ctx); err != nil {
		log.Fatal(err)
	}

	note, _ := svc.LoadNote(ctx, 3)
	todos, _ := svc.LoadTodos(ctx, 3)
	fmt.Println(note, todos[0].Text)
	// Output:
	// invalid widget id: 0
	// draft New task
}
