// Package render builds the text model shown by a widget: the note body
// and the time it was last saved.
package render

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/quicknote/pkg/core"
)

const (
	// DefaultText is shown by a widget that never saved a note.
	DefaultText = "Tap to add a note"
	// DefaultLayout renders timestamps as day/month/year hour:minute.
	DefaultLayout = "02/01/06 15:04"
)

// View is what a widget displays.
type View struct {
	WidgetID     core.WidgetID
	Text         string
	DateTime     string
	LastModified time.Time
	// Saved is false when Text is the default placeholder.
	Saved bool
	Todos []core.TodoItem
}

// String formats the view as a small text card.
func (v View) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] widget %d\n", v.DateTime, v.WidgetID)
	b.WriteString(v.Text)
	b.WriteByte('\n')
	for i, item := range v.Todos {
		mark := " "
		if item.Completed {
			mark = "x"
		}
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, mark, item.Text)
	}
	return b.String()
}

type options struct {
	defaultText string
	layout      string
	now         func() time.Time
	location    *time.Location
	todos       bool
}

// Option configures Render.
type Option func(*options)

// WithDefaultText replaces the placeholder shown for a never-saved note.
func WithDefaultText(text string) Option {
	return func(o *options) {
		if text != "" {
			o.defaultText = text
		}
	}
}

// WithLayout sets the time.Format layout of DateTime.
func WithLayout(layout string) Option {
	return func(o *options) {
		if layout != "" {
			o.layout = layout
		}
	}
}

// WithNow overrides the clock used when no timestamp was saved.
func WithNow(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithLocation sets the zone DateTime is rendered in. Default is time.Local.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		o.location = loc
	}
}

// WithTodos includes the todo list in the view.
func WithTodos() Option {
	return func(o *options) {
		o.todos = true
	}
}

// Render reads the widget's state and produces its view.
// A missing note shows the default text; a missing timestamp shows now.
func Render(ctx context.Context, svc *core.Service, id core.WidgetID, opts ...Option) (View, error) {
	o := options{
		defaultText: DefaultText,
		layout:      DefaultLayout,
		now:         time.Now,
		location:    time.Local,
	}
	for _, opt := range opts {
		opt(&o)
	}

	note, saved, err := svc.LoadNoteRecord(ctx, id)
	if err != nil {
		return View{}, err
	}

	v := View{WidgetID: id, Text: note.Content, LastModified: note.LastModified, Saved: saved}
	if !saved {
		v.Text = o.defaultText
	}
	if v.LastModified.IsZero() {
		v.LastModified = o.now()
	}
	v.DateTime = v.LastModified.In(o.location).Format(o.layout)

	if o.todos {
		todos, err := svc.LoadTodos(ctx, id)
		if err != nil {
			return View{}, err
		}
		v.Todos = todos
	}
	return v, nil
}
