package layout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const Columns = 12

var (
	ErrNotFound      = errors.New("layout not found")
	ErrInvalidLayout = errors.New("invalid layout")
	ErrInvalidPatch  = errors.New("invalid layout patch")
)

type Kind string

const (
	KindMatters  Kind = "matters"
	KindInvoices Kind = "invoices"
	KindLeaves   Kind = "leaves"
	KindTasks    Kind = "tasks"
	KindCalendar Kind = "calendar"
)

var kinds = map[Kind]bool{
	KindMatters:  true,
	KindInvoices: true,
	KindLeaves:   true,
	KindTasks:    true,
	KindCalendar: true,
}

// Widget is a tile on a grid of Columns columns.
type Widget struct {
	ID     string `json:"id"`
	Kind   Kind   `json:"kind"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	W      int    `json:"w"`
	H      int    `json:"h"`
	Hidden bool   `json:"hidden"`
}

type Layout struct {
	UserID    string    `json:"userId"`
	Widgets   []Widget  `json:"widgets"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store persists one layout per user.
type Store interface {
	Load(ctx context.Context, userID string) (Layout, error)
	Save(ctx context.Context, l Layout) error
	Delete(ctx context.Context, userID string) error
}

func Default(userID string) Layout {
	return Layout{
		UserID: userID,
		Widgets: []Widget{
			{ID: "matters", Kind: KindMatters, X: 0, Y: 0, W: 8, H: 4},
			{ID: "tasks", Kind: KindTasks, X: 8, Y: 0, W: 4, H: 4},
			{ID: "invoices", Kind: KindInvoices, X: 0, Y: 4, W: 6, H: 3},
			{ID: "leaves", Kind: KindLeaves, X: 6, Y: 4, W: 6, H: 3},
		},
	}
}

// Validate reports every problem with the widget list in one error.
func (l Layout) Validate() error {
	var problems []string
	seen := make(map[string]bool, len(l.Widgets))
	for i, w := range l.Widgets {
		id := strings.TrimSpace(w.ID)
		switch {
		case id == "":
			problems = append(problems, fmt.Sprintf("widget %d: id is required", i))
		case seen[id]:
			problems = append(problems, fmt.Sprintf("widget %q: duplicate id", id))
		}
		seen[id] = true
		if !kinds[w.Kind] {
			problems = append(problems, fmt.Sprintf("widget %q: unknown kind %q", id, w.Kind))
		}
		if w.W < 1 || w.H < 1 {
			problems = append(problems, fmt.Sprintf("widget %q: size must be positive", id))
		}
		if w.X < 0 || w.Y < 0 || w.X+w.W > Columns {
			problems = append(problems, fmt.Sprintf("widget %q: outside the %d column grid", id, Columns))
		}
	}
	if len(problems) > 0 {
		return errors.Wrap(ErrInvalidLayout, strings.Join(problems, "; "))
	}
	return nil
}
