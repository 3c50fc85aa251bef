package post

import (
	"errors"
	"strings"
	"time"
)

// XPPerTodo is the XP shown per todo item on a draft.
const XPPerTodo = 10

const dateLayout = "01/02/2006"

var ErrIncompleteDraft = errors.New("post: incomplete draft")

// Draft is the structured form a user fills in before posting.
type Draft struct {
	Title       string
	Description string
	Todos       []string
	Date        time.Time
}

// cleanTodos returns the non-blank todos, trimmed.
func (d Draft) cleanTodos() []string {
	out := make([]string, 0, len(d.Todos))
	for _, t := range d.Todos {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// XP is the informational reward for the draft.
func (d Draft) XP() int {
	return XPPerTodo * len(d.cleanTodos())
}

// Compose renders the draft as post content:
//
//	<title>
//	<description>
//	Todos: a, b
//	Date: MM/DD/YYYY
func Compose(d Draft) (string, error) {
	title := strings.TrimSpace(d.Title)
	desc := strings.TrimSpace(d.Description)
	todos := d.cleanTodos()
	if title == "" || desc == "" || len(todos) == 0 || d.Date.IsZero() {
		return "", ErrIncompleteDraft
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteByte('\n')
	b.WriteString(desc)
	b.WriteString("\nTodos: ")
	b.WriteString(strings.Join(todos, ", "))
	b.WriteString("\nDate: ")
	b.WriteString(d.Date.Format(dateLayout))
	return b.String(), nil
}
