package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/benvon/smart-todo-client/internal/models"
)

// Output formats accepted by --output
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	summaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	userTurnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	assistantTurnStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212"))
)

func validOutput(format string) error {
	switch format {
	case OutputTable, OutputJSON, OutputYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (must be table, json or yaml)", format)
	}
}

// render writes v as JSON or YAML, or calls table for the human format
func render(w io.Writer, format string, v any, table func(io.Writer) error) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case OutputYAML:
		return renderYAML(w, v)
	default:
		return table(w)
	}
}

// renderYAML goes through the JSON encoding so that field names and
// timestamps match the API, then re-emits it in block style.
func renderYAML(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	blockStyle(&doc)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return err
	}
	return enc.Close()
}

func blockStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle | yaml.DoubleQuotedStyle
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// renderTodos prints the collection as a table. pending reports in-flight
// changes per id; those rows get a "saving" marker. It may be nil.
func renderTodos(w io.Writer, todos []models.Todo, summary string, pending func(id string) int) error {
	if len(todos) == 0 {
		_, err := fmt.Fprintln(w, headerStyle.Render("No todos yet."))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, headerStyle.Render("DONE")+"\t"+headerStyle.Render("TITLE")+"\t"+headerStyle.Render("ID")+"\t")
	for _, t := range todos {
		mark := pendingStyle.Render("[ ]")
		if t.Completed {
			mark = doneStyle.Render("[x]")
		}
		title := t.Title
		if t.Description != nil && *t.Description != "" {
			title += summaryStyle.Render(" - " + *t.Description)
		}
		if pending != nil && pending(t.ID) > 0 {
			title += pendingStyle.Render(" (saving)")
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t\n", mark, title, idStyle.Render(t.ID))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if summary != "" {
		_, err := fmt.Fprintln(w, summaryStyle.Render(summary))
		return err
	}
	return nil
}

func renderUser(w io.Writer, user *models.User) error {
	_, err := fmt.Fprintf(w, "%s %s <%s>\n%s\n",
		headerStyle.Render("User"), user.Username, user.Email, idStyle.Render(user.ID))
	return err
}

func renderTurn(w io.Writer, turn models.ChatTurn) error {
	label := assistantTurnStyle.Render("assistant>")
	if turn.Role == models.ChatRoleUser {
		label = userTurnStyle.Render("you>")
	}
	lines := strings.Split(turn.Content, "\n")
	if _, err := fmt.Fprintf(w, "%s %s\n", label, lines[0]); err != nil {
		return err
	}
	indent := strings.Repeat(" ", lipgloss.Width(label)+1)
	for _, line := range lines[1:] {
		if _, err := fmt.Fprintf(w, "%s%s\n", indent, line); err != nil {
			return err
		}
	}
	return nil
}
