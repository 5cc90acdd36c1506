package ai

import (
	"context"
	"strings"
	"unicode"

	"github.com/benvon/smart-todo-client/internal/models"
)

// RulesProviderName is the registry name of the keyword interpreter
const RulesProviderName = "rules"

const (
	// UnknownRequestReply is returned when no keyword matches
	UnknownRequestReply = "I'm not sure how to handle that request. You can ask me to add, list, complete, or delete tasks."
	// NoTasksReply is the list reply for an empty collection
	NoTasksReply = "You have no tasks."

	noTasksCompleteReply = "You have no tasks to complete."
	noTasksDeleteReply   = "You have no tasks to delete."
	noTasksUpdateReply   = "You have no tasks to update."
	updateUsageReply     = "Tell me the new title, for example: rename buy milk to buy oat milk."
)

var (
	updateWords   = []string{"rename", "update", "change"}
	addWords      = []string{"add", "create", "new", "make"}
	listWords     = []string{"show", "list", "view", "see"}
	completeWords = []string{"complete", "done", "finish", "completed"}
	deleteWords   = []string{"delete", "remove", "cancel"}

	// Stripped anywhere in the message before the title is taken
	titlePhrases = []string{
		"add a task to", "add task to",
		"create a task to", "create task to",
		"new task:", "task:",
	}
	leadingVerbs = map[string]bool{"add": true, "create": true, "new": true}
	leadingNouns = map[string]bool{"a": true, "an": true, "task": true, "todo": true, "to": true}
)

// RulesProvider interprets messages by keyword. It needs no network access and
// is the fallback for every other provider.
type RulesProvider struct{}

// NewRulesProvider creates a keyword interpreter
func NewRulesProvider() *RulesProvider {
	return &RulesProvider{}
}

// Name implements AIProvider
func (p *RulesProvider) Name() string { return RulesProviderName }

// Interpret implements AIProvider
func (p *RulesProvider) Interpret(_ context.Context, message string, todos []models.Todo) (*Plan, error) {
	words := keywords(message)

	switch {
	case words.any(updateWords):
		return planUpdate(message, todos), nil
	case words.any(addWords):
		title := ExtractTaskTitle(message)
		if title == "" {
			return &Plan{Reply: UnknownRequestReply}, nil
		}
		return &Plan{Actions: []Action{{Kind: ActionAdd, Title: title}}}, nil
	case words.any(listWords):
		return &Plan{Actions: []Action{{Kind: ActionList}}}, nil
	case words.any(completeWords):
		if len(todos) == 0 {
			return &Plan{Reply: noTasksCompleteReply}, nil
		}
		target := findMentioned(message, todos)
		if target == nil {
			target = firstPending(todos)
		}
		return &Plan{Actions: []Action{{Kind: ActionComplete, TodoID: target.ID}}}, nil
	case words.any(deleteWords):
		if len(todos) == 0 {
			return &Plan{Reply: noTasksDeleteReply}, nil
		}
		target := findMentioned(message, todos)
		if target == nil {
			target = &todos[0]
		}
		return &Plan{Actions: []Action{{Kind: ActionDelete, TodoID: target.ID}}}, nil
	}

	return &Plan{Reply: UnknownRequestReply}, nil
}

// "rename <old> to <new>"; the target falls back to the first todo
func planUpdate(message string, todos []models.Todo) *Plan {
	if len(todos) == 0 {
		return &Plan{Reply: noTasksUpdateReply}
	}
	idx := strings.LastIndex(strings.ToLower(message), " to ")
	if idx < 0 {
		return &Plan{Reply: updateUsageReply}
	}
	title := strings.TrimSpace(message[idx+len(" to "):])
	title = strings.TrimRight(title, ".!?")
	if title == "" {
		return &Plan{Reply: updateUsageReply}
	}
	target := findMentioned(message[:idx], todos)
	if target == nil {
		target = &todos[0]
	}
	return &Plan{Actions: []Action{{Kind: ActionUpdate, TodoID: target.ID, Title: title}}}
}

// ExtractTaskTitle pulls a todo title out of a request such as
// "add a task to buy milk, then call mum". The title ends at the first
// period or comma.
func ExtractTaskTitle(message string) string {
	s := message
	for _, phrase := range titlePhrases {
		s = replaceFold(s, phrase)
	}

	fields := strings.Fields(s)
	if len(fields) > 0 && leadingVerbs[strings.ToLower(fields[0])] {
		fields = fields[1:]
		for len(fields) > 0 && leadingNouns[strings.ToLower(strings.TrimSuffix(fields[0], ":"))] {
			fields = fields[1:]
		}
	}
	s = strings.Join(fields, " ")

	if i := strings.IndexAny(s, ".,"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func replaceFold(s, phrase string) string {
	lower := strings.ToLower(s)
	if len(lower) != len(s) {
		return strings.TrimSpace(strings.ReplaceAll(s, phrase, ""))
	}
	for {
		i := strings.Index(lower, phrase)
		if i < 0 {
			return strings.TrimSpace(s)
		}
		s = s[:i] + s[i+len(phrase):]
		lower = lower[:i] + lower[i+len(phrase):]
	}
}

// findMentioned returns the todo with the longest title that appears in the
// message, or nil.
func findMentioned(message string, todos []models.Todo) *models.Todo {
	lower := strings.ToLower(message)
	var best *models.Todo
	for i := range todos {
		title := strings.ToLower(strings.TrimSpace(todos[i].Title))
		if title == "" || !strings.Contains(lower, title) {
			continue
		}
		if best == nil || len(todos[i].Title) > len(best.Title) {
			best = &todos[i]
		}
	}
	return best
}

func firstPending(todos []models.Todo) *models.Todo {
	for i := range todos {
		if !todos[i].Completed {
			return &todos[i]
		}
	}
	return &todos[0]
}

type wordSet map[string]bool

func keywords(message string) wordSet {
	set := make(wordSet)
	for _, w := range strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		set[w] = true
	}
	return set
}

func (s wordSet) any(words []string) bool {
	for _, w := range words {
		if s[w] {
			return true
		}
	}
	return false
}
