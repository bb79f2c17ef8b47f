// Package prompt assembles the generation prompt from retrieved knowledge
// snippets, trimmed conversation memory, and the current question.
package prompt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
)

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message of a conversation history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RetrieveFn fetches knowledge snippets relevant to a query, most relevant
// first. It may fail; the assembler treats failure as an empty context.
type RetrieveFn func(ctx context.Context, query string) ([]string, error)

// DefaultTemplate is the built-in prompt wording: persona, guardrails, and
// the generation cue. Overridable via configuration; it must reference
// .Context, .Memory and .Question.
const DefaultTemplate = `You are a helpful assistant for NileEdge Innovations.
Answer using only the website information below. If the information needed to
answer is not there, say you are not sure and invite the user to reach the
team through the official contact page. Do not guess.

Context:
{{.Context}}

{{.Memory}}User: {{.Question}}
Assistant:`

// Assembler builds generation prompts.
type Assembler struct {
	retrieve RetrieveFn
	window   int // max well-formed turns included as memory
	tmpl     *template.Template
	logger   *slog.Logger
}

// New creates an Assembler. templateText empty selects DefaultTemplate.
func New(retrieve RetrieveFn, window int, templateText string, logger *slog.Logger) (*Assembler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if templateText == "" {
		templateText = DefaultTemplate
	}
	tmpl, err := template.New("prompt").Parse(templateText)
	if err != nil {
		return nil, fmt.Errorf("parsing prompt template: %w", err)
	}
	return &Assembler{retrieve: retrieve, window: window, tmpl: tmpl, logger: logger}, nil
}

// Assemble renders the full generation prompt for query.
//
// Knowledge retrieval failures degrade to an empty context: losing
// background knowledge is preferable to failing the whole request.
// Malformed history is filtered, never an error.
func (a *Assembler) Assemble(ctx context.Context, query string, history []Turn) string {
	snippets, err := a.retrieve(ctx, query)
	if err != nil {
		a.logger.Warn("knowledge retrieval failed, proceeding without context", "error", err)
		snippets = nil
	}

	data := struct {
		Context  string
		Memory   string
		Question string
	}{
		Context:  strings.Join(snippets, "\n"), // relevance order preserved
		Memory:   renderMemory(history, a.window),
		Question: query,
	}

	var b strings.Builder
	if err := a.tmpl.Execute(&b, data); err != nil {
		// Template data is a fixed struct, so execution cannot fail for the
		// built-in template; a broken override falls back to a bare prompt.
		a.logger.Error("prompt template execution failed", "error", err)
		return data.Memory + "User: " + query + "\nAssistant:"
	}
	return b.String()
}

// renderMemory renders the last window well-formed turn pairs as
// alternating "User:"/"Assistant:" lines in original order.
//
// A well-formed pair is a user turn with non-empty content immediately
// followed by an assistant turn with non-empty content. Anything else is
// dropped silently.
func renderMemory(history []Turn, window int) string {
	type pair struct{ question, answer string }

	var pairs []pair
	for i := 0; i+1 < len(history); i++ {
		u, a := history[i], history[i+1]
		if u.Role != RoleUser || a.Role != RoleAssistant {
			continue
		}
		if strings.TrimSpace(u.Content) == "" || strings.TrimSpace(a.Content) == "" {
			continue
		}
		pairs = append(pairs, pair{u.Content, a.Content})
		i++ // consume the assistant turn
	}

	if len(pairs) > window {
		pairs = pairs[len(pairs)-window:]
	}

	var b strings.Builder
	for _, p := range pairs {
		fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", p.question, p.answer)
	}
	return b.String()
}
