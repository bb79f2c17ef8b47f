package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ChantelleAA/response-aigent/internal/log"
)

func noRetrieval(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

func fixedRetrieval(snippets ...string) RetrieveFn {
	return func(_ context.Context, _ string) ([]string, error) {
		return snippets, nil
	}
}

func mustNew(t *testing.T, retrieve RetrieveFn, window int) *Assembler {
	t.Helper()
	a, err := New(retrieve, window, "", log.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestAssembleIncludesContextInOrder(t *testing.T) {
	t.Parallel()

	a := mustNew(t, fixedRetrieval("first snippet", "second snippet", "third snippet"), 5)
	got := a.Assemble(context.Background(), "what do you sell", nil)

	want := "first snippet\nsecond snippet\nthird snippet"
	if !strings.Contains(got, want) {
		t.Errorf("prompt missing ordered context:\n%s", got)
	}
	if !strings.Contains(got, "User: what do you sell\nAssistant:") {
		t.Errorf("prompt missing question and generation cue:\n%s", got)
	}
}

func TestAssembleRetrievalFailureDegrades(t *testing.T) {
	t.Parallel()

	failing := func(_ context.Context, _ string) ([]string, error) {
		return nil, errors.New("vector store unavailable")
	}
	a := mustNew(t, failing, 5)

	got := a.Assemble(context.Background(), "hello", nil)
	if !strings.Contains(got, "User: hello") {
		t.Errorf("prompt must still be produced without context:\n%s", got)
	}
}

func TestAssembleMemoryWindow(t *testing.T) {
	t.Parallel()

	var history []Turn
	for i := 1; i <= 8; i++ {
		history = append(history,
			Turn{Role: RoleUser, Content: fmt.Sprintf("question %d", i)},
			Turn{Role: RoleAssistant, Content: fmt.Sprintf("answer %d", i)},
		)
	}

	a := mustNew(t, noRetrieval, 5)
	got := a.Assemble(context.Background(), "current", history)

	// Only the most recent five pairs survive, in original order.
	for i := 1; i <= 3; i++ {
		if strings.Contains(got, fmt.Sprintf("question %d", i)) {
			t.Errorf("turn %d should be outside the memory window:\n%s", i, got)
		}
	}
	for i := 4; i <= 8; i++ {
		if !strings.Contains(got, fmt.Sprintf("User: question %d\nAssistant: answer %d\n", i, i)) {
			t.Errorf("turn %d missing from memory:\n%s", i, got)
		}
	}
	if strings.Index(got, "question 4") > strings.Index(got, "question 8") {
		t.Error("memory pairs out of original order")
	}
}

func TestRenderMemoryFiltersMalformedHistory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		history []Turn
		want    string
	}{
		{
			name:    "nil history",
			history: nil,
			want:    "",
		},
		{
			name:    "single user turn without answer",
			history: []Turn{{Role: RoleUser, Content: "dangling"}},
			want:    "",
		},
		{
			name: "empty assistant content dropped",
			history: []Turn{
				{Role: RoleUser, Content: "q1"},
				{Role: RoleAssistant, Content: "   "},
				{Role: RoleUser, Content: "q2"},
				{Role: RoleAssistant, Content: "a2"},
			},
			want: "User: q2\nAssistant: a2\n",
		},
		{
			name: "out of order roles dropped",
			history: []Turn{
				{Role: RoleAssistant, Content: "orphan answer"},
				{Role: RoleUser, Content: "q"},
				{Role: RoleAssistant, Content: "a"},
			},
			want: "User: q\nAssistant: a\n",
		},
		{
			name: "unknown role dropped",
			history: []Turn{
				{Role: "system", Content: "be nice"},
				{Role: RoleUser, Content: "q"},
				{Role: RoleAssistant, Content: "a"},
			},
			want: "User: q\nAssistant: a\n",
		},
		{
			name: "consecutive user turns keep the answered one",
			history: []Turn{
				{Role: RoleUser, Content: "ignored"},
				{Role: RoleUser, Content: "q"},
				{Role: RoleAssistant, Content: "a"},
			},
			want: "User: q\nAssistant: a\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := renderMemory(tt.history, 5); got != tt.want {
				t.Errorf("renderMemory() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewRejectsBrokenTemplate(t *testing.T) {
	t.Parallel()

	if _, err := New(noRetrieval, 5, "{{.Unclosed", log.NewNop()); err == nil {
		t.Error("expected parse error for broken template override")
	}
}

func TestCustomTemplate(t *testing.T) {
	t.Parallel()

	a, err := New(fixedRetrieval("snippet"), 5, "CTX={{.Context}} Q={{.Question}}", log.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := a.Assemble(context.Background(), "hi", nil)
	if got != "CTX=snippet Q=hi" {
		t.Errorf("Assemble() = %q", got)
	}
}
