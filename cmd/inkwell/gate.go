package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"inkwell/internal/pipeline"
)

// consoleGate asks the operator to approve or replace a reviewed draft on
// the terminal. Typing "approve" accepts the draft as-is; anything else
// starts a replacement text, read until a line holding a single "." or EOF.
type consoleGate struct {
	in  io.Reader
	out io.Writer
}

func newConsoleGate(in io.Reader, out io.Writer) *consoleGate {
	return &consoleGate{in: in, out: out}
}

func (g *consoleGate) Decide(ctx context.Context, review pipeline.Review) (pipeline.Decision, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.Decision{}, err
	}

	fmt.Fprintf(g.out, "\n=== %s ===\n", review.Chapter.Title)
	fmt.Fprintln(g.out, "\n--- AI draft ---")
	fmt.Fprintln(g.out, review.Draft.Text)
	fmt.Fprintln(g.out, "\n--- Reviewer feedback ---")
	fmt.Fprintln(g.out, review.Feedback.Text)
	fmt.Fprintln(g.out, "\nType 'approve' to accept the draft, or enter replacement text")
	fmt.Fprintln(g.out, "(finish a replacement with a single '.' on its own line):")

	scanner := bufio.NewScanner(g.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return pipeline.Decision{}, fmt.Errorf("read gate decision: %w", err)
		}
		return pipeline.Decision{}, fmt.Errorf("no gate decision entered")
	}

	first := scanner.Text()
	decision := pipeline.Decision{ApprovedBy: currentUser()}
	if strings.EqualFold(strings.TrimSpace(first), "approve") {
		decision.Approve = true
		return decision, nil
	}

	lines := []string{first}
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "." {
			break
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return pipeline.Decision{}, fmt.Errorf("read replacement text: %w", err)
	}
	decision.EditedText = strings.Join(lines, "\n")
	return decision, nil
}

func currentUser() string {
	if name := strings.TrimSpace(os.Getenv("USER")); name != "" {
		return name
	}
	return "operator"
}
