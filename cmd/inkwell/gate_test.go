package main

import (
	"context"
	"strings"
	"testing"

	"inkwell/internal/lineage"
	"inkwell/internal/pipeline"
)

func gateReview() pipeline.Review {
	return pipeline.Review{
		Chapter:  &lineage.Chapter{ChapterID: "ch01", Title: "Chapter One"},
		Original: &lineage.Version{Text: "original"},
		Draft:    &lineage.Version{Text: "the draft text"},
		Feedback: &lineage.Version{Text: "the feedback"},
	}
}

func TestConsoleGateApprove(t *testing.T) {
	var out strings.Builder
	gate := newConsoleGate(strings.NewReader("approve\n"), &out)

	decision, err := gate.Decide(context.Background(), gateReview())
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if !decision.Approve || decision.EditedText != "" {
		t.Fatalf("decision = %+v", decision)
	}
	if !strings.Contains(out.String(), "the draft text") || !strings.Contains(out.String(), "the feedback") {
		t.Fatalf("gate output missing review material: %q", out.String())
	}
}

func TestConsoleGateApproveIsCaseInsensitive(t *testing.T) {
	var out strings.Builder
	gate := newConsoleGate(strings.NewReader("  Approve \n"), &out)

	decision, err := gate.Decide(context.Background(), gateReview())
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if !decision.Approve {
		t.Fatalf("decision = %+v", decision)
	}
}

func TestConsoleGateEditedText(t *testing.T) {
	var out strings.Builder
	gate := newConsoleGate(strings.NewReader("a better chapter\n"), &out)

	decision, err := gate.Decide(context.Background(), gateReview())
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decision.Approve {
		t.Fatal("edited input should not approve")
	}
	if decision.EditedText != "a better chapter" {
		t.Fatalf("edited text = %q", decision.EditedText)
	}
}

func TestConsoleGateMultiLineEdit(t *testing.T) {
	var out strings.Builder
	input := "first paragraph\n\nsecond paragraph\n.\nignored trailing text\n"
	gate := newConsoleGate(strings.NewReader(input), &out)

	decision, err := gate.Decide(context.Background(), gateReview())
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decision.EditedText != "first paragraph\n\nsecond paragraph" {
		t.Fatalf("edited text = %q", decision.EditedText)
	}
}

func TestConsoleGateNoInput(t *testing.T) {
	var out strings.Builder
	gate := newConsoleGate(strings.NewReader(""), &out)

	if _, err := gate.Decide(context.Background(), gateReview()); err == nil {
		t.Fatal("expected error when no decision is entered")
	}
}
