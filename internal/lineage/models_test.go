package lineage_test

import (
	"testing"

	"inkwell/internal/lineage"
)

func TestParseStage(t *testing.T) {
	stage, ok := lineage.ParseStage("  AI_Draft ")
	if !ok || stage != lineage.StageAIDraft {
		t.Fatalf("ParseStage = %q, %v", stage, ok)
	}
	if _, ok := lineage.ParseStage("draft"); ok {
		t.Fatal("expected unknown stage to be rejected")
	}
	if _, ok := lineage.ParseStage(""); ok {
		t.Fatal("expected empty stage to be rejected")
	}
}

func TestParseStatus(t *testing.T) {
	status, ok := lineage.ParseStatus("Reviewed")
	if !ok || status != lineage.StatusReviewed {
		t.Fatalf("ParseStatus = %q, %v", status, ok)
	}
	if _, ok := lineage.ParseStatus("ripping"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
}

func TestIsProcessingAndRollbacks(t *testing.T) {
	for processing, durable := range lineage.ProcessingRollbacks {
		if !lineage.IsProcessing(processing) {
			t.Errorf("%s should be processing", processing)
		}
		if lineage.IsProcessing(durable) {
			t.Errorf("%s should be durable", durable)
		}
	}
	if lineage.IsProcessing(lineage.StatusFinal) {
		t.Error("final should not be processing")
	}
}

func TestStageLabels(t *testing.T) {
	cases := map[lineage.Status]string{
		lineage.StatusFetching:   "Fetched",
		lineage.StatusDrafting:   "Drafted",
		lineage.StatusReviewing:  "Reviewed",
		lineage.StatusFinalizing: "Finalized",
		lineage.StatusFinal:      "Finalized",
		lineage.StatusFailed:     "Failed",
	}
	for status, want := range cases {
		if got := status.StageLabel(); got != want {
			t.Errorf("StageLabel(%s) = %q, want %q", status, got, want)
		}
	}
}

func TestParseSourceKind(t *testing.T) {
	if kind, ok := lineage.ParseSourceKind("WEB"); !ok || kind != lineage.SourceWeb {
		t.Fatalf("ParseSourceKind(WEB) = %q, %v", kind, ok)
	}
	if _, ok := lineage.ParseSourceKind("ftp"); ok {
		t.Fatal("expected unknown source kind to be rejected")
	}
}
