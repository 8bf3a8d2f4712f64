package pipeline

import (
	"context"

	"inkwell/internal/lineage"
)

// Review is the material presented to the human gate before finalization.
type Review struct {
	Chapter  *lineage.Chapter
	Original *lineage.Version
	Draft    *lineage.Version
	Feedback *lineage.Version
}

// Decision is the human verdict on a reviewed draft. Approve finalizes the
// draft as-is; otherwise EditedText must carry the replacement text, which is
// stored as a human edit before becoming the final version.
type Decision struct {
	Approve    bool
	EditedText string
	ApprovedBy string
}

// Gate asks a human to approve or edit a reviewed draft.
type Gate interface {
	Decide(ctx context.Context, review Review) (Decision, error)
}
