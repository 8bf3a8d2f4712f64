package lineage

import (
	"strings"
	"time"
)

// Stage identifies which pipeline phase produced a version.
type Stage string

const (
	StageOriginal   Stage = "original"
	StageAIDraft    Stage = "ai_draft"
	StageAIFeedback Stage = "ai_feedback"
	StageHumanEdit  Stage = "human_edit"
	StageFinal      Stage = "final"
)

var allStages = []Stage{
	StageOriginal,
	StageAIDraft,
	StageAIFeedback,
	StageHumanEdit,
	StageFinal,
}

var stageSet = func() map[Stage]struct{} {
	set := make(map[Stage]struct{}, len(allStages))
	for _, stage := range allStages {
		set[stage] = struct{}{}
	}
	return set
}()

// AllStages returns the ordered list of known stages.
func AllStages() []Stage {
	cp := make([]Stage, len(allStages))
	copy(cp, allStages)
	return cp
}

// ParseStage converts a string into a known Stage.
func ParseStage(value string) (Stage, bool) {
	normalized := Stage(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stageSet[normalized]
	return normalized, ok
}

// Status represents the lifecycle of a chapter in the pipeline.
type Status string

const (
	StatusPlanned    Status = "planned"
	StatusFetching   Status = "fetching"
	StatusFetched    Status = "fetched"
	StatusDrafting   Status = "drafting"
	StatusDrafted    Status = "drafted"
	StatusReviewing  Status = "reviewing"
	StatusReviewed   Status = "reviewed"
	StatusFinalizing Status = "finalizing"
	StatusFinal      Status = "final"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPlanned,
	StatusFetching,
	StatusFetched,
	StatusDrafting,
	StatusDrafted,
	StatusReviewing,
	StatusReviewed,
	StatusFinalizing,
	StatusFinal,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusFetching:   {},
	StatusDrafting:   {},
	StatusReviewing:  {},
	StatusFinalizing: {},
}

// ProcessingRollbacks maps each in-flight status to the durable status it
// falls back to when a run is interrupted mid-stage.
var ProcessingRollbacks = map[Status]Status{
	StatusFetching:   StatusPlanned,
	StatusDrafting:   StatusFetched,
	StatusReviewing:  StatusDrafted,
	StatusFinalizing: StatusReviewed,
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing reports whether a status reflects an in-flight stage.
func IsProcessing(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// StageLabel returns the state-machine name used in progress output and
// failure reports for the stage a status belongs to.
func (s Status) StageLabel() string {
	switch s {
	case StatusPlanned:
		return "Planned"
	case StatusFetching, StatusFetched:
		return "Fetched"
	case StatusDrafting, StatusDrafted:
		return "Drafted"
	case StatusReviewing, StatusReviewed:
		return "Reviewed"
	case StatusFinalizing, StatusFinal:
		return "Finalized"
	case StatusFailed:
		return "Failed"
	default:
		return string(s)
	}
}

// SourceKind distinguishes web-fetched chapters from local files.
type SourceKind string

const (
	SourceWeb  SourceKind = "web"
	SourceFile SourceKind = "file"
)

// ParseSourceKind converts a string into a known SourceKind.
func ParseSourceKind(value string) (SourceKind, bool) {
	switch SourceKind(strings.ToLower(strings.TrimSpace(value))) {
	case SourceWeb:
		return SourceWeb, true
	case SourceFile:
		return SourceFile, true
	default:
		return "", false
	}
}

// Chapter is the pipeline state row for one chapter's lineage.
type Chapter struct {
	ID           int64
	ChapterID    string
	Title        string
	Source       string
	SourceKind   SourceKind
	Status       Status
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SetFailed marks the chapter as failed with the given error message.
func (c *Chapter) SetFailed(message string) {
	c.Status = StatusFailed
	c.ErrorMessage = message
}

// Version is one immutable state of a chapter's text. Sequence numbers are
// assigned by the store and strictly increase within a chapter.
type Version struct {
	ID        int64
	ChapterID string
	Stage     Stage
	Sequence  int
	Text      string
	Source    string
	Metadata  map[string]string
	CreatedAt time.Time
}

// Metadata keys written by the pipeline.
const (
	MetaModel          = "model"
	MetaPromptTemplate = "prompt_template"
	MetaRunID          = "run_id"
	MetaDecision       = "decision"
	MetaApprovedBy     = "approved_by"
	MetaSummaryPath    = "summary_path"
)
