package prompt

// Built-in template and parameter names.
const (
	WriterTemplate   = "writer"
	ReviewerTemplate = "reviewer"

	ParamOriginal = "original"
	ParamDraft    = "draft"
)

// writerTemplateText drives the rewrite call. Keep updates centralized here
// so it is easy to tweak without hunting through call sites.
const writerTemplateText = `Rewrite the following chapter to make it more engaging and descriptive, with a focus on character emotions and setting. Preserve the plot, the characters, and the order of events. Return only the rewritten chapter text.

Original chapter text:

{{original}}`

// reviewerTemplateText drives the review call comparing an original chapter
// against a candidate rewrite.
const reviewerTemplateText = `Review the rewritten chapter below and provide feedback on its fidelity to the original, its coherence, tone, and clarity. Point out specific areas for improvement and suggest concrete edits.

Original:

{{original}}

Rewritten:

{{draft}}`

func builtinTemplates() []Template {
	return []Template{
		{
			Name:   WriterTemplate,
			Text:   writerTemplateText,
			Params: []string{ParamOriginal},
		},
		{
			Name:   ReviewerTemplate,
			Text:   reviewerTemplateText,
			Params: []string{ParamOriginal, ParamDraft},
		},
	}
}
