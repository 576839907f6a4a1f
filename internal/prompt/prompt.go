package prompt

import (
	"fmt"
	"log/slog"
)

const (
	DefaultMaxChars  = 8000
	TruncationMarker = "..."

	template = `Please provide a comprehensive summary of the following text.
Focus on the main points, key arguments, and important conclusions:

%s

Summary:`
)

// Prompt is a model-ready instruction wrapped around (possibly truncated)
// document text.
type Prompt struct {
	Text string

	// Truncated is set when the document text exceeded the character budget;
	// TruncatedTo then holds the budget the text was cut to.
	Truncated     bool
	TruncatedTo   int
	OriginalChars int
}

// Builder wraps document text into the instruction template, truncating to
// a fixed character budget first. Output is deterministic for identical
// input and budget.
type Builder struct {
	maxChars int
	log      *slog.Logger
}

func NewBuilder(maxChars int, log *slog.Logger) *Builder {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	return &Builder{
		maxChars: maxChars,
		log:      log,
	}
}

// Build truncates on a local copy; the caller's text is never mutated.
func (b *Builder) Build(text string) Prompt {
	p := Prompt{OriginalChars: len(text)}

	if len(text) > b.maxChars {
		text = text[:b.maxChars] + TruncationMarker
		p.Truncated = true
		p.TruncatedTo = b.maxChars

		b.log.Warn("Document text truncated for processing",
			"maxChars", b.maxChars,
			"originalChars", p.OriginalChars)
	}

	p.Text = fmt.Sprintf(template, text)

	return p
}
