package domain

// Statistics is a derived, read-only view over a document and its summary.
type Statistics struct {
	OriginalWords int
	SummaryWords  int

	// Compression is the percentage reduction in word count from document
	// to summary. Nil when the document has no words.
	Compression *float64
}

// Result is the outcome of one summarization run. It is owned by the
// caller; the pipeline keeps no state between invocations.
type Result struct {
	Model         string
	Summary       string
	Truncated     bool
	TruncatedTo   int
	OriginalChars int
	Stats         Statistics
}
