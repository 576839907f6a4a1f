package pipeline

import (
	"strings"

	"docsum/internal/domain"
)

// computeStatistics derives word counts and the compression ratio. The
// ratio is left nil when the document has no words.
func computeStatistics(text, summary string) domain.Statistics {
	stats := domain.Statistics{
		OriginalWords: len(strings.Fields(text)),
		SummaryWords:  len(strings.Fields(summary)),
	}

	if stats.OriginalWords > 0 {
		ratio := (1 - float64(stats.SummaryWords)/float64(stats.OriginalWords)) * 100
		stats.Compression = &ratio
	}

	return stats
}
