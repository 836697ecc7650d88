package worker

import (
	"log/slog"

	"github.com/ShayCichocki/finagent/internal/api"
	"github.com/ShayCichocki/finagent/internal/dataset"
)

// Defaults returns the four standard workers in canonical order.
func Defaults(source dataset.Source, reasoner api.Reasoner, cfg SummarizerConfig, logger *slog.Logger) []Worker {
	return []Worker{
		NewFetcher(source, logger),
		NewAnalyzer(logger),
		NewVisualizer(logger),
		NewSummarizer(reasoner, cfg, logger),
	}
}
