package valuation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/finlab-br/patrimonio/internal/domain"
)

// Extractor supplies per-share fundamentals for a ticker. Satisfied by
// fundamentals.Service.
type Extractor interface {
	Extract(ctx context.Context, ticker string) (domain.Fundamentals, error)
}

// Analyst produces the optional narrative sections of a report.
type Analyst interface {
	Analyze(ctx context.Context, ticker string, f domain.Fundamentals) (string, error)
	NewsSummary(ctx context.Context, ticker string) (string, error)
}

const narrativeUnavailable = "Análise indisponível no momento."

// Report is the full per-ticker valuation payload.
type Report struct {
	Ticker   string `json:"ticker"`
	Result
	Analysis string `json:"analysis,omitempty"`
	News     string `json:"news,omitempty"`
}

// Service composes extraction, the valuation methods and the optional
// narrative into a report.
type Service struct {
	extractor Extractor
	analyst   Analyst
}

// NewService creates a valuation service. analyst may be nil.
func NewService(extractor Extractor, analyst Analyst) *Service {
	return &Service{extractor: extractor, analyst: analyst}
}

// Report builds the valuation report for a ticker. An extraction failure is
// fatal, since there is nothing to valuate, but narrative failures degrade to a
// fixed unavailable message.
func (s *Service) Report(ctx context.Context, ticker string) (Report, error) {
	f, err := s.extractor.Extract(ctx, ticker)
	if err != nil {
		return Report{}, fmt.Errorf("extracting fundamentals for %s: %w", ticker, err)
	}

	report := Report{
		Ticker: f.Ticker,
		Result: Valuate(f),
	}

	if s.analyst != nil {
		if analysis, err := s.analyst.Analyze(ctx, f.Ticker, f); err != nil {
			slog.Warn("analysis generation failed", "ticker", f.Ticker, "error", err)
			report.Analysis = narrativeUnavailable
		} else {
			report.Analysis = analysis
		}

		if news, err := s.analyst.NewsSummary(ctx, f.Ticker); err != nil {
			slog.Warn("news summary failed", "ticker", f.Ticker, "error", err)
			report.News = narrativeUnavailable
		} else {
			report.News = news
		}
	}
	return report, nil
}
