package fundamentals

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/finlab-br/patrimonio/internal/domain"
)

type mockGenerator struct {
	response string
	err      error
	prompts  []string
}

func (m *mockGenerator) Generate(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.response, m.err
}

func (m *mockGenerator) GenerateWithPages(_ context.Context, prompt string, _ ...string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.response, m.err
}

func TestExtractParsesPayload(t *testing.T) {
	gen := &mockGenerator{response: `{"preco": 28.50, "lpa": 3.20, "pl": 8.9, "roe": 18.5, "dy": 7.2, "vpa": 15.10}`}
	svc := NewService(gen)

	f, err := svc.Extract(context.Background(), "bbas3")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if f.Ticker != "BBAS3" {
		t.Errorf("ticker = %q, want BBAS3", f.Ticker)
	}
	if !f.Price.Equal(decimal.NewFromFloat(28.50)) {
		t.Errorf("price = %s, want 28.5", f.Price)
	}
	if !f.DividendYield.Equal(decimal.NewFromFloat(7.2)) {
		t.Errorf("dy = %s, want 7.2", f.DividendYield)
	}
	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "investidor10.com.br/acoes/bbas3/") {
		t.Errorf("prompt missing source page: %q", gen.prompts)
	}
}

func TestExtractStripsCodeFences(t *testing.T) {
	gen := &mockGenerator{response: "```json\n{\"preco\": 10, \"lpa\": 1}\n```"}
	svc := NewService(gen)

	f, err := svc.Extract(context.Background(), "PETR4")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !f.Price.Equal(decimal.NewFromInt(10)) {
		t.Errorf("price = %s, want 10", f.Price)
	}
}

func TestExtractNullsBecomeZero(t *testing.T) {
	gen := &mockGenerator{response: `{"preco": 10, "lpa": 1, "pl": null, "roe": null, "dy": null, "vpa": null}`}
	svc := NewService(gen)

	f, err := svc.Extract(context.Background(), "PETR4")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !f.ROE.IsZero() || !f.DividendYield.IsZero() || !f.BookValue.IsZero() {
		t.Errorf("optional fields not zeroed: %+v", f)
	}
}

func TestExtractMissingMandatoryFields(t *testing.T) {
	gen := &mockGenerator{response: `{"preco": 10, "lpa": null}`}
	svc := NewService(gen)

	_, err := svc.Extract(context.Background(), "XPTO3")
	if !errors.Is(err, ErrExtractFailed) {
		t.Fatalf("Extract() error = %v, want ErrExtractFailed", err)
	}
	var extractErr *ExtractError
	if !errors.As(err, &extractErr) || extractErr.Ticker != "XPTO3" {
		t.Errorf("error does not carry ticker: %v", err)
	}
}

func TestExtractInvalidJSON(t *testing.T) {
	gen := &mockGenerator{response: "não consegui acessar a página"}
	svc := NewService(gen)

	if _, err := svc.Extract(context.Background(), "PETR4"); !errors.Is(err, ErrExtractFailed) {
		t.Fatalf("Extract() error = %v, want ErrExtractFailed", err)
	}
}

func TestExtractGeneratorFailure(t *testing.T) {
	gen := &mockGenerator{err: errors.New("quota exceeded")}
	svc := NewService(gen)

	if _, err := svc.Extract(context.Background(), "PETR4"); !errors.Is(err, ErrExtractFailed) {
		t.Fatalf("Extract() error = %v, want ErrExtractFailed", err)
	}
}

func TestAnalyzeInterpolatesFundamentals(t *testing.T) {
	gen := &mockGenerator{response: "  Empresa sólida.  "}
	svc := NewService(gen)

	f := domain.Fundamentals{
		Ticker: "PETR4",
		Price:  decimal.NewFromFloat(38.1),
		EPS:    decimal.NewFromFloat(5.5),
	}
	out, err := svc.Analyze(context.Background(), "PETR4", f)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if out != "Empresa sólida." {
		t.Errorf("analysis = %q, want trimmed text", out)
	}
	if !strings.Contains(gen.prompts[0], "38.10") {
		t.Errorf("prompt missing price: %q", gen.prompts[0])
	}
}

func TestNewsSummaryMentionsTicker(t *testing.T) {
	gen := &mockGenerator{response: "Sem notícias relevantes."}
	svc := NewService(gen)

	out, err := svc.NewsSummary(context.Background(), "VALE3")
	if err != nil {
		t.Fatalf("NewsSummary() error = %v", err)
	}
	if out != "Sem notícias relevantes." {
		t.Errorf("news = %q", out)
	}
	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "VALE3") {
		t.Errorf("prompt missing ticker: %q", gen.prompts)
	}
}
