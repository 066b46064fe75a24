package fundamentals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/finlab-br/patrimonio/internal/domain"
)

// ErrExtractFailed reports that no usable fundamentals came back for a
// ticker. Callers match it with errors.Is.
var ErrExtractFailed = errors.New("fundamentals extraction failed")

// ExtractError carries the ticker whose extraction failed.
type ExtractError struct {
	Ticker string
	Err    error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extracting fundamentals for %s: %v", e.Ticker, e.Err)
}

func (e *ExtractError) Unwrap() error { return ErrExtractFailed }

// Service extracts fundamentals and narrative through a Generator.
type Service struct {
	gen Generator
}

func NewService(gen Generator) *Service {
	return &Service{gen: gen}
}

const extractPrompt = `Acesse %s e extraia:

DADOS OBRIGATÓRIOS:
- preco (cotação atual)
- lpa (Lucro por Ação)
- pl (P/L)
- roe (ROE em %%)
- dy (Dividend Yield em %%)
- vpa (Valor Patrimonial)

REGRAS:
- Retorne APENAS JSON
- Use null se não encontrar
- Valores percentuais sem o símbolo %%
- Valores monetários em número decimal

Ticker: %s

JSON:`

type extractPayload struct {
	Preco *float64 `json:"preco"`
	LPA   *float64 `json:"lpa"`
	PL    *float64 `json:"pl"`
	ROE   *float64 `json:"roe"`
	DY    *float64 `json:"dy"`
	VPA   *float64 `json:"vpa"`
}

// Extract reads the ticker's indicator page and returns its per-share
// fundamentals. Price and earnings per share are mandatory; the remaining
// indicators default to zero, which downstream methods treat as absent.
func (s *Service) Extract(ctx context.Context, ticker string) (domain.Fundamentals, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	url := fmt.Sprintf("https://investidor10.com.br/acoes/%s/", strings.ToLower(ticker))

	raw, err := s.gen.GenerateWithPages(ctx, fmt.Sprintf(extractPrompt, url, ticker), url)
	if err != nil {
		return domain.Fundamentals{}, &ExtractError{Ticker: ticker, Err: err}
	}

	var payload extractPayload
	if err := json.Unmarshal([]byte(stripFences(raw)), &payload); err != nil {
		return domain.Fundamentals{}, &ExtractError{Ticker: ticker, Err: fmt.Errorf("parsing response: %w", err)}
	}
	if payload.Preco == nil || payload.LPA == nil {
		return domain.Fundamentals{}, &ExtractError{Ticker: ticker, Err: errors.New("price or eps missing")}
	}

	return domain.Fundamentals{
		Ticker:        ticker,
		Price:         fromPtr(payload.Preco),
		EPS:           fromPtr(payload.LPA),
		PE:            fromPtr(payload.PL),
		ROE:           fromPtr(payload.ROE),
		DividendYield: fromPtr(payload.DY),
		BookValue:     fromPtr(payload.VPA),
	}, nil
}

// stripFences removes a ```json ... ``` wrapper that models sometimes add
// despite the JSON-only instruction.
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimPrefix(raw, "json")
	if i := strings.Index(raw, "```"); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(raw)
}

func fromPtr(v *float64) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*v)
}

const analyzePrompt = `Você é um analista financeiro sênior com 20 anos de experiência no mercado brasileiro.

DADOS DA AÇÃO %s:
- Preço: R$ %s
- LPA: R$ %s
- P/L: %sx
- ROE: %s%%
- Dividend Yield: %s%%
- VPA: R$ %s

TAREFA:
Escreva uma análise profissional e objetiva em até 300 palavras cobrindo:
1. Avaliação geral da ação (cara/barata/justa)
2. Pontos fortes
3. Pontos fracos ou riscos
4. Recomendação final (curto/médio/longo prazo)

IMPORTANTE:
- Use linguagem profissional mas acessível
- Seja direto e objetivo
- NÃO mencione métodos de valuation específicos
- NÃO dê recomendações de compra/venda diretas
- Foque em análise fundamentalista`

// Analyze produces a short professional narrative for the ticker.
func (s *Service) Analyze(ctx context.Context, ticker string, f domain.Fundamentals) (string, error) {
	prompt := fmt.Sprintf(analyzePrompt, ticker,
		f.Price.StringFixed(2), f.EPS.StringFixed(2), f.PE.StringFixed(2),
		f.ROE.StringFixed(2), f.DividendYield.StringFixed(2), f.BookValue.StringFixed(2))
	out, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generating analysis for %s: %w", ticker, err)
	}
	return strings.TrimSpace(out), nil
}

const newsPrompt = `Busque as 5 notícias mais recentes sobre a ação %s dos últimos 30 dias.

FONTES RECOMENDADAS:
- InfoMoney
- Valor Econômico
- Money Times
- Seu Dinheiro
- Estadão Economia

TAREFA:
Resuma as principais notícias em até 500 palavras, cobrindo:
1. Fatos mais relevantes (resultados, dividendos, mudanças estratégicas)
2. Expectativas do mercado
3. Riscos ou oportunidades mencionados

FORMATO:
Texto corrido, objetivo, sem lista de notícias individuais.

IMPORTANTE:
- Se não encontrar notícias recentes, mencione isso
- Priorize notícias dos últimos 7 dias
- Ignore rumores não confirmados`

// NewsSummary condenses recent coverage of the ticker into one text.
func (s *Service) NewsSummary(ctx context.Context, ticker string) (string, error) {
	out, err := s.gen.Generate(ctx, fmt.Sprintf(newsPrompt, ticker))
	if err != nil {
		return "", fmt.Errorf("summarizing news for %s: %w", ticker, err)
	}
	return strings.TrimSpace(out), nil
}
