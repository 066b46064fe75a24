// Package milestone maps a cumulative invested total onto a fixed ordered
// progress scale.
package milestone

import (
	"github.com/shopspring/decimal"

	"github.com/finlab-br/patrimonio/internal/domain"
)

// Tier is one rung of the progress scale.
type Tier struct {
	Threshold decimal.Decimal `json:"threshold"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Emoji     string          `json:"emoji"`
	Color     string          `json:"color"`
}

func tier(threshold int64, title, message, emoji, color string) Tier {
	return Tier{
		Threshold: decimal.NewFromInt(threshold),
		Title:     title,
		Message:   message,
		Emoji:     emoji,
		Color:     color,
	}
}

// tiers is the fixed ascending scale, first thousand to first million.
var tiers = []Tier{
	tier(1000, "Primeiro Passo", "Você começou sua jornada!", "🎯", "primary"),
	tier(3000, "Acelerando", "Consistência é a chave!", "💪", "info"),
	tier(5000, "5k Investidos", "Você está no caminho certo!", "🚀", "success"),
	tier(8000, "Quase 10k", "Continue assim!", "🔥", "warning"),
	tier(10000, "10k Alcançados", "Primeiro marco importante!", "💎", "success"),
	tier(15000, "15k Investidos", "Crescendo forte!", "📈", "info"),
	tier(20000, "20k Alcançados", "Momentum crescente!", "⚡", "warning"),
	tier(25000, "Rumo aos 30k", "Sem parar agora!", "🏃", "primary"),
	tier(30000, "30k Investidos", "Você é determinado!", "🎖️", "success"),
	tier(40000, "40k Alcançados", "Acumulando poder!", "💪", "info"),
	tier(50000, "50k Investidos", "Meio caminho para 100k!", "🎊", "warning"),
	tier(60000, "60k Alcançados", "Exponencial começa agora!", "📊", "success"),
	tier(70000, "70k Investidos", "Nada te para!", "🚂", "primary"),
	tier(80000, "80k Alcançados", "Quase nos 6 dígitos!", "🤩", "info"),
	tier(90000, "90k Investidos", "Falta tão pouco para 100k!", "🔥", "warning"),
	tier(100000, "100k - Incrível!", "Você está a 1/10 do primeiro milhão!", "👑", "success"),
	tier(150000, "150k Investidos", "Juros compostos trabalhando!", "💰", "info"),
	tier(200000, "200k Alcançados", "1/5 do primeiro milhão!", "🏆", "warning"),
	tier(250000, "250k Investidos", "1/4 do caminho!", "🎯", "success"),
	tier(300000, "300k Alcançados", "Quase 1/3!", "🚀", "primary"),
	tier(350000, "350k Investidos", "Imparável!", "⚡", "info"),
	tier(400000, "400k Alcançados", "Crescimento exponencial!", "📈", "warning"),
	tier(450000, "450k Investidos", "Quase na metade!", "🔥", "success"),
	tier(500000, "500k - Metade!", "Você chegou na metade!", "🎉", "success"),
	tier(600000, "600k Investidos", "Mais da metade!", "💎", "info"),
	tier(700000, "700k Alcançados", "70% completo!", "🏃", "warning"),
	tier(800000, "800k Investidos", "80% do caminho!", "🚂", "primary"),
	tier(900000, "900k Alcançados", "Falta tão pouco!", "🤩", "info"),
	tier(1000000, "1 MILHÃO!", "VOCÊ CONSEGUIU! PARABÉNS!", "👑", "success"),
}

// Progress locates a total on the scale.
type Progress struct {
	// Current is the highest tier reached, nil before the first.
	Current *Tier `json:"current,omitempty"`
	// Next is the tier being worked toward, nil past the last.
	Next *Tier `json:"next,omitempty"`
	// Percent toward Next, clamped to [0,100].
	Percent decimal.Decimal `json:"percent"`
	// Remaining is the amount still needed to reach Next.
	Remaining decimal.Decimal `json:"remaining"`
}

// Evaluate maps a cumulative total to its progress tier. Before the first
// tier, percent measures total against the first threshold; past the last,
// percent stays at 100 with nothing remaining.
func Evaluate(total decimal.Decimal) Progress {
	var current *Tier
	var next *Tier

	for i := range tiers {
		if total.GreaterThanOrEqual(tiers[i].Threshold) {
			current = &tiers[i]
		} else {
			next = &tiers[i]
			break
		}
	}

	p := Progress{Current: current, Next: next}
	switch {
	case next == nil:
		p.Percent = decimal.NewFromInt(100)
		p.Remaining = decimal.Zero
	case current == nil:
		p.Percent = clampPercent(total.Div(next.Threshold).Mul(hundred))
		p.Remaining = next.Threshold.Sub(total)
	default:
		span := next.Threshold.Sub(current.Threshold)
		p.Percent = clampPercent(total.Sub(current.Threshold).Div(span).Mul(hundred))
		p.Remaining = next.Threshold.Sub(total)
	}
	return p
}

var hundred = decimal.NewFromInt(100)

func clampPercent(pct decimal.Decimal) decimal.Decimal {
	switch {
	case pct.IsNegative():
		return decimal.Zero
	case pct.GreaterThan(hundred):
		return hundred
	default:
		return domain.Round2(pct)
	}
}
