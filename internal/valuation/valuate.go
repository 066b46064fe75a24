package valuation

import (
	"github.com/samber/lo"

	"github.com/finlab-br/patrimonio/internal/domain"
)

// Result bundles the three method outputs with the voted recommendation.
type Result struct {
	Fundamentals domain.Fundamentals `json:"fundamentals"`
	Bazin        MethodResult        `json:"bazin"`
	Graham       MethodResult        `json:"graham"`
	Lynch        MethodResult        `json:"lynch"`
	Aggregate    Status              `json:"aggregate"`
	BuyVotes     int                 `json:"buyVotes"`
	SellVotes    int                 `json:"sellVotes"`
	ValidMethods int                 `json:"validMethods"`
}

// Valuate runs every method and majority-votes among those with enough
// data. With a single valid method the vote degrades to that method's
// verdict; with none, the aggregate is INSUFFICIENT_DATA.
func Valuate(f domain.Fundamentals) Result {
	r := Result{
		Fundamentals: f,
		Bazin:        bazin(f),
		Graham:       graham(f),
		Lynch:        lynch(f),
	}

	methods := []MethodResult{r.Bazin, r.Graham, r.Lynch}
	valid := lo.Filter(methods, func(m MethodResult, _ int) bool {
		return m.Status != StatusInsufficientData
	})
	r.ValidMethods = len(valid)
	r.BuyVotes = lo.CountBy(valid, func(m MethodResult) bool { return m.Status == StatusBuy })
	r.SellVotes = lo.CountBy(valid, func(m MethodResult) bool { return m.Status == StatusSell })

	switch {
	case r.ValidMethods == 0:
		r.Aggregate = StatusInsufficientData
	case 2*r.BuyVotes >= r.ValidMethods:
		r.Aggregate = StatusBuy
	case 2*r.SellVotes >= r.ValidMethods:
		r.Aggregate = StatusSell
	default:
		r.Aggregate = StatusWait
	}
	return r
}
