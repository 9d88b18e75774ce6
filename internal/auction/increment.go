package auction

import (
	"github.com/shopspring/decimal"

	"auctionhouse/internal/model"
	"auctionhouse/internal/money"
)

// IncrementPolicy computes the smallest legal step above an item's current price. latest is the
// highest bid on the item, nil when there is none. Implementations must be pure and return a
// positive amount.
type IncrementPolicy interface {
	MinimumIncrement(item model.Item, latest *model.ManualBid) money.Money
}

// PercentIncrement is Rate of the latest bid, never less than Floor.
type PercentIncrement struct {
	Rate  decimal.Decimal
	Floor money.Money
}

func DefaultIncrement() PercentIncrement {
	return PercentIncrement{
		Rate:  decimal.New(1, -2),
		Floor: money.New(200),
	}
}

func (p PercentIncrement) MinimumIncrement(_ model.Item, latest *model.ManualBid) money.Money {
	if latest == nil {
		return p.Floor
	}
	return money.Max(latest.Amount.MulRate(p.Rate), p.Floor)
}

type FixedIncrement struct {
	Step money.Money
}

func (f FixedIncrement) MinimumIncrement(model.Item, *model.ManualBid) money.Money {
	return f.Step
}

func MinimumNextBid(policy IncrementPolicy, item model.Item, latest *model.ManualBid) money.Money {
	return item.CurrentPrice.Add(policy.MinimumIncrement(item, latest))
}
