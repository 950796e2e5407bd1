package models

import "github.com/shopspring/decimal"

// AccountSnapshot is the futures balance read right before sizing an alert.
type AccountSnapshot struct {
	Available decimal.Decimal `json:"available"`
	Margin    decimal.Decimal `json:"margin"`
}

// Capital is the amount the sizer converts into notional.
func (a AccountSnapshot) Capital() decimal.Decimal {
	return a.Available.Add(a.Margin)
}

// SizedOrder is derived from an Alert and an AccountSnapshot and never changes.
type SizedOrder struct {
	Market          string          `json:"market"`
	Side            Side            `json:"side"`
	Amount          decimal.Decimal `json:"amount"`
	Price           decimal.Decimal `json:"price"`
	StopLossPrice   decimal.Decimal `json:"stopLossPrice"`
	TakeProfitPrice decimal.Decimal `json:"takeProfitPrice"`
	Capital         decimal.Decimal `json:"capital"`
	ClientID        string          `json:"clientId"`
}

type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

// OrderRequest is what the venue receives for the submit step.
type OrderRequest struct {
	Market   string
	Side     Side
	Type     OrderType
	Amount   decimal.Decimal
	Price    decimal.Decimal
	ClientID string
}

// Fill is what the venue reported as executed for the submitted order.
type Fill struct {
	OrderID string          `json:"orderId"`
	Amount  decimal.Decimal `json:"amount"`
	Value   decimal.Decimal `json:"value"`
}

func (f Fill) HasFill() bool {
	return f.Amount.IsPositive() && f.Value.IsPositive()
}

// AvgPrice is the realized fill price, zero without fill data.
func (f Fill) AvgPrice() decimal.Decimal {
	if !f.HasFill() {
		return decimal.Zero
	}
	return f.Value.DivRound(f.Amount, 8)
}

// MarketInfo is the subset of venue market metadata the relay reads.
type MarketInfo struct {
	Market         string          `json:"market"`
	MinAmount      decimal.Decimal `json:"minAmount"`
	TickSize       decimal.Decimal `json:"tickSize"`
	BasePrecision  int32           `json:"basePrecision"`
	QuotePrecision int32           `json:"quotePrecision"`
	Leverages      []int           `json:"leverages"`
}
