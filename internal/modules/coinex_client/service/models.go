package service

import "github.com/shopspring/decimal"

type futuresBalance struct {
	Ccy           string          `json:"ccy"`
	Available     decimal.Decimal `json:"available"`
	Frozen        decimal.Decimal `json:"frozen"`
	Margin        decimal.Decimal `json:"margin"`
	Transferrable decimal.Decimal `json:"transferrable"`
	UnrealizedPnl decimal.Decimal `json:"unrealized_pnl"`
}

type futuresMarket struct {
	Market            string          `json:"market"`
	ContractType      string          `json:"contract_type"`
	MakerFeeRate      decimal.Decimal `json:"maker_fee_rate"`
	TakerFeeRate      decimal.Decimal `json:"taker_fee_rate"`
	MinAmount         decimal.Decimal `json:"min_amount"`
	BaseCcy           string          `json:"base_ccy"`
	QuoteCcy          string          `json:"quote_ccy"`
	BaseCcyPrecision  int32           `json:"base_ccy_precision"`
	QuoteCcyPrecision int32           `json:"quote_ccy_precision"`
	TickSize          decimal.Decimal `json:"tick_size"`
	Leverage          []int           `json:"leverage"`
}

type orderReply struct {
	OrderID        int64           `json:"order_id"`
	Market         string          `json:"market"`
	Side           string          `json:"side"`
	Type           string          `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	Price          decimal.Decimal `json:"price"`
	UnfilledAmount decimal.Decimal `json:"unfilled_amount"`
	FilledAmount   decimal.Decimal `json:"filled_amount"`
	FilledValue    decimal.Decimal `json:"filled_value"`
	ClientID       string          `json:"client_id"`
}

type closePositionRequest struct {
	Market     string  `json:"market"`
	MarketType string  `json:"market_type"`
	Type       string  `json:"type"`
	Amount     *string `json:"amount"`
}

type cancelAllRequest struct {
	Market     string `json:"market"`
	MarketType string `json:"market_type"`
	Side       string `json:"side,omitempty"`
}

type adjustLeverageRequest struct {
	Market     string `json:"market"`
	MarketType string `json:"market_type"`
	MarginMode string `json:"margin_mode"`
	Leverage   int    `json:"leverage"`
}

type placeOrderRequest struct {
	Market     string `json:"market"`
	MarketType string `json:"market_type"`
	Side       string `json:"side"`
	Type       string `json:"type"`
	Amount     string `json:"amount"`
	Price      string `json:"price,omitempty"`
	ClientID   string `json:"client_id,omitempty"`
}

type stopLossRequest struct {
	Market        string `json:"market"`
	MarketType    string `json:"market_type"`
	StopLossType  string `json:"stop_loss_type"`
	StopLossPrice string `json:"stop_loss_price"`
}

type takeProfitRequest struct {
	Market          string `json:"market"`
	MarketType      string `json:"market_type"`
	TakeProfitType  string `json:"take_profit_type"`
	TakeProfitPrice string `json:"take_profit_price"`
}
