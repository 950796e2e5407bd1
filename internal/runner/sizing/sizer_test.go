package sizing

import (
	"testing"

	"alert_relay/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func fixedSizer() *Sizer {
	return New(Config{
		Policy:             PolicyFixed,
		LeverageMultiplier: 10,
		StopLossPct:        1,
		TakeProfitPct:      1,
		TargetGainPct:      10.8,
		TargetLossPct:      2.5,
	})
}

func alert(side models.Side, price string) models.Alert {
	return models.Alert{Market: "BTCUSDT", Side: side, Price: d(price), CorrelationID: "c1"}
}

func TestSize_ReferenceScenario(t *testing.T) {
	order, err := fixedSizer().Size(alert(models.SideBuy, "50000"), models.AccountSnapshot{Available: d("1000")})
	require.NoError(t, err)

	assert.True(t, order.Amount.Equal(d("0.2")), "amount %s", order.Amount)
	assert.True(t, order.StopLossPrice.Equal(d("49500")), "sl %s", order.StopLossPrice)
	assert.True(t, order.TakeProfitPrice.Equal(d("50500")), "tp %s", order.TakeProfitPrice)
	assert.Equal(t, "BTCUSDT", order.Market)
	assert.Equal(t, "c1", order.ClientID)
}

func TestSize_SellMirrorsBands(t *testing.T) {
	order, err := fixedSizer().Size(alert(models.SideSell, "50000"), models.AccountSnapshot{Available: d("1000")})
	require.NoError(t, err)

	assert.True(t, order.StopLossPrice.Equal(d("50500")))
	assert.True(t, order.TakeProfitPrice.Equal(d("49500")))
}

func TestSize_MarginCountsAsCapital(t *testing.T) {
	order, err := fixedSizer().Size(alert(models.SideBuy, "50000"),
		models.AccountSnapshot{Available: d("600"), Margin: d("400")})
	require.NoError(t, err)
	assert.True(t, order.Amount.Equal(d("0.2")))
	assert.True(t, order.Capital.Equal(d("1000")))
}

func TestSize_TruncatesToPrecision(t *testing.T) {
	order, err := fixedSizer().Size(alert(models.SideBuy, "3"), models.AccountSnapshot{Available: d("1")})
	require.NoError(t, err)
	// 1/3*10 = 3.333...
	assert.Equal(t, "3.33333333", order.Amount.String())
}

func TestSize_IsPure(t *testing.T) {
	s := fixedSizer()
	a := alert(models.SideBuy, "27123.45")
	acc := models.AccountSnapshot{Available: d("1234.5678"), Margin: d("12")}

	first, err := s.Size(a, acc)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := s.Size(a, acc)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSize_ZeroCapitalGivesZeroAmount(t *testing.T) {
	order, err := fixedSizer().Size(alert(models.SideBuy, "50000"), models.AccountSnapshot{})
	require.NoError(t, err)
	assert.True(t, order.Amount.IsZero())
}

func TestSize_Errors(t *testing.T) {
	s := fixedSizer()

	_, err := s.Size(alert(models.SideBuy, "0"), models.AccountSnapshot{Available: d("1000")})
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = s.Size(alert(models.SideBuy, "-1"), models.AccountSnapshot{Available: d("1000")})
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = s.Size(alert(models.SideBuy, "50000"), models.AccountSnapshot{Available: d("-5")})
	assert.ErrorIs(t, err, ErrInvalidBalance)
}

func TestLevels_FixedPolicyKeepsSizedLevels(t *testing.T) {
	s := fixedSizer()
	assert.False(t, s.NeedsFill())

	order, err := s.Size(alert(models.SideBuy, "50000"), models.AccountSnapshot{Available: d("1000")})
	require.NoError(t, err)

	sl, tp, err := s.Levels(order, models.Fill{})
	require.NoError(t, err)
	assert.True(t, sl.Equal(order.StopLossPrice))
	assert.True(t, tp.Equal(order.TakeProfitPrice))
}

func TestLevels_ROI(t *testing.T) {
	s := New(Config{Policy: PolicyROI, LeverageMultiplier: 10, TargetGainPct: 10.8, TargetLossPct: 2.5})
	require.True(t, s.NeedsFill())

	order, err := s.Size(alert(models.SideBuy, "50000"), models.AccountSnapshot{Available: d("1000")})
	require.NoError(t, err)

	// filled 0.2 at 50000: gain 108/0.2 = 540, loss 25/0.2 = 125
	fill := models.Fill{Amount: d("0.2"), Value: d("10000")}
	sl, tp, err := s.Levels(order, fill)
	require.NoError(t, err)
	assert.True(t, tp.Equal(d("50540")), "tp %s", tp)
	assert.True(t, sl.Equal(d("49875")), "sl %s", sl)

	order.Side = models.SideSell
	sl, tp, err = s.Levels(order, fill)
	require.NoError(t, err)
	assert.True(t, tp.Equal(d("49460")), "tp %s", tp)
	assert.True(t, sl.Equal(d("50125")), "sl %s", sl)
}

func TestLevels_ROIWithoutFill(t *testing.T) {
	s := New(Config{Policy: PolicyROI, LeverageMultiplier: 10, TargetGainPct: 10.8, TargetLossPct: 2.5})

	_, _, err := s.Levels(models.SizedOrder{Capital: d("1000")}, models.Fill{})
	assert.ErrorIs(t, err, models.ErrNoFill)
}

func TestNew_UnknownPolicyFallsBackToFixed(t *testing.T) {
	assert.Equal(t, PolicyFixed, New(Config{Policy: "other"}).Policy())
}
