// Package indicators provides the streaming moving averages the bot uses
// as an advisory trend filter. Signals here never place or block an order
// by themselves.
package indicators

// SMA is a streaming Simple Moving Average over the last period prices.
type SMA struct {
	period int
	prices []float64
}

func NewSMA(period int) *SMA {
	return &SMA{
		period: period,
		prices: make([]float64, 0, period),
	}
}

func (s *SMA) Update(price float64) {
	s.prices = append(s.prices, price)
	if len(s.prices) > s.period {
		s.prices = s.prices[1:]
	}
}

// Ready reports whether a full window of prices has been observed.
func (s *SMA) Ready() bool {
	return len(s.prices) >= s.period
}

func (s *SMA) Value() float64 {
	if !s.Ready() {
		return 0
	}
	sum := 0.0
	for _, p := range s.prices {
		sum += p
	}
	return sum / float64(len(s.prices))
}

func (s *SMA) Reset() {
	s.prices = s.prices[:0]
}

// Falling reports whether price sits below the average by more than the
// given fraction, the bot's signal for a falling market.
func (s *SMA) Falling(price, threshold float64) bool {
	if !s.Ready() {
		return false
	}
	return price < s.Value()*(1-threshold)
}
