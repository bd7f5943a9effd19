package ta

import "math"

func SMA(closes []float64, n int) float64 {
	if len(closes) < n || n <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(closes) - n; i < len(closes); i++ {
		sum += closes[i]
	}
	return sum / float64(n)
}

func RSI(closes []float64, period int) float64 {
	if len(closes) < period+1 || period <= 0 {
		return math.NaN()
	}
	gain, loss := 0.0, 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	if loss == 0 {
		return 100.0
	}
	rs := (gain / float64(period)) / (loss / float64(period))
	return 100.0 - (100.0 / (1.0 + rs))
}

func StdDev(vals []float64, n int) float64 {
	if len(vals) < n || n <= 0 {
		return math.NaN()
	}
	m := SMA(vals, n)
	s := 0.0
	for i := len(vals) - n; i < len(vals); i++ {
		d := vals[i] - m
		s += d * d
	}
	return math.Sqrt(s / float64(n))
}

func Bollinger(closes []float64, n int, k float64) (mid, up, low float64) {
	mid = SMA(closes, n)
	sd := StdDev(closes, n)
	up = mid + k*sd
	low = mid - k*sd
	return
}

func ATR(highs, lows, closes []float64, period int) float64 {
	if len(highs) != len(lows) || len(lows) != len(closes) {
		return math.NaN()
	}
	n := period
	if len(closes) < n+1 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(closes) - n; i < len(closes); i++ {
		tr1 := highs[i] - lows[i]
		tr2 := math.Abs(highs[i] - closes[i-1])
		tr3 := math.Abs(lows[i] - closes[i-1])
		sum += math.Max(tr1, math.Max(tr2, tr3))
	}
	return sum / float64(n)
}

// ROC is the rate of change over period, in percent of the older close.
func ROC(closes []float64, period int) float64 {
	if len(closes) < period+1 || period <= 0 {
		return math.NaN()
	}
	old := closes[len(closes)-1-period]
	if old == 0 {
		return math.NaN()
	}
	return (closes[len(closes)-1] - old) / old * 100.0
}

// EfficiencyRatio is Kaufman's ratio of net directional movement to total
// path length over n bars. 1 means a straight move, 0 pure chop.
func EfficiencyRatio(closes []float64, n int) float64 {
	if len(closes) < n+1 || n <= 0 {
		return math.NaN()
	}
	start := len(closes) - 1 - n
	net := math.Abs(closes[len(closes)-1] - closes[start])
	path := 0.0
	for i := start + 1; i < len(closes); i++ {
		path += math.Abs(closes[i] - closes[i-1])
	}
	if path == 0 {
		return 0
	}
	return net / path
}

// ReturnsDispersionPct is the standard deviation of close-to-close
// percent returns over the last n bars. Used as the regime volatility
// score: measuring returns instead of price levels keeps a steady trend
// from registering as volatility.
func ReturnsDispersionPct(closes []float64, n int) float64 {
	if len(closes) < n+1 || n <= 0 {
		return math.NaN()
	}
	rets := make([]float64, 0, n)
	for i := len(closes) - n; i < len(closes); i++ {
		if closes[i-1] == 0 {
			return math.NaN()
		}
		rets = append(rets, (closes[i]/closes[i-1]-1)*100.0)
	}
	mean := 0.0
	for _, r := range rets {
		mean += r
	}
	mean /= float64(n)
	s := 0.0
	for _, r := range rets {
		d := r - mean
		s += d * d
	}
	return math.Sqrt(s / float64(n))
}
