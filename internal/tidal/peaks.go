package tidal

import "time"

// Significance bands for FTRT peaks.
const (
	SignificanceExtreme  = "extreme"
	SignificanceHigh     = "high"
	SignificanceModerate = "moderate"
)

// Peak is a strict local maximum of the normalized index.
type Peak struct {
	Index        int       `json:"index"`
	Date         time.Time `json:"date"`
	Value        float64   `json:"value"`
	Significance string    `json:"significance"`
}

// PeakSignificance bands a peak value: above 0.85 extreme, above 0.75 high,
// otherwise moderate.
func PeakSignificance(v float64) string {
	switch {
	case v > 0.85:
		return SignificanceExtreme
	case v > 0.75:
		return SignificanceHigh
	default:
		return SignificanceModerate
	}
}

// LocalMaxima returns the indices i with v[i-1] < v[i] > v[i+1] and
// v[i] > threshold. The first and last samples are never maxima.
func LocalMaxima(values []float64, threshold float64) []int {
	var out []int
	for i := 1; i < len(values)-1; i++ {
		v := values[i]
		if v > values[i-1] && v > values[i+1] && v > threshold {
			out = append(out, i)
		}
	}
	return out
}

// DetectPeaks finds the peaks of the normalized index in series.
func DetectPeaks(series []Snapshot, threshold float64) []Peak {
	values := Values(series)
	idx := LocalMaxima(values, threshold)
	peaks := make([]Peak, 0, len(idx))
	for _, i := range idx {
		peaks = append(peaks, Peak{
			Index:        i,
			Date:         series[i].Date,
			Value:        values[i],
			Significance: PeakSignificance(values[i]),
		})
	}
	return peaks
}

// Values extracts the normalized index of each snapshot.
func Values(series []Snapshot) []float64 {
	out := make([]float64, len(series))
	for i, s := range series {
		out[i] = s.NormalizedIndex
	}
	return out
}
