package pipeline

import (
	"math"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// SeriesStats summarises the numeric y-values of one series. Samples whose
// value does not parse as a float are counted but excluded from the moments.
type SeriesStats struct {
	Series     string  `json:"series"`
	Count      int     `json:"count"`
	NumericN   int     `json:"numeric_n"`
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"std_dev"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	LastSample *Sample `json:"last_sample,omitempty"`
}

// Stats computes summary statistics for a series snapshot.
func Stats(s Series) SeriesStats {
	out := SeriesStats{Series: s.ID, Count: len(s.Samples)}
	if len(s.Samples) > 0 {
		last := s.Samples[len(s.Samples)-1]
		out.LastSample = &last
	}

	var ys []float64
	for _, sample := range s.Samples {
		if y, err := strconv.ParseFloat(sample.Y, 64); err == nil {
			ys = append(ys, y)
		}
	}
	out.NumericN = len(ys)
	if len(ys) == 0 {
		return out
	}

	out.Mean = stat.Mean(ys, nil)
	out.StdDev = stat.StdDev(ys, nil)
	if math.IsNaN(out.StdDev) {
		out.StdDev = 0
	}
	out.Min, out.Max = ys[0], ys[0]
	for _, y := range ys[1:] {
		out.Min = math.Min(out.Min, y)
		out.Max = math.Max(out.Max, y)
	}
	return out
}
