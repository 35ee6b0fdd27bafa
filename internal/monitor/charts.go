package monitor

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// handleCharts renders every live series as a go-echarts line chart on one
// HTML page. This is a lightweight debugging view of the sample streams, not
// the full plotting UI.
func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	series := s.pipe.Snapshot()
	if len(series) == 0 {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><body><p>No samples captured yet.</p></body></html>")
		return
	}

	page := components.NewPage()
	page.SetPageTitle("packetplot monitor")

	for _, sr := range series {
		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{
				Title:    sr.Title,
				Subtitle: fmt.Sprintf("series=%s samples=%d", sr.ID, len(sr.Samples)),
			}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
			charts.WithXAxisOpts(opts.XAxis{Name: sr.XLabel}),
			charts.WithYAxisOpts(opts.YAxis{Name: sr.YLabel}),
		)

		xs := make([]string, 0, len(sr.Samples))
		ys := make([]opts.LineData, 0, len(sr.Samples))
		for _, sample := range sr.Samples {
			xs = append(xs, strconv.FormatFloat(sample.X, 'g', -1, 64))
			if y, err := strconv.ParseFloat(sample.Y, 64); err == nil {
				ys = append(ys, opts.LineData{Value: y})
			} else {
				ys = append(ys, opts.LineData{Value: sample.Y})
			}
		}
		line.SetXAxis(xs).AddSeries(sr.ID, ys)
		page.AddCharts(line)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(w); err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("render charts: %v", err))
	}
}
