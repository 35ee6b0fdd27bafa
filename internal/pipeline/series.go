package pipeline

// Sample is one plotted point routed to a named series.
type Sample struct {
	// Series is the graph definition key the sample belongs to.
	Series string `json:"series"`
	// X is the coordinate assigned by the series' ordering mode. Time-mode
	// values are monotonic nanoseconds, which stay exactly representable
	// in a float64 for over a hundred days of capture.
	X float64 `json:"x"`
	// Y is the packet value, kept verbatim.
	Y string `json:"y"`
}

// Series is the append-only sample sequence backing one plotted line, plus
// the labels resolved from its graph definition.
type Series struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	XLabel  string   `json:"x_label"`
	YLabel  string   `json:"y_label"`
	Samples []Sample `json:"samples"`
}
