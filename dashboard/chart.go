package dashboard

import "github.com/rustyeddy/stockchart/market"

const vegaLiteSchema = "https://vega.github.io/schema/vega-lite/v5.json"

// ChartSpec is a Vega-Lite line chart specification.
type ChartSpec struct {
	Schema   string    `json:"$schema"`
	Width    string    `json:"width"`
	Data     ChartData `json:"data"`
	Mark     Mark      `json:"mark"`
	Encoding Encoding  `json:"encoding"`
}

type ChartData struct {
	Values []market.Record `json:"values"`
}

type Mark struct {
	Type    string  `json:"type"`
	Opacity float64 `json:"opacity"`
	Clip    bool    `json:"clip"`
}

type Encoding struct {
	X     Channel  `json:"x"`
	Y     YChannel `json:"y"`
	Color Channel  `json:"color"`
}

type Channel struct {
	Field string `json:"field"`
	Type  string `json:"type"`
}

// YChannel carries the price axis. Stack is always encoded as null so the
// series overlay instead of summing.
type YChannel struct {
	Field string `json:"field"`
	Type  string `json:"type"`
	Stack any    `json:"stack"`
	Scale Scale  `json:"scale"`
}

type Scale struct {
	Domain [2]float64 `json:"domain"`
}

// NewChart builds the price chart for records. The y domain is fixed to
// [ymin, ymax]; lines outside it are clipped, the data is kept.
func NewChart(records []market.Record, ymin, ymax float64) ChartSpec {
	return ChartSpec{
		Schema: vegaLiteSchema,
		Width:  "container",
		Data:   ChartData{Values: records},
		Mark: Mark{
			Type:    "line",
			Opacity: 0.8,
			Clip:    true,
		},
		Encoding: Encoding{
			X: Channel{Field: "Date", Type: "temporal"},
			Y: YChannel{
				Field: market.PriceLabel,
				Type:  "quantitative",
				Scale: Scale{Domain: [2]float64{ymin, ymax}},
			},
			Color: Channel{Field: "Name", Type: "nominal"},
		},
	}
}

// Series returns the distinct series names in the chart, in data order.
func (c ChartSpec) Series() []string {
	var out []string
	seen := map[string]bool{}
	for _, r := range c.Data.Values {
		if !seen[r.Name] {
			seen[r.Name] = true
			out = append(out, r.Name)
		}
	}
	return out
}
