// Package charts renders price series as PNG charts
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/stockdash/internal/interfaces"
	"github.com/bobmcallan/stockdash/internal/models"
)

const (
	chartWidth  = 900
	chartHeight = 400
)

// ErrNotEnoughData is returned when a series is too short to plot.
var ErrNotEnoughData = errors.New("not enough data to chart")

// Renderer implements ChartRenderer
type Renderer struct{}

// NewRenderer creates a new chart renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// PriceTitle is the line chart title, naming the pricing field in use.
func PriceTitle(series *models.PriceSeries) string {
	return fmt.Sprintf("%s %s Price", series.Symbol, series.PriceLabel())
}

// VolumeTitle is the bar chart title.
func VolumeTitle(series *models.PriceSeries) string {
	return fmt.Sprintf("%s Trading Volume", series.Symbol)
}

// RenderPrice draws the series' pricing field over date. Needs at least two bars.
func (r *Renderer) RenderPrice(series *models.PriceSeries) ([]byte, error) {
	if series == nil || len(series.Bars) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 bars", ErrNotEnoughData)
	}

	xValues := make([]time.Time, len(series.Bars))
	yValues := make([]float64, len(series.Bars))
	for i, bar := range series.Bars {
		xValues[i] = bar.Date
		yValues[i] = series.Price(bar)
	}

	graph := chart.Chart{
		Title:  PriceTitle(series),
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name: series.PriceLabel(),
				Style: chart.Style{
					StrokeColor: drawing.ColorFromHex("2563eb"),
					StrokeWidth: 2,
				},
				XValues: xValues,
				YValues: yValues,
			},
		},
	}

	return render(graph)
}

// RenderVolume draws one bar per trading day. Dates are labelled sparsely so
// long ranges stay legible.
func (r *Renderer) RenderVolume(series *models.PriceSeries) ([]byte, error) {
	if series == nil || len(series.Bars) == 0 {
		return nil, fmt.Errorf("%w: no bars", ErrNotEnoughData)
	}

	var peak int64
	for _, bar := range series.Bars {
		peak = max(peak, bar.Volume)
	}
	if peak == 0 {
		return nil, fmt.Errorf("%w: no volume traded", ErrNotEnoughData)
	}

	n := len(series.Bars)
	labelEvery := max(1, n/8)
	bars := make([]chart.Value, n)
	for i, bar := range series.Bars {
		label := ""
		if i%labelEvery == 0 {
			label = bar.Date.Format("Jan 06")
		}
		bars[i] = chart.Value{
			Label: label,
			Value: float64(bar.Volume),
			Style: chart.Style{
				FillColor:   drawing.ColorFromHex("9ca3af"),
				StrokeColor: drawing.ColorFromHex("9ca3af"),
			},
		}
	}

	spacing := 2
	if n > 100 {
		spacing = 1
	}
	graph := chart.BarChart{
		Title:  VolumeTitle(series),
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		BarWidth:   max(1, (chartWidth-80)/n-spacing),
		BarSpacing: spacing,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(peak)},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.1fM", f/1e6)
				}
				return ""
			},
		},
		Bars: bars,
	}

	return render(graph)
}

type renderable interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

func render(graph renderable) ([]byte, error) {
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

var _ interfaces.ChartRenderer = (*Renderer)(nil)
