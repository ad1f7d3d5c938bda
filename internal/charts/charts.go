// Package charts renders the dashboard summary as PNG images using
// go-chart. Amounts arrive in milliunits and are scaled to units for
// display.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"finboard/internal/core"
	"finboard/internal/summary"
)

// ErrNoData is returned when a period has nothing to draw.
var ErrNoData = errors.New("no data to chart")

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// DaySeries draws income and expenses over the period as two time
// series.
func (r *Renderer) DaySeries(days []summary.DayTotals) ([]byte, error) {
	if len(days) == 0 {
		return nil, ErrNoData
	}

	xValues := make([]time.Time, len(days))
	incomeValues := make([]float64, len(days))
	expenseValues := make([]float64, len(days))
	for i, day := range days {
		xValues[i] = day.Date
		incomeValues[i] = core.FromMilliunits(day.Income)
		expenseValues[i] = core.FromMilliunits(day.Expenses)
	}

	graph := chart.Chart{
		Width:  1200,
		Height: 600,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   50,
				Right:  50,
				Bottom: 50,
			},
			FillColor: chart.ColorWhite,
		},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("01-02"),
			Style: chart.Style{
				FontSize:  12,
				FontColor: chart.ColorBlack,
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.2f", v.(float64))
			},
			Style: chart.Style{
				FontSize:  12,
				FontColor: chart.ColorBlack,
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Income",
				XValues: xValues,
				YValues: incomeValues,
				Style: chart.Style{
					StrokeColor: chart.ColorGreen,
					StrokeWidth: 2,
				},
			},
			chart.TimeSeries{
				Name:    "Expenses",
				XValues: xValues,
				YValues: expenseValues,
				Style: chart.Style{
					StrokeColor: chart.ColorRed,
					StrokeWidth: 2,
				},
			},
		},
	}

	graph.Elements = []chart.Renderable{
		chart.Legend(&graph, chart.Style{
			FontSize:  12,
			FontColor: chart.ColorBlack,
		}),
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render day series: %w", err)
	}
	return buffer.Bytes(), nil
}

// CategoryPie draws spending per category as a pie chart.
func (r *Renderer) CategoryPie(categories []summary.CategoryValue) ([]byte, error) {
	if len(categories) == 0 {
		return nil, ErrNoData
	}

	total := int64(0)
	for _, cat := range categories {
		total += cat.Value
	}
	if total == 0 {
		return nil, ErrNoData
	}

	values := make([]chart.Value, 0, len(categories))
	for _, cat := range categories {
		name := cat.Name
		if name == "" {
			name = "Uncategorized"
		}
		percentage := float64(cat.Value) / float64(total) * 100
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %.2f (%.1f%%)", name, core.FromMilliunits(cat.Value), percentage),
			Value: core.FromMilliunits(cat.Value),
		})
	}

	pie := chart.PieChart{
		Width:  800,
		Height: 800,
		Values: values,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   50,
				Right:  50,
				Bottom: 50,
			},
			FillColor: chart.ColorWhite,
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := pie.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render category pie: %w", err)
	}
	return buffer.Bytes(), nil
}
