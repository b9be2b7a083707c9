package clanbattleapi

import (
	"bytes"
	"errors"

	clanbattledomain "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/domain"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var errNoData = errors.New("no data to chart")

var (
	chartBackground = drawing.ColorFromHex("1e1f22")
	chartText       = drawing.ColorFromHex("dbdee1")
	chartBar        = drawing.ColorFromHex("237feb")
)

// RenderDamageChart draws one bar per member with the day's total damage.
func RenderDamageChart(title string, counts []clanbattledomain.DailyCounts) ([]byte, error) {
	if len(counts) == 0 {
		return nil, errNoData
	}

	bars := make([]chart.Value, len(counts))
	var top float64
	for i, c := range counts {
		v := float64(c.Damage)
		if v > top {
			top = v
		}
		bars[i] = chart.Value{
			Label: c.Name,
			Value: v,
			Style: chart.Style{
				FillColor:   chartBar,
				StrokeColor: chartBar,
			},
		}
	}
	// All-zero days still need a non-empty range.
	if top < 1 {
		top = 1
	}

	width := 120 + 80*len(counts)
	if width < 480 {
		width = 480
	}

	graph := chart.BarChart{
		Title:    title,
		Width:    width,
		Height:   400,
		BarWidth: 40,
		TitleStyle: chart.Style{
			FontColor: chartText,
		},
		Background: chart.Style{
			FillColor: chartBackground,
			Padding:   chart.Box{Top: 40},
		},
		Canvas: chart.Style{
			FillColor: chartBackground,
		},
		XAxis: chart.Style{
			FontColor: chartText,
		},
		YAxis: chart.YAxis{
			Style: chart.Style{
				FontColor: chartText,
			},
			Range: &chart.ContinuousRange{
				Min: 0,
				Max: top * 1.1,
			},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
