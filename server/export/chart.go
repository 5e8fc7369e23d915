package export

import (
	"io"

	"github.com/pkg/errors"
	"github.com/pastoralsj/registro/server/models"
	chart "github.com/wcharczuk/go-chart/v2"
)

var ErrNoData = errors.New("sem registros para o relatório")

// WriteSectorChart renders the agents-per-sector bar chart as PNG.
func WriteSectorChart(w io.Writer, members []models.Member) error {
	if len(members) == 0 {
		return ErrNoData
	}

	counts := map[string]int{}
	for _, m := range members {
		counts[m.Sector]++
	}

	bars := []chart.Value{}
	for _, sector := range models.Sectors {
		if counts[sector] == 0 {
			continue
		}
		bars = append(bars, chart.Value{
			Label: sector,
			Value: float64(counts[sector]),
		})
	}

	if len(bars) == 0 {
		return ErrNoData
	}

	graph := chart.BarChart{
		Title:    "Agentes por setor",
		Width:    900,
		Height:   512,
		BarWidth: 70,
		Bars:     bars,
	}

	return graph.Render(chart.PNG, w)
}
