// Copyright 2026 The BayesMoons Authors. SPDX-License-Identifier: Apache-2.0

package viz

import (
	"encoding/base64"
	"encoding/json"
	"html/template"
	"io"
	"os"

	grob "github.com/MetalBlueberry/go-plotly/generated/v2.34.0/graph_objects"
	ptypes "github.com/MetalBlueberry/go-plotly/pkg/types"
	"github.com/janpfeifer/gonb/gonbui/plotly"
	"github.com/pkg/errors"

	"github.com/probing-ml/bayesmoons"
)

// HeatmapFig builds an interactive Plotly heatmap of one grid field.
func HeatmapFig(g *GridData, title string) *grob.Fig {
	fig := &grob.Fig{
		Layout: &grob.Layout{
			Title: &grob.LayoutTitle{
				Text: ptypes.S(title),
			},
			Xaxis: &grob.LayoutXaxis{
				Showgrid: ptypes.B(false),
			},
			Yaxis: &grob.LayoutYaxis{
				Showgrid: ptypes.B(false),
			},
		},
	}
	fig.Data = append(fig.Data, &grob.Heatmap{
		X: ptypes.DataArray(g.X1s),
		Y: ptypes.DataArray(g.X2s),
		Z: ptypes.DataArray(g.Values),
	})
	return fig
}

// SurfaceFigs builds the Plotly versions of the canonical pair: predictive
// mean and predictive stddev.
func SurfaceFigs(grid *bayesmoons.GridPrediction) []*grob.Fig {
	mean, stddev := SurfaceGrids(grid)
	return []*grob.Fig{
		HeatmapFig(mean, "Posterior-predictive mean p(class=1)"),
		HeatmapFig(stddev, "Posterior-predictive stddev"),
	}
}

var (
	// Self-contained page: figures embedded as base64 JSON, Plotly from CDN.
	plotlyPageHTML = `<!DOCTYPE html>
	<head>
		<meta charset="utf-8">
		<script src="{{ .CDN }}"></script>
	</head>
	<body>
{{- range $i, $f := .Figures }}
		<div id="plot{{ $i }}"></div>
		{{ if not (eq $i (lastIdx $.Figures)) }}
		<hr style="border-color: gray;">
		{{ end }}
{{- end }}
	<script>
{{- range $i, $f := .Figures }}
		data = JSON.parse(atob('{{ $f }}'))
		Plotly.newPlot('plot{{ $i }}', data);
{{- end }}
	</script>
	</body>
</html>`
	plotlyPageTmpl = template.Must(template.New("plotly").Funcs(template.FuncMap{
		"lastIdx": func(a []string) int { return len(a) - 1 },
	}).Parse(plotlyPageHTML))
)

// WritePlotlyHTML renders the figures as one standalone HTML page.
func WritePlotlyHTML(w io.Writer, figs ...*grob.Fig) error {
	encoded := make([]string, 0, len(figs))
	for _, fig := range figs {
		figAsJSON, err := json.Marshal(fig)
		if err != nil {
			return errors.Wrap(err, "marshalling plotly figure")
		}
		encoded = append(encoded, base64.StdEncoding.EncodeToString(figAsJSON))
	}
	data := &struct {
		CDN     string
		Figures []string
	}{
		CDN:     plotly.PlotlySrc,
		Figures: encoded,
	}
	if err := plotlyPageTmpl.Execute(w, data); err != nil {
		return errors.Wrap(err, "rendering plotly page")
	}
	return nil
}

// PlotlyToHTMLFile saves the figures as a standalone HTML file that can be
// opened in any browser.
func PlotlyToHTMLFile(path string, figs ...*grob.Fig) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %q", path)
	}
	defer func() { _ = f.Close() }()
	return WritePlotlyHTML(f, figs...)
}
