// Copyright 2026 The BayesMoons Authors. SPDX-License-Identifier: Apache-2.0

package viz

import (
	"fmt"

	grob "github.com/MetalBlueberry/go-plotly/generated/v2.34.0/graph_objects"
	"github.com/disintegration/imaging"
	"github.com/janpfeifer/gonb/gonbui"
	gonbplotly "github.com/janpfeifer/gonb/gonbui/plotly"
	"k8s.io/klog/v2"
)

// IsNotebook reports whether running under the GoNB notebook kernel, in
// which case the Display functions render inline.
func IsNotebook() bool { return gonbui.IsNotebook }

// DisplayHTML renders html inline when in a notebook, and is a no-op
// otherwise.
func DisplayHTML(html string) {
	if !gonbui.IsNotebook || html == "" {
		return
	}
	gonbui.DisplayHTML(html)
}

// DisplayFigs renders the Plotly figures inline when in a notebook, and is a
// no-op otherwise -- the figures presumably also went to an HTML file, see
// PlotlyToHTMLFile.
func DisplayFigs(figs ...*grob.Fig) {
	if !gonbui.IsNotebook {
		return
	}
	for _, fig := range figs {
		if err := gonbplotly.DisplayFig(fig); err != nil {
			klog.Errorf("Failed to display plotly figure: %+v", err)
		}
	}
}

// DisplayImageFile embeds the image inline when in a notebook; otherwise it
// just logs where the file was written.
func DisplayImageFile(path string) {
	if !gonbui.IsNotebook {
		klog.Infof("Plot written to %s", path)
		return
	}
	img, err := imaging.Open(path)
	if err != nil {
		klog.Errorf("Failed to open %q for display: %+v", path, err)
		return
	}
	src, err := gonbui.EmbedImageAsPNGSrc(img)
	if err != nil {
		klog.Errorf("Failed to embed %q: %+v", path, err)
		return
	}
	gonbui.DisplayHTML(fmt.Sprintf(`<img src="%s">`, src))
}
