package layout

import "github.com/chartgpu/chartgpu/common"

// GridArea is the plotting area in CSS pixels plus the device-pixel
// canvas size and ratio it was derived at.
type GridArea struct {
	Left, Right, Top, Bottom       float64
	CanvasWidthPx, CanvasHeightPx  int
	DevicePixelRatio               float64
}

// ComputeGridArea starts from the options grid inset and applies a legend
// inset on the side the legend is docked to; facet tiling is done
// separately by TileFacets — generalizing
// engine.go's resize-callback pattern (SetResizeCallback recomputing
// aspect on every resize) to recompute on every options/layout dirty mark
// instead of only on a window resize.
func ComputeGridArea(grid common.GridInsets, legend *common.LegendConfig, canvasWidthPx, canvasHeightPx int, dpr float64) GridArea {
	area := GridArea{
		Left: grid.Left, Right: grid.Right, Top: grid.Top, Bottom: grid.Bottom,
		CanvasWidthPx: canvasWidthPx, CanvasHeightPx: canvasHeightPx,
		DevicePixelRatio: dpr,
	}
	if legend == nil || legend.Position == common.LegendNone {
		return area
	}
	switch legend.Position {
	case common.LegendTop:
		area.Top += legend.SizeCSS
	case common.LegendBottom:
		area.Bottom += legend.SizeCSS
	case common.LegendLeft:
		area.Left += legend.SizeCSS
	case common.LegendRight:
		area.Right += legend.SizeCSS
	}
	return area
}

// InnerWidthCSS returns the plotting area's width in CSS pixels.
func (g GridArea) InnerWidthCSS() float64 {
	return float64(g.CanvasWidthPx)/g.DevicePixelRatio - g.Left - g.Right
}

// InnerHeightCSS returns the plotting area's height in CSS pixels.
func (g GridArea) InnerHeightCSS() float64 {
	return float64(g.CanvasHeightPx)/g.DevicePixelRatio - g.Top - g.Bottom
}

// FacetCell is one tile's grid area within a faceted layout.
type FacetCell struct {
	Row, Col int
	Area     GridArea
}

// TileFacets subdivides area's inner plotting region into facet.Rows x
// facet.Cols equal cells separated by facet.GapCSS, each inheriting
// area's canvas size and DPR.
func TileFacets(area GridArea, facet common.FacetConfig) []FacetCell {
	if facet.Rows <= 0 || facet.Cols <= 0 {
		return nil
	}
	innerW := area.InnerWidthCSS()
	innerH := area.InnerHeightCSS()

	cellW := (innerW - facet.GapCSS*float64(facet.Cols-1)) / float64(facet.Cols)
	cellH := (innerH - facet.GapCSS*float64(facet.Rows-1)) / float64(facet.Rows)

	cells := make([]FacetCell, 0, facet.Rows*facet.Cols)
	for row := 0; row < facet.Rows; row++ {
		for col := 0; col < facet.Cols; col++ {
			left := area.Left + float64(col)*(cellW+facet.GapCSS)
			top := area.Top + float64(row)*(cellH+facet.GapCSS)
			cellArea := GridArea{
				Left:             left,
				Right:            area.Right + area.Left + innerW - (left + cellW),
				Top:              top,
				Bottom:           area.Bottom + area.Top + innerH - (top + cellH),
				CanvasWidthPx:    area.CanvasWidthPx,
				CanvasHeightPx:   area.CanvasHeightPx,
				DevicePixelRatio: area.DevicePixelRatio,
			}
			cells = append(cells, FacetCell{Row: row, Col: col, Area: cellArea})
		}
	}
	return cells
}
