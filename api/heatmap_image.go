package api

import (
	"bytes"
	"fmt"
	"time"

	"diadesorte/domain/entities"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
)

// HeatMapStyle defines the layout of the heat-map grid
type HeatMapStyle struct {
	Columns  int
	CellSize int
	Gap      int
	Padding  int
	Header   int
}

var defaultHeatMapStyle = HeatMapStyle{
	Columns:  7,
	CellSize: 72,
	Gap:      6,
	Padding:  16,
	Header:   40,
}

var statusColors = map[entities.HeatStatus][3]float64{
	entities.HeatStatusHot:  {0.86, 0.24, 0.2},
	entities.HeatStatusWarm: {0.95, 0.6, 0.18},
	entities.HeatStatusCold: {0.2, 0.45, 0.8},
}

// RenderHeatMap draws one cell per number, colored by status, as a PNG
func RenderHeatMap(entries []entities.HeatMapEntry) ([]byte, error) {
	start := time.Now()
	defer func() {
		log.WithField("duration_ms", time.Since(start).Milliseconds()).
			WithField("cell_count", len(entries)).
			Debug("Heat map image generation completed")
	}()

	s := defaultHeatMapStyle
	rows := (len(entries) + s.Columns - 1) / s.Columns
	if rows == 0 {
		rows = 1
	}
	width := 2*s.Padding + s.Columns*s.CellSize + (s.Columns-1)*s.Gap
	height := s.Header + 2*s.Padding + rows*s.CellSize + (rows-1)*s.Gap

	dc := gg.NewContext(width, height)
	dc.SetRGB(0.12, 0.12, 0.16)
	dc.Clear()

	titleFace, err := loadFont(gobold.TTF, 18)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	numberFace, err := loadFont(gobold.TTF, 22)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	detailFace, err := loadFont(gomono.TTF, 11)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}

	dc.SetFontFace(titleFace)
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored("Mapa de calor - Dia de Sorte", float64(width)/2, float64(s.Padding+s.Header/2), 0.5, 0.5)

	for i, e := range entries {
		col := i % s.Columns
		row := i / s.Columns
		x := float64(s.Padding + col*(s.CellSize+s.Gap))
		y := float64(s.Header + s.Padding + row*(s.CellSize+s.Gap))
		size := float64(s.CellSize)

		rgb, ok := statusColors[e.Status]
		if !ok {
			rgb = statusColors[entities.HeatStatusCold]
		}
		// Hotter cells are more opaque
		alpha := 0.35 + 0.65*clamp(e.Temperature/100, 0, 1)
		dc.SetRGBA(rgb[0], rgb[1], rgb[2], alpha)
		dc.DrawRoundedRectangle(x, y, size, size, 8)
		dc.Fill()

		dc.SetRGB(1, 1, 1)
		dc.SetFontFace(numberFace)
		dc.DrawStringAnchored(fmt.Sprintf("%02d", e.Number), x+size/2, y+size*0.4, 0.5, 0.5)

		dc.SetFontFace(detailFace)
		dc.DrawStringAnchored(fmt.Sprintf("%.1f°", e.Temperature), x+size/2, y+size*0.78, 0.5, 0.5)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}

// loadFont loads a font from byte data
func loadFont(fontData []byte, size float64) (font.Face, error) {
	f, err := truetype.Parse(fontData)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		Hinting: font.HintingFull,
	}), nil
}
