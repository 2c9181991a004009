package kmlgen

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/mazznoer/colorgrad"
	kml "github.com/twpayne/go-kml"
	"github.com/twpayne/go-kml/icon"
)

const NUM_GRAD = 20

func gradient(name string) colorgrad.Gradient {
	switch strings.ToLower(name) {
	case "red":
		return colorgrad.Reds()
	case "ylorrd", "yor":
		return colorgrad.YlOrRd()
	default:
		return colorgrad.RdYlGn()
	}
}

// gradset samples the gradient at NUM_GRAD+1 points, low to high
func gradset(name string) []color.RGBA {
	grad := gradient(name)
	cols := make([]color.RGBA, NUM_GRAD+1)
	for i := range cols {
		c := grad.At(float64(i) / NUM_GRAD)
		r, g, b, a := c.RGBA()
		cols[i] = color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
	}
	return cols
}

func gradStyleName(j int) string {
	return fmt.Sprintf("styleGrad%03d", j*5)
}

func balloon() kml.Element {
	return kml.BalloonStyle(kml.BgColor(color.RGBA{R: 0xde, G: 0xde, B: 0xde, A: 0x40}),
		kml.Text(`<b><font size="+2">$[name]</font></b><br/><br/>$[description]<br/>`))
}

func mission_styles(gradname string) []kml.Element {
	styles := []kml.Element{
		kml.SharedStyle(
			"styleWPTrack",
			kml.LineStyle(
				kml.Width(4.0),
				kml.Color(color.RGBA{R: 0, G: 0xff, B: 0xff, A: 0x66}),
			),
			kml.PolyStyle(
				kml.Color(color.RGBA{R: 0, G: 0xff, B: 0xff, A: 0x1a}),
			),
		),
		kml.SharedStyle(
			"styleTerminal",
			kml.IconStyle(
				kml.Scale(0.8),
				kml.Icon(
					kml.Href(icon.PaddleHref("red-diamond")),
				),
			),
			balloon(),
		),
		kml.SharedStyle(
			"styleWAYPOINT",
			kml.IconStyle(
				kml.Scale(0.8),
				kml.Icon(
					kml.Href(icon.PaddleHref("ltblu-circle")),
				),
			),
			balloon(),
		),
	}
	for j, c := range gradset(gradname) {
		styles = append(styles, kml.SharedStyle(
			gradStyleName(j),
			kml.IconStyle(
				kml.Scale(0.6),
				kml.Color(c),
				kml.Icon(
					kml.Href(icon.PaletteHref(2, 18)),
				),
			),
			balloon(),
		))
	}
	return styles
}
