package kmlgen

import (
	"fmt"
	"path/filepath"
)

func GenKmlName(inp string, idx int, kmlout bool) string {
	outfn := filepath.Base(inp)
	ext := filepath.Ext(outfn)
	if len(ext) < len(outfn) {
		outfn = outfn[0 : len(outfn)-len(ext)]
	}
	if kmlout {
		ext = ".kml"
	} else {
		ext = ".kmz"
	}
	if idx > 0 {
		ext = fmt.Sprintf(".%d%s", idx, ext)
	}
	outfn = outfn + ext
	return outfn
}
