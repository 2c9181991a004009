//go:build windows

package types

import (
	"os"
	"path/filepath"
)

func GetConfigDir() string {
	def := os.Getenv("LOCALAPPDATA")
	if def == "" {
		def = os.Getenv("APPDATA")
	}
	return filepath.Join(def, "etx2mission")
}
