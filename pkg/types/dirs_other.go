//go:build !windows

package types

import (
	"os"
	"path/filepath"
)

func GetConfigDir() string {
	def := os.Getenv("XDG_CONFIG_HOME")
	if def == "" {
		def = os.Getenv("HOME")
		if def != "" {
			def = filepath.Join(def, ".config")
		} else {
			def = "./"
		}
	}
	return filepath.Join(def, "etx2mission")
}
