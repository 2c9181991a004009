package types

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

const (
	IS_UNKNOWN = -1
	IS_OTX     = 2
	IS_MWXML   = 4
	IS_SQL     = 6
)

func EvinceFileType(fn string) (int, error) {
	res := IS_UNKNOWN
	file, err := os.Open(fn)
	if err != nil {
		return res, fmt.Errorf("filetype: %w", err)
	}
	defer file.Close()
	fh := bufio.NewReader(file)
	sig, _ := fh.Peek(128) //read a few bytes without consuming
	s := strings.TrimPrefix(string(sig), "\xef\xbb\xbf")
	switch {
	case strings.HasPrefix(s, "Date,Time,"):
		res = IS_OTX
	case strings.HasPrefix(s, "<?xml") && strings.Contains(s, "<mission"):
		res = IS_MWXML
	case strings.HasPrefix(s, "<mission"):
		res = IS_MWXML
	case strings.HasPrefix(s, "SQLite format 3"):
		res = IS_SQL
	}
	return res, nil
}
