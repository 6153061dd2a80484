package utils

import (
	"bytes"
	"unicode/utf8"

	"github.com/mogaika/mesh_optimizer/config"

	"golang.org/x/text/transform"
)

// BytesToString decodes zero terminated string using configured charmap.
// Undecodable input is returned as is.
func BytesToString(bs []byte) string {
	n := bytes.IndexByte(bs, 0)
	if n < 0 {
		n = len(bs)
	}

	s, _, err := transform.Bytes(config.GetEncoding().NewDecoder(), bs[0:n])
	if err != nil {
		return string(bs[0:n])
	}

	return string(s)
}

// DecodeName returns name unchanged if it is valid utf8,
// otherwise treats it as legacy single-byte encoded string
func DecodeName(name string) string {
	if utf8.ValidString(name) {
		return name
	}
	return BytesToString([]byte(name))
}
