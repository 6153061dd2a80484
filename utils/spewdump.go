package utils

import (
	"bytes"
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"
)

var spewConfig *spew.ConfigState

func init() {
	spewConfig = spew.NewDefaultConfig()
	spewConfig.DisableCapacities = true
	spewConfig.DisablePointerAddresses = true
	spewConfig.SortKeys = true
}

func Dump(w io.Writer, a ...interface{}) {
	spewConfig.Fdump(w, a...)
}

func SDump(a ...interface{}) string {
	return spewConfig.Sdump(a...)
}

// LogDump writes dump of values at debug level
func LogDump(log *zap.Logger, msg string, a ...interface{}) {
	if ce := log.Check(zap.DebugLevel, msg); ce != nil {
		ce.Write(zap.String("dump", spewConfig.Sdump(a...)))
	}
}

// DumpToOneLineString escapes non printable bytes, used for names that failed to decode
func DumpToOneLineString(buf []byte) string {
	var out bytes.Buffer

	for _, b := range buf {
		if b >= 0x20 && b < 0x7f {
			out.WriteByte(b)
		} else {
			out.WriteString(fmt.Sprintf("\\x%.2x", b))
		}
	}

	return out.String()
}
