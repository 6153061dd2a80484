package fbx

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	rawfbx "github.com/mogaika/fbx"
	"github.com/pkg/errors"
)

// exporter writes node tree in ascii fbx notation
type exporter struct {
	tabs int
	w    *bufio.Writer
	err  error
}

func (e *exporter) fillTabs(diff int) {
	for i := 0; i < e.tabs+diff; i++ {
		e.w.WriteRune('\t')
	}
}

func (e *exporter) tabsInc() { e.tabs++ }
func (e *exporter) tabsDec() { e.tabs-- }

func (e *exporter) printf(format string, args ...interface{}) {
	e.w.WriteString(fmt.Sprintf(format, args...))
}
func (e *exporter) print(s string) {
	e.w.WriteString(s)
}

func asciiString(s string) string {
	// binary "name\x00\x01Class" is "Class::name" in ascii files
	if name, class := SplitName(s); class != "" {
		s = class + "::" + name
	}
	return fmt.Sprintf("%q", s)
}

func (e *exporter) simpleValueString(v interface{}) string {
	switch value := v.(type) {
	case bool:
		if value {
			return "T"
		} else {
			return "F"
		}
	case int16, int32, int64:
		return fmt.Sprintf("%d", value)
	case float32, float64:
		return fmt.Sprintf("%v", value)
	case string:
		return asciiString(value)
	case []byte:
		return fmt.Sprintf("%q", base64.StdEncoding.EncodeToString(value))
	default:
		if e.err == nil {
			e.err = errors.Errorf("Unsupported property type %T", v)
		}
		return ""
	}
}

func arrayLength(v interface{}) (int, bool) {
	switch a := v.(type) {
	case []bool:
		return len(a), true
	case []int32:
		return len(a), true
	case []int64:
		return len(a), true
	case []float32:
		return len(a), true
	case []float64:
		return len(a), true
	}
	return 0, false
}

func (e *exporter) exportArray(name string, v interface{}) {
	l, _ := arrayLength(v)
	e.fillTabs(0)
	e.printf("%s: *%d {\n", name, l)
	e.fillTabs(1)
	e.print("a: ")
	switch a := v.(type) {
	case []bool:
		for i := range a {
			if i != 0 {
				e.print(",")
			}
			if a[i] {
				e.print("1")
			} else {
				e.print("0")
			}
		}
	case []int32:
		for i := range a {
			if i != 0 {
				e.print(",")
			}
			e.printf("%d", a[i])
		}
	case []int64:
		for i := range a {
			if i != 0 {
				e.print(",")
			}
			e.printf("%d", a[i])
		}
	case []float32:
		for i := range a {
			if i != 0 {
				e.print(",")
			}
			e.printf("%v", a[i])
		}
	case []float64:
		for i := range a {
			if i != 0 {
				e.print(",")
			}
			e.printf("%v", a[i])
		}
	}
	e.print("\n")
	e.fillTabs(0)
	e.print("}\n")
}

func (e *exporter) exportNode(n *rawfbx.Node) {
	if len(n.Properties) == 1 {
		if _, isArray := arrayLength(n.Properties[0]); isArray {
			e.exportArray(n.Name, n.Properties[0])
			return
		}
	}

	e.fillTabs(0)
	e.printf("%s: ", n.Name)
	params := make([]string, len(n.Properties))
	for i, p := range n.Properties {
		params[i] = e.simpleValueString(p)
	}
	e.print(strings.Join(params, ", "))

	if len(n.Nodes) == 0 {
		e.print("\n")
		return
	}

	if len(params) != 0 {
		e.print(" ")
	}
	e.print("{\n")
	e.tabsInc()
	for _, sub := range n.Nodes {
		e.exportNode(sub)
	}
	e.tabsDec()
	e.fillTabs(0)
	e.print("}\n")
}

// WriteASCII writes scene in ascii notation, useful for diffing and inspection
func (s *Scene) WriteASCII(originalWriter io.Writer) error {
	w := bufio.NewWriter(originalWriter)

	e := exporter{w: w}
	v := s.f.Version
	e.printf("; FBX %d.%d.%d project file\n\n", v/1000, (v%1000)/100, (v%100)/10)

	for _, n := range s.Root().Nodes {
		e.exportNode(n)
		e.print("\n")
	}
	if e.err != nil {
		return e.err
	}

	return w.Flush()
}
