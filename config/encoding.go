package config

import (
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

var (
	nameCharmapLock sync.RWMutex
	nameCharmap     = charmap.Windows1252
)

// SetEncoding selects charmap by its name, as listed by ListEncodings
func SetEncoding(name string) error {
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok && cm.String() == name {
			nameCharmapLock.Lock()
			nameCharmap = cm
			nameCharmapLock.Unlock()
			return nil
		}
	}
	return errors.Errorf("Failed to find encoding %q", name)
}

func ListEncodings() []string {
	list := make([]string, 0)
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			list = append(list, cm.String())
		}
	}
	return list
}

// GetEncoding returns charmap used to decode legacy object names
func GetEncoding() *charmap.Charmap {
	nameCharmapLock.RLock()
	defer nameCharmapLock.RUnlock()
	return nameCharmap
}
