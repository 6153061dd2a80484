package vfs

import "time"

type Element interface {
	Name() string
	IsDirectory() bool
}

type File interface {
	Element
	Size() int64
	ModTime() time.Time
	// Path is name of file on host filesystem
	Path() string
}

type Directory interface {
	Element
	List() ([]string, error)
	GetElement(name string) (Element, error)
}
