package cache

import (
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mogaika/mesh_optimizer/fbx"
)

type entry struct {
	modTime time.Time
	size    int64
	scene   *fbx.Scene
}

// Cache keeps parsed scenes until file on disk changes
type Cache struct {
	lock sync.Mutex
	d    map[string]*entry
	opts []fbx.Option
}

func (c *Cache) Add(path string, info os.FileInfo, scene *fbx.Scene) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.d[path] = &entry{modTime: info.ModTime(), size: info.Size(), scene: scene}
}

// Get returns cached scene if file was not modified since it was added
func (c *Cache) Get(path string, info os.FileInfo) *fbx.Scene {
	c.lock.Lock()
	defer c.lock.Unlock()
	if e, ok := c.d[path]; ok && e.modTime.Equal(info.ModTime()) && e.size == info.Size() {
		return e.scene
	}
	return nil
}

// Open returns cached scene or parses file. Callers must not modify returned scene.
func (c *Cache) Open(path string) (*fbx.Scene, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to stat %q", path)
	}
	if scene := c.Get(path, info); scene != nil {
		return scene, nil
	}

	scene, err := fbx.Open(path, c.opts...)
	if err != nil {
		return nil, err
	}
	c.Add(path, info, scene)
	return scene, nil
}

func NewCache(opts ...fbx.Option) *Cache {
	return &Cache{d: make(map[string]*entry), opts: opts}
}
