// Package assembly lists the modules a Go binary was built from.
package assembly

import (
	"debug/buildinfo"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Ref is one module linked into a binary.
type Ref struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// selfKey caches the running binary separately from any file path.
const selfKey = "\x00self"

type cache struct {
	mu    sync.RWMutex
	refs  map[string][]Ref
	main  map[string]Ref
	group singleflight.Group
}

func newCache() *cache {
	return &cache{refs: map[string][]Ref{}, main: map[string]Ref{}}
}

// shared is used by every Inspector built with New, so repeated lookups of a
// binary return the same slice for the life of the process.
var shared = newCache()

// Inspector reads and memoizes module lists.
type Inspector struct {
	cache    *cache
	readFile func(path string) (*debug.BuildInfo, error)
	readSelf func() (*debug.BuildInfo, bool)
}

func New() *Inspector {
	return &Inspector{cache: shared, readFile: buildinfo.ReadFile, readSelf: debug.ReadBuildInfo}
}

// Refs returns the deduplicated, name-sorted module list of the binary at path.
// Callers must not modify the returned slice.
func (i *Inspector) Refs(path string) ([]Ref, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return i.load(abs, func() (*debug.BuildInfo, error) {
		return i.readFile(abs)
	})
}

// Self returns the module list of the running binary.
func (i *Inspector) Self() ([]Ref, error) {
	return i.load(selfKey, func() (*debug.BuildInfo, error) {
		bi, ok := i.readSelf()
		if !ok {
			return nil, fmt.Errorf("build info not embedded in running binary")
		}
		return bi, nil
	})
}

// MainModule returns the main module of the binary at path, or of the running
// binary when path is empty. Version is empty for development builds.
func (i *Inspector) MainModule(path string) (Ref, error) {
	key := selfKey
	var err error
	if path != "" {
		if key, err = filepath.Abs(path); err != nil {
			return Ref{}, err
		}
		_, err = i.Refs(path)
	} else {
		_, err = i.Self()
	}
	if err != nil {
		return Ref{}, err
	}
	i.cache.mu.RLock()
	defer i.cache.mu.RUnlock()
	return i.cache.main[key], nil
}

func (i *Inspector) load(key string, read func() (*debug.BuildInfo, error)) ([]Ref, error) {
	i.cache.mu.RLock()
	refs, ok := i.cache.refs[key]
	i.cache.mu.RUnlock()
	if ok {
		return refs, nil
	}

	v, err, _ := i.cache.group.Do(key, func() (any, error) {
		i.cache.mu.RLock()
		refs, ok := i.cache.refs[key]
		i.cache.mu.RUnlock()
		if ok {
			return refs, nil
		}

		bi, err := read()
		if err != nil {
			return nil, fmt.Errorf("read build info: %w", err)
		}
		refs = fromBuildInfo(bi)

		i.cache.mu.Lock()
		i.cache.refs[key] = refs
		i.cache.main[key] = mainRef(bi)
		i.cache.mu.Unlock()
		return refs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Ref), nil
}

func mainRef(bi *debug.BuildInfo) Ref {
	v := bi.Main.Version
	if v == "(devel)" {
		v = ""
	}
	return Ref{Name: bi.Main.Path, Version: v}
}

func fromBuildInfo(bi *debug.BuildInfo) []Ref {
	seen := map[string]bool{}
	refs := make([]Ref, 0, len(bi.Deps)+2)
	add := func(r Ref) {
		if r.Name == "" || seen[r.Name] {
			return
		}
		seen[r.Name] = true
		refs = append(refs, r)
	}

	add(mainRef(bi))
	if bi.GoVersion != "" {
		add(Ref{Name: "go", Version: bi.GoVersion})
	}
	for _, d := range bi.Deps {
		r := Ref{Name: d.Path, Version: d.Version}
		if d.Replace != nil && d.Replace.Version != "" {
			r.Version = d.Replace.Version
		}
		add(r)
	}
	sort.Slice(refs, func(a, b int) bool { return refs[a].Name < refs[b].Name })
	return refs
}
