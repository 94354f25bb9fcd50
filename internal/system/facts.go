// Package system collects operating system and machine facts for reports.
package system

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ErrUnavailable is returned by a Querier on platforms without fact support.
var ErrUnavailable = errors.New("system facts unavailable on this platform")

// Query names one logical fact source.
type Query struct {
	Name string
	// Class is the CIM class backing the query on Windows.
	Class string
	// DisplayField selects the property used as an instance's display name.
	DisplayField string
}

var (
	OperatingSystem = Query{Name: "Operating System", Class: "Win32_OperatingSystem", DisplayField: "Caption"}
	Machine         = Query{Name: "Machine", Class: "Win32_ComputerSystem", DisplayField: "Name"}
)

// Default allow-lists applied to the two queries.
var (
	OperatingSystemKeys = []string{"CodeSet", "CurrentTimeZone", "FreePhysicalMemory", "OSArchitecture", "OSLanguage", "Version"}
	MachineKeys         = []string{"TotalPhysicalMemory", "Manufacturer", "Model"}
)

// Property is one key/value pair of an instance.
type Property struct {
	Key   string
	Value string
}

// Instance is one object returned by a query.
type Instance struct {
	Display    string
	Properties []Property
}

// Querier runs fact queries against the host.
type Querier interface {
	Available() bool
	Query(ctx context.Context, q Query) ([]Instance, error)
}

// SysInfoResult is a named tree of "Key = Value" facts.
type SysInfoResult struct {
	Name     string           `json:"name"`
	Nodes    []string         `json:"nodes"`
	Children []*SysInfoResult `json:"children,omitempty"`
}

// Filter returns a copy whose children only keep nodes containing one of keys.
// The result's own nodes are display names and are kept as-is.
func (r *SysInfoResult) Filter(keys []string) *SysInfoResult {
	out := &SysInfoResult{Name: r.Name, Nodes: append([]string(nil), r.Nodes...)}
	for _, c := range r.Children {
		out.Children = append(out.Children, c.filterNodes(keys))
	}
	return out
}

func (r *SysInfoResult) filterNodes(keys []string) *SysInfoResult {
	out := &SysInfoResult{Name: r.Name}
	for _, n := range r.Nodes {
		for _, k := range keys {
			if strings.Contains(n, k) {
				out.Nodes = append(out.Nodes, n)
				break
			}
		}
	}
	for _, c := range r.Children {
		out.Children = append(out.Children, c.filterNodes(keys))
	}
	return out
}

// Retrieve runs q and shapes the instances into a result tree.
func Retrieve(ctx context.Context, querier Querier, q Query) (*SysInfoResult, error) {
	instances, err := querier.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	res := &SysInfoResult{Name: q.Name}
	for _, inst := range instances {
		res.Nodes = append(res.Nodes, inst.Display)
		props := append([]Property(nil), inst.Properties...)
		sort.SliceStable(props, func(i, j int) bool { return props[i].Key < props[j].Key })
		child := &SysInfoResult{Name: inst.Display}
		for _, p := range props {
			child.Nodes = append(child.Nodes, p.Key+" = "+p.Value)
		}
		res.Children = append(res.Children, child)
	}
	return res, nil
}

// FactProvider fetches the filtered operating system and machine facts once
// and serves the memoized result afterwards.
type FactProvider struct {
	querier Querier
	logger  *zap.Logger

	mu      sync.Mutex
	fetched bool
	facts   []*SysInfoResult
}

func NewFactProvider(querier Querier, logger *zap.Logger) *FactProvider {
	if querier == nil {
		querier = NewQuerier()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FactProvider{querier: querier, logger: logger}
}

// Available reports whether the host supports fact queries.
func (p *FactProvider) Available() bool {
	return p.querier.Available()
}

// Fetch never fails: on unsupported platforms it returns an empty slice.
// Transient failures are not memoized so a later call can retry.
func (p *FactProvider) Fetch(ctx context.Context) []*SysInfoResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.fetched {
		return p.facts
	}
	if !p.querier.Available() {
		p.fetched = true
		p.facts = []*SysInfoResult{}
		p.logger.Debug("system facts unavailable on this platform")
		return p.facts
	}

	facts := make([]*SysInfoResult, 0, 2)
	for _, set := range []struct {
		q    Query
		keys []string
	}{
		{OperatingSystem, OperatingSystemKeys},
		{Machine, MachineKeys},
	} {
		res, err := Retrieve(ctx, p.querier, set.q)
		if errors.Is(err, ErrUnavailable) {
			p.fetched = true
			p.facts = []*SysInfoResult{}
			p.logger.Debug("system facts unavailable", zap.String("query", set.q.Name))
			return p.facts
		}
		if err != nil {
			p.logger.Warn("system fact query failed", zap.String("query", set.q.Name), zap.Error(err))
			return []*SysInfoResult{}
		}
		facts = append(facts, res.Filter(set.keys))
	}

	p.fetched = true
	p.facts = facts
	return p.facts
}
