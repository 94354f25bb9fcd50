package system

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQuerier struct {
	mu        sync.Mutex
	available bool
	err       error
	calls     int
}

func (f *fakeQuerier) Available() bool { return f.available }

func (f *fakeQuerier) Query(_ context.Context, q Query) ([]Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	switch q {
	case OperatingSystem:
		return []Instance{{
			Display: "Microsoft Windows 11 Pro",
			Properties: []Property{
				{Key: "Version", Value: "10.0.22631"},
				{Key: "BootDevice", Value: `\Device\HarddiskVolume1`},
				{Key: "OSArchitecture", Value: "64-bit"},
				{Key: "CodeSet", Value: "1252"},
			},
		}}, nil
	default:
		return []Instance{{
			Display: "WORKSTATION",
			Properties: []Property{
				{Key: "Model", Value: "XPS 15"},
				{Key: "Domain", Value: "WORKGROUP"},
				{Key: "Manufacturer", Value: "Dell Inc."},
			},
		}}, nil
	}
}

func TestFetchFiltersToAllowLists(t *testing.T) {
	q := &fakeQuerier{available: true}
	p := NewFactProvider(q, nil)

	facts := p.Fetch(context.Background())
	require.Len(t, facts, 2)

	osRes := facts[0]
	assert.Equal(t, "Operating System", osRes.Name)
	assert.Equal(t, []string{"Microsoft Windows 11 Pro"}, osRes.Nodes)
	require.Len(t, osRes.Children, 1)
	assert.Equal(t, []string{"CodeSet = 1252", "OSArchitecture = 64-bit", "Version = 10.0.22631"}, osRes.Children[0].Nodes)

	machine := facts[1]
	assert.Equal(t, []string{"Manufacturer = Dell Inc.", "Model = XPS 15"}, machine.Children[0].Nodes)
}

func TestFetchMemoizes(t *testing.T) {
	q := &fakeQuerier{available: true}
	p := NewFactProvider(q, nil)

	first := p.Fetch(context.Background())
	second := p.Fetch(context.Background())
	assert.Equal(t, 2, q.calls)
	assert.Same(t, first[0], second[0])
}

func TestFetchConcurrentCallersShareResult(t *testing.T) {
	q := &fakeQuerier{available: true}
	p := NewFactProvider(q, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Len(t, p.Fetch(context.Background()), 2)
		}()
	}
	wg.Wait()
	assert.Equal(t, 2, q.calls)
}

func TestFetchDegradesWhenUnavailable(t *testing.T) {
	p := NewFactProvider(&fakeQuerier{available: false}, nil)
	facts := p.Fetch(context.Background())
	assert.NotNil(t, facts)
	assert.Empty(t, facts)
	assert.False(t, p.Available())

	q := &fakeQuerier{available: true, err: ErrUnavailable}
	p = NewFactProvider(q, nil)
	assert.Empty(t, p.Fetch(context.Background()))
	p.Fetch(context.Background())
	assert.Equal(t, 1, q.calls)
}

func TestFetchRetriesAfterTransientError(t *testing.T) {
	q := &fakeQuerier{available: true, err: errors.New("timeout")}
	p := NewFactProvider(q, nil)
	assert.Empty(t, p.Fetch(context.Background()))

	q.err = nil
	assert.Len(t, p.Fetch(context.Background()), 2)
}

func TestFilterKeepsDisplayNodesAndRecurses(t *testing.T) {
	r := &SysInfoResult{
		Name:  "root",
		Nodes: []string{"display"},
		Children: []*SysInfoResult{{
			Name:  "child",
			Nodes: []string{"Keep = 1", "Drop = 2"},
			Children: []*SysInfoResult{{
				Name:  "grandchild",
				Nodes: []string{"Drop = 3", "Keep = 4"},
			}},
		}},
	}

	got := r.Filter([]string{"Keep"})
	assert.Equal(t, []string{"display"}, got.Nodes)
	assert.Equal(t, []string{"Keep = 1"}, got.Children[0].Nodes)
	assert.Equal(t, []string{"Keep = 4"}, got.Children[0].Children[0].Nodes)
	assert.Len(t, r.Children[0].Nodes, 2)
}

func TestParseCIMOutput(t *testing.T) {
	one := []byte(`{"Caption":"Microsoft Windows 11 Pro","Version":"10.0.22631","CurrentTimeZone":600,"Extra":null,"Nested":{"a":1}}`)
	inst, err := parseCIMOutput(one, "Caption")
	require.NoError(t, err)
	require.Len(t, inst, 1)
	assert.Equal(t, "Microsoft Windows 11 Pro", inst[0].Display)
	assert.Contains(t, inst[0].Properties, Property{Key: "CurrentTimeZone", Value: "600"})
	assert.NotContains(t, inst[0].Properties, Property{Key: "Extra", Value: ""})
	assert.Len(t, inst[0].Properties, 3)

	many := []byte(`[{"Name":"A"},{"Name":"B"}]`)
	inst, err = parseCIMOutput(many, "Name")
	require.NoError(t, err)
	require.Len(t, inst, 2)
	assert.Equal(t, "B", inst[1].Display)

	_, err = parseCIMOutput([]byte("not json"), "Name")
	assert.Error(t, err)
}
