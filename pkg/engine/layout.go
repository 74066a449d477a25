package engine

import (
	"fmt"
	"sort"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/railsweep/pkg/config"
	"github.com/chazu/railsweep/pkg/kernel"
	"github.com/chazu/railsweep/pkg/profile"
	"github.com/chazu/railsweep/pkg/track"
)

// builder accumulates declarations while a script runs.
type builder struct {
	kernel kernel.Kernel
	dir    string

	settings config.Settings
	nodes    []*track.Node
	profiles []*profile.Profile
	warnings []EvalWarning

	nodeNames    map[string]bool
	profileNames map[string]bool
	skips        map[string][]string
}

func newBuilder(e *Engine, base config.Settings) *builder {
	return &builder{
		kernel:       e.kernel,
		dir:          e.dir,
		settings:     base,
		nodeNames:    make(map[string]bool),
		profileNames: make(map[string]bool),
		skips:        make(map[string][]string),
	}
}

func (b *builder) addNode(n *track.Node) error {
	if b.nodeNames[n.Name] {
		return fmt.Errorf("node %s: duplicate name", n.Name)
	}
	b.nodeNames[n.Name] = true
	b.nodes = append(b.nodes, n)
	return nil
}

func (b *builder) addProfile(p *profile.Profile) (zygo.Sexp, error) {
	if b.profileNames[p.Name] {
		return zygo.SexpNull, fmt.Errorf("profile %s: duplicate name", p.Name)
	}
	b.profileNames[p.Name] = true
	b.profiles = append(b.profiles, p)
	return &sexpProfileRef{name: p.Name}, nil
}

func (b *builder) needKernel(fn string) error {
	if b.kernel == nil {
		return fmt.Errorf("%s: no solid kernel configured", fn)
	}
	return nil
}

func (b *builder) warn(node, format string, args ...any) {
	b.warnings = append(b.warnings, EvalWarning{Node: node, Message: fmt.Sprintf(format, args...)})
}

// finish validates the overridden settings and returns the layout.
func (b *builder) finish() (*Layout, error) {
	if err := b.settings.Validate(); err != nil {
		return nil, err
	}

	nodes := make([]string, 0, len(b.skips))
	for n := range b.skips {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	for _, n := range nodes {
		for _, p := range b.skips[n] {
			if !b.profileNames[p] {
				b.warn(n, "skips unknown profile %q", p)
			}
		}
	}

	return &Layout{
		Nodes:    b.nodes,
		Profiles: b.profiles,
		Settings: b.settings,
		Warnings: b.warnings,
	}, nil
}
