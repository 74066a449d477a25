// Package engine evaluates railsweep layout scripts. It wraps zygomys in a
// sandboxed environment; the registered builtins declare track nodes,
// cross-section profiles and setting overrides, which are collected into a
// Layout.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/railsweep/pkg/config"
	"github.com/chazu/railsweep/pkg/diag"
	"github.com/chazu/railsweep/pkg/kernel"
	"github.com/chazu/railsweep/pkg/profile"
	"github.com/chazu/railsweep/pkg/track"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning represents a non-fatal warning produced during evaluation.
type EvalWarning struct {
	Message string
	Node    string // offending node name, if any
}

func (w EvalWarning) String() string {
	if w.Node != "" {
		return fmt.Sprintf("node %s: %s", w.Node, w.Message)
	}
	return w.Message
}

// Layout is everything a script declares. Nodes and profiles keep their
// declaration order.
type Layout struct {
	Nodes    []*track.Node
	Profiles []*profile.Profile
	Settings config.Settings
	Warnings []EvalWarning
}

// Node returns the node with the given name, or nil.
func (l *Layout) Node(name string) *track.Node {
	for _, n := range l.Nodes {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// Profile returns the profile with the given name, or nil.
func (l *Layout) Profile(name string) *profile.Profile {
	for _, p := range l.Profiles {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Network builds an unconnected track network from the layout's nodes.
func (l *Layout) Network(sink diag.Sink) *track.Network {
	return track.NewNetwork(l.Nodes, l.Settings.Track(), sink)
}

// Engine wraps the zygomys interpreter for layout evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64

	kernel  kernel.Kernel
	timeout time.Duration
	dir     string
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout sets the evaluation time limit. Non-positive values keep
// EvalTimeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithBaseDir enables the obj builtin and resolves its relative paths
// against dir.
func WithBaseDir(dir string) Option {
	return func(e *Engine) { e.dir = dir }
}

// NewEngine creates an Engine. k builds stamped solids; when it is nil the
// solid builtins report an error.
func NewEngine(k kernel.Kernel, opts ...Option) *Engine {
	e := &Engine{kernel: k, timeout: EvalTimeout}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs a layout script over base settings and collects its
// declarations.
//
// Return semantics:
//   - On success: returns layout + nil errors + nil error
//   - On parse/eval failure: returns nil layout + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string, base config.Settings) (*Layout, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		l, evalErrs, err := e.evaluate(source, base)
		ch <- evalResult{layout: l, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation, e.timeout)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string, base config.Settings) (*Layout, []EvalError, error) {
	if strings.TrimSpace(source) == "" {
		return &Layout{Settings: base}, nil, nil
	}

	// Sandbox mode keeps user code away from the filesystem and syscalls;
	// only the obj builtin reads files, and only under the base dir.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	b := newBuilder(e, base)
	b.register(env)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}

	l, err := b.finish()
	if err != nil {
		return nil, []EvalError{{Message: err.Error()}}, nil
	}
	return l, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values,
// extracting the line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
