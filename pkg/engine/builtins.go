package engine

import (
	"fmt"
	"path/filepath"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/railsweep/pkg/kernel"
	"github.com/chazu/railsweep/pkg/meshio"
	"github.com/chazu/railsweep/pkg/profile"
	"github.com/chazu/railsweep/pkg/track"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites layout source before passing it to zygomys:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal), so
//     keywords never collide with user variables.
//
//  2. Kebab-case to underscore: left-rail -> left_rail. zygomys reads a
//     hyphen inside an identifier as subtraction.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

type sexpVec2 struct{ vec v2.Vec }

func (v *sexpVec2) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec2 %g %g)", v.vec.X, v.vec.Y)
}
func (v *sexpVec2) Type() *zygo.RegisteredType { return nil }

type sexpVec3 struct{ vec v3.Vec }

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpNodeRef is returned by node so scripts can bind declared nodes.
type sexpNodeRef struct{ name string }

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("#<node %s>", n.name)
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

type sexpProfileRef struct{ name string }

func (p *sexpProfileRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("#<profile %s>", p.name)
}
func (p *sexpProfileRef) Type() *zygo.RegisteredType { return nil }

type sexpSolid struct{ solid kernel.Solid }

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	lo, hi := s.solid.BoundingBox()
	return fmt.Sprintf("#<solid %v %v>", lo, hi)
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW reports whether s is a preprocessed keyword and returns its name.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		switch {
		case ok && i+1 < len(args):
			if _, next := isKW(args[i+1]); !next || isValueKeyword(name) {
				result.kw[name] = args[i+1]
				i += 2
				continue
			}
			// Keyword followed by another keyword is a bare flag.
			result.kw[name] = zygo.SexpNull
			i++
		case ok:
			result.kw[name] = zygo.SexpNull
			i++
		default:
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// isValueKeyword reports whether a keyword takes a keyword as its value,
// as in :kind :start.
func isValueKeyword(name string) bool {
	return name == "kind"
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer; floats must be integral.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == float64(int(v.Val)) {
			return int(v.Val), nil
		}
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toBool extracts a boolean. A bare keyword flag counts as true.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return true, nil
		}
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

func toVec2(s zygo.Sexp) (v2.Vec, error) {
	if v, ok := s.(*sexpVec2); ok {
		return v.vec, nil
	}
	return v2.Vec{}, fmt.Errorf("expected vec2, got %T (%s)", s, s.SexpString(nil))
}

func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func toSolid(s zygo.Sexp) (kernel.Solid, error) {
	if v, ok := s.(*sexpSolid); ok {
		return v.solid, nil
	}
	return nil, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

// toPoints3 converts a list of vec3 or vec2 values. vec2 points lie in the
// XY plane.
func toPoints3(s zygo.Sexp) ([]v3.Vec, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]v3.Vec, 0, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case *sexpVec3:
			out = append(out, v.vec)
		case *sexpVec2:
			out = append(out, v3.Vec{X: v.vec.X, Y: v.vec.Y})
		default:
			return nil, fmt.Errorf("point %d: expected vec2 or vec3, got %T", i, item)
		}
	}
	return out, nil
}

func toPoints2(s zygo.Sexp) ([]v2.Vec, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]v2.Vec, 0, len(items))
	for i, item := range items {
		v, err := toVec2(item)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func toStrings(s zygo.Sexp) ([]string, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		str, err := toString(item)
		if err != nil {
			return nil, err
		}
		out = append(out, str)
	}
	return out, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// nameArg extracts the leading string argument most builtins take.
func nameArg(fn string, pa kwArgs) (string, error) {
	if len(pa.positional) == 0 {
		return "", fmt.Errorf("%s: missing name", fn)
	}
	s, err := toString(pa.positional[0])
	if err != nil {
		return "", fmt.Errorf("%s: name: %w", fn, err)
	}
	if s == "" {
		return "", fmt.Errorf("%s: name must not be empty", fn)
	}
	return s, nil
}

// numbers extracts exactly n positional numbers.
func numbers(fn string, args []zygo.Sexp, n int) ([]float64, error) {
	if len(args) != n {
		return nil, fmt.Errorf("%s: expected %d numbers, got %d arguments", fn, n, len(args))
	}
	out := make([]float64, n)
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", fn, i+1, err)
		}
		out[i] = f
	}
	return out, nil
}

// parseOptions reads the placement options shared by every profile builtin.
func parseOptions(fn string, pa kwArgs) (profile.Options, error) {
	opts := profile.DefaultOptions()

	if v, ok := pa.kw["size"]; ok {
		size, err := toVec3(v)
		if err != nil {
			return opts, fmt.Errorf("%s: size: %w", fn, err)
		}
		opts.SizeX, opts.SizeY, opts.SizeZ = size.X, size.Y, size.Z
	}
	for key, dst := range map[string]*float64{
		"size-x": &opts.SizeX,
		"size-y": &opts.SizeY,
		"size-z": &opts.SizeZ,
	} {
		if v, ok := pa.kw[key]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return opts, fmt.Errorf("%s: %s: %w", fn, key, err)
			}
			*dst = f
		}
	}
	if v, ok := pa.kw["offset"]; ok {
		off, err := toVec2(v)
		if err != nil {
			return opts, fmt.Errorf("%s: offset: %w", fn, err)
		}
		opts.OffsetX, opts.OffsetY = off.X, off.Y
	}
	for key, dst := range map[string]*bool{
		"symmetry": &opts.Symmetry,
		"loop":     &opts.Loop,
		"flip":     &opts.FlipNormals,
		"enabled":  &opts.Enabled,
	} {
		if v, ok := pa.kw[key]; ok {
			b, err := toBool(v)
			if err != nil {
				return opts, fmt.Errorf("%s: %s: %w", fn, key, err)
			}
			*dst = b
		}
	}
	if v, ok := pa.kw["material"]; ok {
		s, err := toString(v)
		if err != nil {
			return opts, fmt.Errorf("%s: material: %w", fn, err)
		}
		opts.Material = s
	}
	return opts, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// register installs the layout builtins into a zygomys environment. They
// append to b as the script runs.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func (b *builder) register(env *zygo.Zlisp) {

	// -----------------------------------------------------------------------
	// (vec2 x y) (vec3 x y z)
	// -----------------------------------------------------------------------
	env.AddFunction("vec2", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		f, err := numbers("vec2", args, 2)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpVec2{vec: v2.Vec{X: f[0], Y: f[1]}}, nil
	})
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		f, err := numbers("vec3", args, 3)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpVec3{vec: v3.Vec{X: f[0], Y: f[1], Z: f[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (settings :accuracy 1000 :resolution 1 :min-range 20 :max-range 300
	//           :iteration-cap 100 :close-loop true)
	// -----------------------------------------------------------------------
	env.AddFunction("settings", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		s := &b.settings

		if v, ok := pa.kw["accuracy"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("settings: accuracy: %w", err)
			}
			s.Curve.Accuracy = n
		}
		if v, ok := pa.kw["iteration-cap"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("settings: iteration-cap: %w", err)
			}
			s.Connect.IterationCap = n
		}
		for key, dst := range map[string]*float64{
			"resolution": &s.Curve.Resolution,
			"min-range":  &s.Connect.MinRange,
			"max-range":  &s.Connect.MaxRange,
		} {
			if v, ok := pa.kw[key]; ok {
				f, err := toFloat64(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("settings: %s: %w", key, err)
				}
				*dst = f
			}
		}
		if v, ok := pa.kw["close-loop"]; ok {
			on, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("settings: close-loop: %w", err)
			}
			s.Connect.CloseLoop = on
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (node "a" (vec3 0 0 0) :kind :start :handles (list out in)
	//       :min-range 5 :max-range 40 :reset true :skip (list "rail"))
	// -----------------------------------------------------------------------
	env.AddFunction("node", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		nodeName, err := nameArg("node", pa)
		if err != nil {
			return zygo.SexpNull, err
		}

		var at zygo.Sexp
		if len(pa.positional) > 1 {
			at = pa.positional[1]
		} else if v, ok := pa.kw["at"]; ok {
			at = v
		} else {
			return zygo.SexpNull, fmt.Errorf("node %s: missing position", nodeName)
		}
		pos, err := toVec3(at)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("node %s: position: %w", nodeName, err)
		}

		kind := track.KindNormal
		if v, ok := pa.kw["kind"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("node %s: kind: %w", nodeName, err)
			}
			if kind, err = track.ParseKind(s); err != nil {
				return zygo.SexpNull, fmt.Errorf("node %s: %w", nodeName, err)
			}
		}

		n := track.NewNode(nodeName, pos, kind)

		if v, ok := pa.kw["handles"]; ok {
			hs, err := toPoints3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("node %s: handles: %w", nodeName, err)
			}
			if len(hs) != 2 {
				return zygo.SexpNull, fmt.Errorf("node %s: handles: expected 2 points, got %d", nodeName, len(hs))
			}
			if kind == track.KindEnd {
				b.warn(nodeName, "end nodes ignore handles")
			} else {
				n.SetHandles(hs[0], hs[1])
				n.Reset = false
			}
		}
		if v, ok := pa.kw["reset"]; ok {
			on, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("node %s: reset: %w", nodeName, err)
			}
			n.Reset = on
		}
		for key, dst := range map[string]*float64{
			"min-range": &n.MinRange,
			"max-range": &n.MaxRange,
		} {
			if v, ok := pa.kw[key]; ok {
				f, err := toFloat64(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("node %s: %s: %w", nodeName, key, err)
				}
				*dst = f
			}
		}
		if v, ok := pa.kw["skip"]; ok {
			names, err := toStrings(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("node %s: skip: %w", nodeName, err)
			}
			for _, p := range names {
				n.DisableProfile(p)
			}
			b.skips[nodeName] = append(b.skips[nodeName], names...)
		}

		if err := b.addNode(n); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpNodeRef{name: nodeName}, nil
	})

	// -----------------------------------------------------------------------
	// (profile "rail" (list (vec2 -0.5 0) (vec2 -0.5 1) ...) :symmetry true)
	// -----------------------------------------------------------------------
	env.AddFunction("profile", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		pname, opts, err := profileHead("profile", pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		if len(pa.positional) < 2 {
			return zygo.SexpNull, fmt.Errorf("profile %s: missing vertices", pname)
		}
		verts, err := toPoints3(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("profile %s: vertices: %w", pname, err)
		}
		p, err := profile.New(pname, verts, opts)
		if err != nil {
			return zygo.SexpNull, err
		}
		return b.addProfile(p)
	})

	// -----------------------------------------------------------------------
	// (outline "ballast" (list p0 c1 c2 p1 ...) :tolerance 0.01)
	// -----------------------------------------------------------------------
	env.AddFunction("outline", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		pname, opts, err := profileHead("outline", pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		if len(pa.positional) < 2 {
			return zygo.SexpNull, fmt.Errorf("outline %s: missing control points", pname)
		}
		pts, err := toPoints2(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("outline %s: control points: %w", pname, err)
		}
		tolerance := DefaultOutlineTolerance
		if v, ok := pa.kw["tolerance"]; ok {
			if tolerance, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("outline %s: tolerance: %w", pname, err)
			}
		}
		p, err := profile.FromOutline(pname, pts, tolerance, opts)
		if err != nil {
			return zygo.SexpNull, err
		}
		return b.addProfile(p)
	})

	// -----------------------------------------------------------------------
	// (stamp "sleeper" (box 2.6 0.2 0.25) :material "timber")
	// -----------------------------------------------------------------------
	env.AddFunction("stamp", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		pname, opts, err := profileHead("stamp", pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := b.needKernel("stamp"); err != nil {
			return zygo.SexpNull, err
		}
		if len(pa.positional) < 2 {
			return zygo.SexpNull, fmt.Errorf("stamp %s: missing solid", pname)
		}
		s, err := toSolid(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("stamp %s: %w", pname, err)
		}
		p, err := profile.FromSolid(pname, b.kernel, s, opts)
		if err != nil {
			return zygo.SexpNull, err
		}
		return b.addProfile(p)
	})

	// -----------------------------------------------------------------------
	// (obj "chair" "parts/chair.obj")
	// -----------------------------------------------------------------------
	env.AddFunction("obj", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		pname, opts, err := profileHead("obj", pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		if b.dir == "" {
			return zygo.SexpNull, fmt.Errorf("obj %s: file loading is disabled", pname)
		}
		if len(pa.positional) < 2 {
			return zygo.SexpNull, fmt.Errorf("obj %s: missing path", pname)
		}
		path, err := toString(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("obj %s: path: %w", pname, err)
		}
		m, err := meshio.LoadOBJ(b.resolve(path))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("obj %s: %w", pname, err)
		}
		p, err := profile.FromMesh(pname, m, opts)
		if err != nil {
			return zygo.SexpNull, err
		}
		return b.addProfile(p)
	})

	// -----------------------------------------------------------------------
	// Solids: (box x y z) (cylinder height radius) (sphere radius)
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := b.needKernel("box"); err != nil {
			return zygo.SexpNull, err
		}
		f, err := numbers("box", args, 3)
		if err != nil {
			return zygo.SexpNull, err
		}
		return wrapSolid(b.kernel.Box(f[0], f[1], f[2]))
	})
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := b.needKernel("cylinder"); err != nil {
			return zygo.SexpNull, err
		}
		f, err := numbers("cylinder", args, 2)
		if err != nil {
			return zygo.SexpNull, err
		}
		return wrapSolid(b.kernel.Cylinder(f[0], f[1]))
	})
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := b.needKernel("sphere"); err != nil {
			return zygo.SexpNull, err
		}
		f, err := numbers("sphere", args, 1)
		if err != nil {
			return zygo.SexpNull, err
		}
		return wrapSolid(b.kernel.Sphere(f[0]))
	})

	// -----------------------------------------------------------------------
	// Booleans: (union a b ...) (difference a b ...) (intersection a b ...)
	// -----------------------------------------------------------------------
	booleans := map[string]func(k kernel.Kernel) func(a, c kernel.Solid) kernel.Solid{
		"union":        func(k kernel.Kernel) func(a, c kernel.Solid) kernel.Solid { return k.Union },
		"difference":   func(k kernel.Kernel) func(a, c kernel.Solid) kernel.Solid { return k.Difference },
		"intersection": func(k kernel.Kernel) func(a, c kernel.Solid) kernel.Solid { return k.Intersection },
	}
	for opName, op := range booleans {
		opName, op := opName, op
		env.AddFunction(opName, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := b.needKernel(opName); err != nil {
				return zygo.SexpNull, err
			}
			if len(args) < 2 {
				return zygo.SexpNull, fmt.Errorf("%s: expected at least 2 solids, got %d", opName, len(args))
			}
			acc, err := toSolid(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: argument 1: %w", opName, err)
			}
			combine := op(b.kernel)
			for i, a := range args[1:] {
				s, err := toSolid(a)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: argument %d: %w", opName, i+2, err)
				}
				acc = combine(acc, s)
			}
			return &sexpSolid{solid: acc}, nil
		})
	}

	// -----------------------------------------------------------------------
	// Transforms: (translate s (vec3 x y z)) (rotate s (vec3 rx ry rz))
	// -----------------------------------------------------------------------
	transforms := map[string]func(k kernel.Kernel, s kernel.Solid, v v3.Vec) kernel.Solid{
		"translate": func(k kernel.Kernel, s kernel.Solid, v v3.Vec) kernel.Solid { return k.Translate(s, v.X, v.Y, v.Z) },
		"rotate":    func(k kernel.Kernel, s kernel.Solid, v v3.Vec) kernel.Solid { return k.Rotate(s, v.X, v.Y, v.Z) },
	}
	for opName, op := range transforms {
		opName, op := opName, op
		env.AddFunction(opName, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := b.needKernel(opName); err != nil {
				return zygo.SexpNull, err
			}
			if len(args) != 2 {
				return zygo.SexpNull, fmt.Errorf("%s: expected solid and vec3, got %d arguments", opName, len(args))
			}
			s, err := toSolid(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", opName, err)
			}
			v, err := toVec3(args[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", opName, err)
			}
			return &sexpSolid{solid: op(b.kernel, s, v)}, nil
		})
	}
}

// DefaultOutlineTolerance bounds how far a flattened outline may stray from
// its curve when :tolerance is absent, in profile units.
const DefaultOutlineTolerance = 0.01

// profileHead reads the name and placement options of a profile builtin.
func profileHead(fn string, pa kwArgs) (string, profile.Options, error) {
	pname, err := nameArg(fn, pa)
	if err != nil {
		return "", profile.Options{}, err
	}
	opts, err := parseOptions(fn+" "+pname, pa)
	if err != nil {
		return "", profile.Options{}, err
	}
	return pname, opts, nil
}

func wrapSolid(s kernel.Solid, err error) (zygo.Sexp, error) {
	if err != nil {
		return zygo.SexpNull, err
	}
	return &sexpSolid{solid: s}, nil
}

func (b *builder) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(b.dir, path)
}
