// Package config holds the per-run settings read by connect, bake and
// sweep. Settings come from defaults, an optional YAML file and overrides
// in the layout script, in that order.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/chazu/railsweep/pkg/track"
)

// ErrInvalidSettings is returned when settings fail validation.
var ErrInvalidSettings = errors.New("invalid settings")

var validate = validator.New()

// CurveSettings control segment sampling.
type CurveSettings struct {
	Accuracy   int     `yaml:"accuracy" validate:"gte=1"`
	Resolution float64 `yaml:"resolution" validate:"gt=0"`
}

// ConnectSettings control how nodes are chained.
type ConnectSettings struct {
	MinRange     float64 `yaml:"min_range" validate:"gte=0"`
	MaxRange     float64 `yaml:"max_range" validate:"gtfield=MinRange"`
	IterationCap int     `yaml:"iteration_cap" validate:"gte=1"`
	CloseLoop    bool    `yaml:"close_loop"`
}

// MeshSettings control tessellation of stamped solids.
type MeshSettings struct {
	Cells int `yaml:"cells" validate:"gte=8,lte=512"`
}

// EngineSettings control layout script evaluation.
type EngineSettings struct {
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

// Settings is the complete run configuration.
type Settings struct {
	Curve   CurveSettings   `yaml:"curve"`
	Connect ConnectSettings `yaml:"connect"`
	Mesh    MeshSettings    `yaml:"mesh"`
	Engine  EngineSettings  `yaml:"engine"`
}

// Default returns the settings used when nothing overrides them.
func Default() Settings {
	return Settings{
		Curve: CurveSettings{
			Accuracy:   1000,
			Resolution: 1,
		},
		Connect: ConnectSettings{
			MinRange:     20,
			MaxRange:     300,
			IterationCap: track.DefaultIterationCap,
		},
		Mesh: MeshSettings{
			Cells: 64,
		},
		Engine: EngineSettings{
			Timeout: 5 * time.Second,
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return Settings{}, fmt.Errorf("load settings %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (Settings, error) {
	s := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks every field against its range.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// Track converts the settings into the form the track network reads.
func (s Settings) Track() track.Settings {
	return track.Settings{
		Curve: track.CurveSettings{
			Accuracy:   s.Curve.Accuracy,
			Resolution: s.Curve.Resolution,
		},
		Connect: track.ConnectSettings{
			MinRange:     s.Connect.MinRange,
			MaxRange:     s.Connect.MaxRange,
			IterationCap: s.Connect.IterationCap,
			CloseLoop:    s.Connect.CloseLoop,
		},
	}
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.TrimPrefix(e.Namespace(), "Settings.")
		switch e.Tag() {
		case "gt", "gte", "lt", "lte":
			msgs = append(msgs, fmt.Sprintf("%s: must be %s %s, got %v", field, tagOps[e.Tag()], e.Param(), e.Value()))
		case "gtfield":
			msgs = append(msgs, fmt.Sprintf("%s: must be greater than %s", field, e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s: validation failed (%s)", field, e.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(msgs, "; "))
}

var tagOps = map[string]string{
	"gt":  ">",
	"gte": ">=",
	"lt":  "<",
	"lte": "<=",
}
