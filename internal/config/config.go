package config

import (
	"fmt"
	"reflect"

	"github.com/BurntSushi/toml"
	"github.com/ashfall/speq/internal/levels"
	"github.com/ashfall/speq/internal/matrix"
)

// Config collects everything a run needs: the atomic data source, the grid
// geometry, the initial plasma state and the cycle controls.
type Config struct {
	AtomicData string // path to the atomic data table
	OutputDir  string

	NCells  int
	Workers int
	Cycles  int

	Backend string // "cpu" or "gpu"
	Mode    string // "lte-tr", "lte-te", "dilute" or "ground-test"

	ThresholdFloor   int
	ConvergenceEps   float64
	FluxPersistScale float64
	MinPhotons       int

	// Initial conditions, uniform over the active domain.
	TRad    float64 // [K]
	TElec   float64 // [K]
	Weight  float64 // radiation dilution factor
	Rho     float64 // [g cm^-3]
	CellVol float64 // [cm^3]

	Seed    int64
	Verbose bool
}

var defaultValues = map[string]any{
	"OutputDir":        "out",
	"NCells":           100,
	"Workers":          1,
	"Cycles":           10,
	"Backend":          matrix.BackendCPU,
	"Mode":             "dilute",
	"ThresholdFloor":   levels.DefaultThresholdFloor,
	"ConvergenceEps":   0.05,
	"FluxPersistScale": 0.5,
	"MinPhotons":       100,
	"TRad":             4e4,   //[K]
	"TElec":            3.6e4, //[K]; t_e starts at 0.9 t_r
	"Weight":           1e-2,
	"Rho":              1e-14, //[g cm^-3]
	"CellVol":          1e30,  //[cm^3]
	"Seed":             int64(1),
}

// Load decodes the run file, fills undefined fields from the defaults and
// validates the result.
func Load(path string) (Config, error) {
	var c Config
	meta, err := toml.DecodeFile(path, &c)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config: unknown keys: %v", undecoded)
	}

	cv := reflect.ValueOf(&c).Elem()
	for name, value := range defaultValues {
		if !meta.IsDefined(name) {
			cv.FieldByName(name).Set(reflect.ValueOf(value))
		}
	}

	if err := c.check(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) check() error {
	if c.AtomicData == "" {
		return fmt.Errorf("config: AtomicData not set")
	}
	if c.NCells <= 0 {
		return fmt.Errorf("config: NCells must be positive, got %d", c.NCells)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("config: Workers must be positive, got %d", c.Workers)
	}
	if c.Cycles <= 0 {
		return fmt.Errorf("config: Cycles must be positive, got %d", c.Cycles)
	}
	if c.Backend != matrix.BackendCPU && c.Backend != matrix.BackendGPU {
		return fmt.Errorf("config: unknown Backend %q", c.Backend)
	}
	if _, err := levels.ParseMode(c.Mode); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.TRad <= 0 || c.TElec <= 0 {
		return fmt.Errorf("config: initial temperatures must be positive")
	}
	if c.Weight <= 0 || c.Weight > 1 {
		return fmt.Errorf("config: Weight must be in (0, 1], got %g", c.Weight)
	}
	if c.Rho <= 0 || c.CellVol <= 0 {
		return fmt.Errorf("config: Rho and CellVol must be positive")
	}
	if c.ConvergenceEps <= 0 || c.ConvergenceEps >= 1 {
		return fmt.Errorf("config: ConvergenceEps must be in (0, 1), got %g", c.ConvergenceEps)
	}
	if c.FluxPersistScale < 0 || c.FluxPersistScale > 1 {
		return fmt.Errorf("config: FluxPersistScale must be in [0, 1], got %g", c.FluxPersistScale)
	}
	return nil
}

// PopulationMode is the parsed form of the Mode field. Load has already
// rejected unknown names.
func (c *Config) PopulationMode() levels.Mode {
	m, _ := levels.ParseMode(c.Mode)
	return m
}
