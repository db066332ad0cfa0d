package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashfall/speq/internal/levels"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, `AtomicData = "atoms.toml"`))
	require.NoError(t, err)

	assert.Equal(t, "atoms.toml", c.AtomicData)
	assert.Equal(t, "out", c.OutputDir)
	assert.Equal(t, 100, c.NCells)
	assert.Equal(t, 1, c.Workers)
	assert.Equal(t, 10, c.Cycles)
	assert.Equal(t, "cpu", c.Backend)
	assert.Equal(t, "dilute", c.Mode)
	assert.Equal(t, levels.ModeDilute, c.PopulationMode())
	assert.Equal(t, 2, c.ThresholdFloor)
	assert.Equal(t, 0.05, c.ConvergenceEps)
	assert.Equal(t, 0.5, c.FluxPersistScale)
	assert.Equal(t, 100, c.MinPhotons)
	assert.Equal(t, 4e4, c.TRad)
	assert.Equal(t, int64(1), c.Seed)
}

func TestLoadExplicitValues(t *testing.T) {
	c, err := Load(writeConfig(t, `
AtomicData = "atoms.toml"
NCells = 8
Workers = 4
Mode = "lte-te"
Backend = "gpu"
Weight = 0.5
Seed = 99
`))
	require.NoError(t, err)

	assert.Equal(t, 8, c.NCells)
	assert.Equal(t, 4, c.Workers)
	assert.Equal(t, levels.ModeLTETe, c.PopulationMode())
	assert.Equal(t, "gpu", c.Backend)
	assert.Equal(t, 0.5, c.Weight)
	assert.Equal(t, int64(99), c.Seed)
}

func TestLoadRejections(t *testing.T) {
	cases := map[string]string{
		"missing atomic data": `NCells = 4`,
		"unknown key":         `AtomicData = "a.toml"` + "\n" + `Sneed = 3`,
		"unknown mode":        `AtomicData = "a.toml"` + "\n" + `Mode = "saha"`,
		"unknown backend":     `AtomicData = "a.toml"` + "\n" + `Backend = "tpu"`,
		"zero cells":          `AtomicData = "a.toml"` + "\n" + `NCells = -1`,
		"weight above unity":  `AtomicData = "a.toml"` + "\n" + `Weight = 1.5`,
		"bad eps":             `AtomicData = "a.toml"` + "\n" + `ConvergenceEps = 2.0`,
		"bad blend":           `AtomicData = "a.toml"` + "\n" + `FluxPersistScale = -0.5`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}
