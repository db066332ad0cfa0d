package atomic

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/ashfall/speq/internal/constants"
)

type levelSpec struct {
	G  float64
	Ex float64 // [eV]
}

type ionSpec struct {
	Z             int
	Istate        int
	Macro         bool
	HasSuperlevel bool
	Levels        []levelSpec
	NLTE          int // tracked-level count; 0 means all levels are tracked
}

type tableFile struct {
	MacroSimple bool
	Ions        []ionSpec
}

// Load reads an ion/level table description in TOML format. Level excitation
// energies are given in eV and stored in ergs; levels are listed ground
// first.
func Load(path string) (*Data, error) {
	var file tableFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("atomic table %s: %w", path, err)
	}
	d := &Data{MacroSimple: file.MacroSimple}
	for i, is := range file.Ions {
		if len(is.Levels) == 0 {
			return nil, fmt.Errorf("atomic table %s: ion %d has no levels", path, i)
		}
		nlte := is.NLTE
		if nlte == 0 || nlte > len(is.Levels) {
			nlte = len(is.Levels)
		}
		first := len(d.Levels)
		for _, ls := range is.Levels {
			d.Levels = append(d.Levels, Level{
				G:   ls.G,
				Ex:  ls.Ex * constants.EV2Ergs,
				Ion: i,
			})
		}
		d.Ions = append(d.Ions, Ion{
			Z:             is.Z,
			Istate:        is.Istate,
			G:             is.Levels[0].G,
			NLevels:       len(is.Levels),
			FirstLevel:    first,
			NLTE:          nlte,
			FirstNLTE:     first,
			Macro:         is.Macro,
			HasSuperlevel: is.HasSuperlevel,
		})
	}
	if err := d.Finalize(); err != nil {
		return nil, fmt.Errorf("atomic table %s: %w", path, err)
	}
	return d, nil
}
