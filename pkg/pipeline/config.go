package pipeline

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/portlayout/pkg/errors"
	"github.com/matzehuels/portlayout/pkg/layered"
)

// LoadConfig reads layout options from a TOML file. Keys left out keep
// their defaults, including single metrics of the [drawing] table:
//
//	direction = "bfs"
//	crossing_iterations = 8
//
//	[drawing]
//	vertex_height = 40
func LoadConfig(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Options{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "read config %s", path)
	}
	if err != nil {
		return Options{}, errors.Wrap(errors.ErrCodeInvalidPath, err, "read config %s", path)
	}
	return ParseConfig(data)
}

// ParseConfig decodes TOML layout options. Unknown keys are rejected.
func ParseConfig(data []byte) (Options, error) {
	opts := Options{Drawing: layered.DefaultDrawingInfo()}
	md, err := toml.Decode(string(data), &opts)
	if err != nil {
		return Options{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Options{}, errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	return opts, nil
}
