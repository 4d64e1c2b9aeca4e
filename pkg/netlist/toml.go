package netlist

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/edp1096/lblmc-codegen/pkg/errs"
)

// Document is the TOML form of a netlist:
//
//	name = "rl"
//	timestep = 1e-6
//
//	[[component]]
//	kind = "inductor"
//	name = "L1"
//	nodes = ["out", "0"]
//	value = 1e-3
type Document struct {
	Name       string            `toml:"name"`
	Timestep   float64           `toml:"timestep"`
	StopTime   float64           `toml:"stop_time"`
	ZeroBound  *float64          `toml:"zero_bound"`
	Method     string            `toml:"method"`
	Options    map[string]string `toml:"options"`
	Components []Component       `toml:"component"`
}

type Component struct {
	Kind   string         `toml:"kind"`
	Name   string         `toml:"name"`
	Nodes  []string       `toml:"nodes"`
	Value  float64        `toml:"value"`
	Params map[string]any `toml:"params"`
	Method string         `toml:"method"`
}

var kindTypes = map[string]string{
	"r": "R", "resistor": "R",
	"l": "L", "inductor": "L",
	"c": "C", "capacitor": "C",
	"i": "I", "current_source": "I", "isource": "I",
	"v": "V", "voltage_source": "V", "vsource": "V",
	"s": "S", "switch": "S", "series_rl_switch": "S",
}

// ParseTOML decodes a TOML netlist into the same form Parse produces.
func ParseTOML(data []byte) (*NetlistData, error) {
	var doc Document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing toml netlist: %v: %w", err, errs.ErrInvalidArgument)
	}

	netlistData := newNetlistData()
	netlistData.Title = doc.Name
	netlistData.TranParam.TStep = doc.Timestep
	netlistData.TranParam.TStop = doc.StopTime

	for k, v := range doc.Options {
		netlistData.Options[strings.ToLower(k)] = v
	}
	if doc.Name != "" {
		netlistData.Options["model"] = doc.Name
	}
	if doc.ZeroBound != nil {
		netlistData.Options["zero_bound"] = strconv.FormatFloat(*doc.ZeroBound, 'g', -1, 64)
	}
	if doc.Method != "" {
		netlistData.Options["method"] = doc.Method
	}

	for i, c := range doc.Components {
		typ, ok := kindTypes[strings.ToLower(c.Kind)]
		if !ok {
			return nil, fmt.Errorf("component %d (%s): unknown kind %q: %w", i+1, c.Name, c.Kind, errs.ErrInvalidArgument)
		}
		if len(c.Nodes) != 2 {
			return nil, fmt.Errorf("component %s: %d nodes, want 2: %w", c.Name, len(c.Nodes), errs.ErrInvalidArgument)
		}

		elem := Element{
			Type:   typ,
			Name:   c.Name,
			Nodes:  append([]string(nil), c.Nodes...),
			Value:  c.Value,
			Params: make(map[string]string, len(c.Params)+1),
		}
		for k, v := range c.Params {
			elem.Params[strings.ToLower(k)] = fmt.Sprint(v)
		}
		if c.Method != "" {
			elem.Params["method"] = c.Method
		}
		netlistData.addElement(elem)
	}

	return netlistData, nil
}

// Load reads a netlist file, TOML when the extension is .toml and SPICE text
// otherwise.
func Load(path string) (*NetlistData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading netlist: %w", errs.ErrIO, err)
	}

	var netlistData *NetlistData
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		netlistData, err = ParseTOML(data)
	} else {
		netlistData, err = Parse(string(data))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if _, ok := netlistData.Options["model"]; !ok {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		netlistData.Options["model"] = SanitizeModelName(base)
	}
	return netlistData, nil
}
