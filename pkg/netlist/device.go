package netlist

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/edp1096/lblmc-codegen/pkg/ccode"
	"github.com/edp1096/lblmc-codegen/pkg/device"
	"github.com/edp1096/lblmc-codegen/pkg/errs"
	"github.com/edp1096/lblmc-codegen/pkg/util"
)

// CreateDevice builds the component an element describes. timeStep is the
// network time step used by every time dependent component.
func CreateDevice(elem Element, timeStep float64) (device.Device, error) {
	var (
		dev device.Device
		err error
	)

	switch elem.Type {
	case "R":
		dev, err = device.NewResistor(elem.Name, elem.Nodes, elem.Value)

	case "L":
		dev, err = device.NewInductor(elem.Name, elem.Nodes, elem.Value, timeStep)

	case "C":
		dev, err = device.NewCapacitor(elem.Name, elem.Nodes, elem.Value, timeStep)

	case "I":
		dev, err = device.NewDCCurrentSource(elem.Name, elem.Nodes, elem.Value)

	case "V":
		r, perr := elem.param("r", device.DefaultSourceResistance)
		if perr != nil {
			return nil, perr
		}
		dev, err = device.NewDCVoltageSource(elem.Name, elem.Nodes, elem.Value, r)

	case "S":
		r, perr := elem.param("r", 0)
		if perr != nil {
			return nil, perr
		}
		dev, err = device.NewSeriesRLSwitch(elem.Name, elem.Nodes, elem.Value, r, timeStep)

	default:
		return nil, fmt.Errorf("unsupported element type %s for %s: %w", elem.Type, elem.Name, errs.ErrInvalidArgument)
	}
	if err != nil {
		return nil, err
	}

	if name, ok := elem.Params["method"]; ok {
		td, isTD := dev.(device.TimeDependent)
		if !isTD {
			return nil, fmt.Errorf("%s: method given for a component without dynamics: %w", elem.Name, errs.ErrInvalidArgument)
		}
		m, err := util.ParseIntegrationMethod(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", elem.Name, err)
		}
		if err := td.SetIntegrationMethod(m); err != nil {
			return nil, err
		}
	}

	return dev, nil
}

func (e Element) param(key string, fallback float64) (float64, error) {
	s, ok := e.Params[key]
	if !ok {
		return fallback, nil
	}
	v, err := ParseValue(s)
	if err != nil {
		return 0, fmt.Errorf("%s: parameter %s: %w", e.Name, key, err)
	}
	return v, nil
}

// ModelName is the "model" option, or the sanitised title.
func (n *NetlistData) ModelName() string {
	if name := n.Options["model"]; name != "" {
		return name
	}
	return SanitizeModelName(n.Title)
}

// ZeroBound returns the zero_bound option, or fallback when unset.
func (n *NetlistData) ZeroBound(fallback float64) (float64, error) {
	s, ok := n.Options["zero_bound"]
	if !ok {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if v, err = ParseValue(s); err != nil {
			return 0, fmt.Errorf("option zero_bound: %w", err)
		}
	}
	if v < 0 {
		return 0, fmt.Errorf("option zero_bound %g is negative: %w", v, errs.ErrInvalidArgument)
	}
	return v, nil
}

// SanitizeModelName turns free text into a C identifier: runs of other
// characters become one underscore, and a leading digit or a keyword gets a
// prefix.
func SanitizeModelName(s string) string {
	var sb strings.Builder
	underscore := false
	for _, r := range strings.TrimSpace(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			sb.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && sb.Len() > 0 {
			sb.WriteByte('_')
			underscore = true
		}
	}

	name := strings.TrimSuffix(sb.String(), "_")
	if name == "" {
		return "network"
	}
	if !ccode.IsIdentifier(name) {
		name = "net_" + name
	}
	return name
}
