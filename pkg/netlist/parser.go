package netlist

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/edp1096/lblmc-codegen/pkg/errs"
)

type NetlistData struct {
	Elements  []Element      // Circuit elements
	Nodes     map[string]int // Node name and order of appearance
	TranParam struct {
		TStep float64 // timestep
		TStop float64 // stop time, used by replay checks only
	}
	Options map[string]string // .options key=value
	Title   string            // Circuit title
}

type Element struct {
	Type   string            // Part type (R, L, C, I, V, S)
	Name   string            // Part name
	Nodes  []string          // Node names
	Value  float64           // Part value
	Params map[string]string // Parameter values
}

var unitMap = map[string]float64{
	"T":   1e12,  // tera
	"G":   1e9,   // giga
	"meg": 1e6,   // mega
	"K":   1e3,   // kilo
	"k":   1e3,   // kilo
	"M":   1e-3,  // milli, SPICE suffixes ignore case
	"m":   1e-3,  // milli
	"u":   1e-6,  // micro
	"n":   1e-9,  // nano
	"p":   1e-12, // pico
	"f":   1e-15, // femto
}

var (
	valuePattern = regexp.MustCompile(`^([-+]?\d*\.?\d+(?:[eE][-+]?\d+)?)(meg|[TGMKkmunpf])?[a-zA-Z]*$`)
	spacePattern = regexp.MustCompile(`\s+`)
)

func newNetlistData() *NetlistData {
	return &NetlistData{
		Nodes:   make(map[string]int),
		Options: make(map[string]string),
	}
}

// Parse reads a SPICE-style netlist. The first line is the title, '*' starts
// a comment, '+' continues the previous line and parsing stops at .end.
func Parse(input string) (*NetlistData, error) {
	scanner := bufio.NewScanner(strings.NewReader(input))
	netlistData := newNetlistData()

	if scanner.Scan() {
		netlistData.Title = strings.TrimPrefix(scanner.Text(), "*")
		netlistData.Title = strings.TrimSpace(netlistData.Title)
	}

	var currentLine string
	lineNo, startLine := 1, 1

	flush := func() error {
		if currentLine == "" {
			return nil
		}
		err := parseLine(netlistData, currentLine)
		currentLine = ""
		if err != nil {
			return fmt.Errorf("line %d: %w", startLine, err)
		}
		return nil
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if idx := strings.IndexAny(line, "*;"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if len(line) == 0 {
			continue
		}

		if strings.HasPrefix(line, "+") {
			if currentLine == "" {
				return nil, fmt.Errorf("line %d: continuation without a line to continue: %w", lineNo, errs.ErrInvalidArgument)
			}
			currentLine += " " + strings.TrimSpace(line[1:])
			continue
		}

		if err := flush(); err != nil {
			return nil, err
		}
		if strings.EqualFold(line, ".end") {
			break
		}
		currentLine, startLine = line, lineNo
	}

	if err := flush(); err != nil {
		return nil, err
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading netlist: %w", errs.ErrIO, err)
	}

	return netlistData, nil
}

func parseLine(netlistData *NetlistData, line string) error {
	line = spacePattern.ReplaceAllString(line, " ")

	if strings.HasPrefix(line, ".") {
		return parseDotOperator(netlistData, line)
	}

	element, err := parseElement(line)
	if err != nil {
		return err
	}

	netlistData.addElement(*element)
	return nil
}

func (n *NetlistData) addElement(element Element) {
	n.Elements = append(n.Elements, element)
	for _, node := range element.Nodes {
		if _, exists := n.Nodes[node]; !exists {
			n.Nodes[node] = len(n.Nodes)
		}
	}
}

// Parse .tran, .options
func parseDotOperator(netlistData *NetlistData, line string) error {
	var err error

	fields := strings.Fields(line)

	switch strings.ToLower(fields[0]) {
	case ".tran":
		if len(fields) < 2 {
			return fmt.Errorf("tran needs at least a time step: %w", errs.ErrInvalidArgument)
		}
		netlistData.TranParam.TStep, err = ParseValue(fields[1])
		if err != nil {
			return fmt.Errorf("invalid tstep: %w", err)
		}
		if len(fields) > 2 {
			netlistData.TranParam.TStop, err = ParseValue(fields[2])
			if err != nil {
				return fmt.Errorf("invalid tstop: %w", err)
			}
		}

	case ".options", ".option":
		for _, field := range fields[1:] {
			key, value, ok := strings.Cut(field, "=")
			if !ok || key == "" {
				return fmt.Errorf("option %q is not key=value: %w", field, errs.ErrInvalidArgument)
			}
			netlistData.Options[strings.ToLower(key)] = value
		}

	default:
		return fmt.Errorf("unsupported control line %s: %w", fields[0], errs.ErrInvalidArgument)
	}

	return nil
}

// Parse circuit element:
//
//	<name> <n+> <n-> [DC] <value> [<value2>] [key=value ...]
//
// The second positional value is the series resistance of a switch.
func parseElement(line string) (*Element, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return nil, fmt.Errorf("invalid element format: %s: %w", line, errs.ErrInvalidArgument)
	}

	elem := &Element{
		Name:   fields[0],
		Type:   strings.ToUpper(string(fields[0][0])),
		Nodes:  []string{fields[1], fields[2]},
		Params: make(map[string]string),
	}

	switch elem.Type {
	case "R", "L", "C", "I", "V", "S":
	default:
		return nil, fmt.Errorf("unsupported element type %s in %s: %w", elem.Type, elem.Name, errs.ErrInvalidArgument)
	}

	var positional []float64
	for _, field := range fields[3:] {
		if key, value, ok := strings.Cut(field, "="); ok {
			elem.Params[strings.ToLower(key)] = value
			continue
		}
		if strings.EqualFold(field, "dc") && (elem.Type == "V" || elem.Type == "I") {
			continue
		}
		value, err := ParseValue(field)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", elem.Name, err)
		}
		positional = append(positional, value)
	}

	switch {
	case len(positional) == 0:
		return nil, fmt.Errorf("%s: missing value: %w", elem.Name, errs.ErrInvalidArgument)
	case len(positional) == 2 && elem.Type == "S":
		elem.Params["r"] = strconv.FormatFloat(positional[1], 'g', -1, 64)
	case len(positional) > 1:
		return nil, fmt.Errorf("%s: %d values given: %w", elem.Name, len(positional), errs.ErrInvalidArgument)
	}
	elem.Value = positional[0]

	return elem, nil
}

// ParseValue - Parse value and factor. 1k -> 1000, 10uH -> 1e-5
func ParseValue(val string) (float64, error) {
	matches := valuePattern.FindStringSubmatch(strings.TrimSpace(val))
	if matches == nil {
		return 0, fmt.Errorf("invalid value format %q: %w", val, errs.ErrInvalidArgument)
	}

	num, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", val, errs.ErrInvalidArgument)
	}

	// factor
	if matches[2] != "" {
		num *= unitMap[matches[2]]
	}

	return num, nil
}
