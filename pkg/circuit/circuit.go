package circuit

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/edp1096/lblmc-codegen/internal/consts"
	"github.com/edp1096/lblmc-codegen/pkg/codegen"
	"github.com/edp1096/lblmc-codegen/pkg/device"
	"github.com/edp1096/lblmc-codegen/pkg/errs"
	"github.com/edp1096/lblmc-codegen/pkg/netlist"
)

var _ device.Owner = (*Circuit)(nil)

type entry struct {
	dev     device.Device
	outputs []string
}

// Circuit owns the components of one network and drives their stamping
// into a simulation engine generator.
//
// A Circuit is not safe for concurrent use.
type Circuit struct {
	name         string
	numSolutions int
	nodeMap      map[string]int
	entries      []entry
	engine       *codegen.Engine
	log          *slog.Logger
}

func New(name string, numSolutions int, opts ...codegen.Option) (*Circuit, error) {
	engine, err := codegen.NewEngine(name, numSolutions, opts...)
	if err != nil {
		return nil, err
	}

	return &Circuit{
		name:         name,
		numSolutions: numSolutions,
		nodeMap:      make(map[string]int),
		engine:       engine,
		log:          engine.Options().Logger,
	}, nil
}

// FromNetlist maps the netlist nodes, sizes the network to them and adds
// one component per element.
func FromNetlist(data *netlist.NetlistData, opts ...codegen.Option) (*Circuit, error) {
	nodeMap, err := buildNodeMap(data.Elements)
	if err != nil {
		return nil, err
	}
	if len(nodeMap) == 0 {
		return nil, fmt.Errorf("netlist %q has no node besides the reference: %w", data.Title, errs.ErrInconsistentModel)
	}

	ckt, err := New(data.ModelName(), len(nodeMap), opts...)
	if err != nil {
		return nil, err
	}
	ckt.nodeMap = nodeMap

	elements := data.Elements
	if method, ok := data.Options["method"]; ok {
		elements = withDefaultMethod(elements, method)
	}
	if err := ckt.SetupDevices(elements, data.TranParam.TStep); err != nil {
		return nil, err
	}
	return ckt, nil
}

func withDefaultMethod(elements []netlist.Element, method string) []netlist.Element {
	out := make([]netlist.Element, len(elements))
	for i, elem := range elements {
		out[i] = elem
		if elem.Type != "L" && elem.Type != "C" {
			continue
		}
		if _, ok := elem.Params["method"]; ok {
			continue
		}
		params := make(map[string]string, len(elem.Params)+1)
		for k, v := range elem.Params {
			params[k] = v
		}
		params["method"] = method
		out[i].Params = params
	}
	return out
}

func (c *Circuit) Name() string { return c.name }

func (c *Circuit) NumSolutions() int { return c.numSolutions }

func (c *Circuit) Engine() *codegen.Engine { return c.engine }

// AddComponent moves dev into the circuit. outputs are the output selectors
// used while stamping it, every output when none is given.
func (c *Circuit) AddComponent(dev device.Device, outputs ...string) error {
	if dev == nil {
		return fmt.Errorf("circuit %s: nil component: %w", c.name, errs.ErrInvalidArgument)
	}
	if dev.Owner() != nil {
		return fmt.Errorf("circuit %s: component %s already belongs to a network: %w", c.name, dev.GetName(), errs.ErrInvalidArgument)
	}

	dev.SetOwner(c)
	c.entries = append(c.entries, entry{dev: dev, outputs: append([]string(nil), outputs...)})
	return nil
}

// GetComponent returns the first component named name, nil if none.
func (c *Circuit) GetComponent(name string) device.Device {
	for _, e := range c.entries {
		if e.dev.GetName() == name {
			return e.dev
		}
	}
	return nil
}

// RemoveComponent removes every component named name, releases their
// ownership and returns how many were removed.
func (c *Circuit) RemoveComponent(name string) int {
	kept := c.entries[:0]
	removed := 0
	for _, e := range c.entries {
		if e.dev.GetName() == name {
			e.dev.SetOwner(nil)
			removed++
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(c.entries); i++ {
		c.entries[i] = entry{}
	}
	c.entries = kept
	return removed
}

func (c *Circuit) Components() []device.Device {
	devs := make([]device.Device, len(c.entries))
	for i, e := range c.entries {
		devs[i] = e.dev
	}
	return devs
}

func (c *Circuit) NumComponents() int { return len(c.entries) }

// ComponentNamesUnique compares every pair of component names.
func (c *Circuit) ComponentNamesUnique() bool {
	_, dup := c.duplicateName()
	return !dup
}

func (c *Circuit) duplicateName() (string, bool) {
	for i := 0; i < len(c.entries); i++ {
		for j := i + 1; j < len(c.entries); j++ {
			if c.entries[i].dev.GetName() == c.entries[j].dev.GetName() {
				return c.entries[i].dev.GetName(), true
			}
		}
	}
	return "", false
}

// SetupSolverCodeGenerator validates the netlist, resets the engine and
// stamps every component in insertion order. It must run again after any
// edit before code is regenerated.
func (c *Circuit) SetupSolverCodeGenerator() error {
	if len(c.entries) == 0 {
		return fmt.Errorf("circuit %s: model has no components: %w", c.name, errs.ErrInconsistentModel)
	}
	if name, dup := c.duplicateName(); dup {
		return fmt.Errorf("circuit %s: duplicate component name %s: %w", c.name, name, errs.ErrInconsistentModel)
	}

	if err := c.engine.Reset(c.name, c.numSolutions); err != nil {
		return err
	}
	for _, e := range c.entries {
		if err := c.engine.StampComponent(e.dev, e.outputs...); err != nil {
			return fmt.Errorf("circuit %s: %w", c.name, err)
		}
	}

	c.log.Debug("circuit stamped", "circuit", c.name, "components", len(c.entries), "sources", c.engine.NumSources())
	return nil
}

func (c *Circuit) GenerateSolverCode(zeroBound float64) (string, error) {
	return c.engine.GenerateFunction(zeroBound)
}

func (c *Circuit) GenerateTranslationUnit(zeroBound float64) (string, error) {
	return c.engine.GenerateTranslationUnit(zeroBound)
}

func (c *Circuit) GenerateSolverCodeAndExport(filename string, zeroBound float64) error {
	return c.engine.GenerateAndExport(filename, zeroBound)
}

func isReference(nodeName string) bool {
	return nodeName == "0" || strings.EqualFold(nodeName, "gnd")
}

func buildNodeMap(elements []netlist.Element) (map[string]int, error) {
	nodeMap := make(map[string]int)
	for _, elem := range elements {
		for _, nodeName := range elem.Nodes {
			if nodeName == "" {
				return nil, fmt.Errorf("element %s: empty node name: %w", elem.Name, errs.ErrInvalidArgument)
			}
			if isReference(nodeName) {
				continue
			}
			if _, exists := nodeMap[nodeName]; !exists {
				nodeMap[nodeName] = len(nodeMap) + 1
			}
		}
	}
	return nodeMap, nil
}

// AssignNodeMap numbers the non-reference nodes 1..N in order of first
// appearance. The count must match the circuit's solution count.
func (c *Circuit) AssignNodeMap(elements []netlist.Element) error {
	nodeMap, err := buildNodeMap(elements)
	if err != nil {
		return err
	}
	if len(nodeMap) != c.numSolutions {
		return fmt.Errorf("circuit %s: netlist has %d nodes, circuit has %d solutions: %w",
			c.name, len(nodeMap), c.numSolutions, errs.ErrInvalidArgument)
	}
	c.nodeMap = nodeMap
	return nil
}

// SetupDevices creates and adds one component per element, using the node
// map assigned before.
func (c *Circuit) SetupDevices(elements []netlist.Element, timeStep float64) error {
	for _, elem := range elements {
		dev, err := netlist.CreateDevice(elem, timeStep)
		if err != nil {
			return fmt.Errorf("creating device %s: %w", elem.Name, err)
		}

		nodeIndices := make([]int, len(elem.Nodes))
		for i, nodeName := range elem.Nodes {
			if isReference(nodeName) {
				nodeIndices[i] = consts.ReferenceNode
				continue
			}
			idx, ok := c.nodeMap[nodeName]
			if !ok {
				return fmt.Errorf("device %s: node %s is not mapped: %w", elem.Name, nodeName, errs.ErrInvalidArgument)
			}
			nodeIndices[i] = idx
		}
		if err := dev.SetNodes(nodeIndices); err != nil {
			return err
		}

		if err := c.AddComponent(dev); err != nil {
			return err
		}
	}
	return nil
}

func (c *Circuit) GetNodeMap() map[string]int {
	m := make(map[string]int, len(c.nodeMap))
	for k, v := range c.nodeMap {
		m[k] = v
	}
	return m
}

// NodeNames lists the mapped node names by index, entry 0 being the reference.
func (c *Circuit) NodeNames() []string {
	names := make([]string, c.numSolutions+1)
	names[0] = "0"
	keys := make([]string, 0, len(c.nodeMap))
	for k := range c.nodeMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if idx := c.nodeMap[k]; idx > 0 && idx < len(names) {
			names[idx] = k
		}
	}
	return names
}
