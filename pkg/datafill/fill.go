package datafill

import (
	"errors"
	"math/rand/v2"
	"sort"
	"strings"
)

// Node types the fill walk cares about.
const (
	NodeFrame   = "FRAME"
	NodeGroup   = "GROUP"
	NodeSection = "SECTION"
	NodeText    = "TEXT"
)

// Prefix marks a text node as a placeholder: "d-<dataset name>".
const Prefix = "d-"

var (
	// ErrInvalidSelection is returned when the root is not a container.
	ErrInvalidSelection = errors.New("datafill: select a frame, group or section")
	// ErrNoDatasets is returned when there is nothing to fill from.
	ErrNoDatasets = errors.New("datafill: no datasets found")
)

// Node is a minimal document tree node, decoded from the plugin's JSON export.
type Node struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Characters string  `json:"characters,omitempty"`
	Children   []*Node `json:"children,omitempty"`
}

// FillReport describes what a Fill call changed.
type FillReport struct {
	// Filled counts text nodes that received a value.
	Filled int `json:"filled"`
	// Unknown lists placeholder dataset names with no usable dataset, sorted
	// and without duplicates.
	Unknown []string `json:"unknown"`
}

// Fill sets every placeholder text node below root to a random value from the
// dataset it names. Matching is case-insensitive. A nil rng uses the global
// source.
func Fill(root *Node, ds Datasets, rng *rand.Rand) (FillReport, error) {
	report := FillReport{Unknown: []string{}}
	if root == nil {
		return report, ErrInvalidSelection
	}
	switch root.Type {
	case NodeFrame, NodeGroup, NodeSection:
	default:
		return report, ErrInvalidSelection
	}
	if len(ds) == 0 {
		return report, ErrNoDatasets
	}

	intn := rand.IntN
	if rng != nil {
		intn = rng.IntN
	}

	unknown := map[string]struct{}{}
	for _, n := range textNodes(root) {
		name, ok := DatasetName(n.Name)
		if !ok {
			continue
		}
		d, found := ds[name]
		if !found || len(d.Data) == 0 {
			unknown[name] = struct{}{}
			continue
		}
		n.Characters = d.Data[intn(len(d.Data))]
		report.Filled++
	}

	for name := range unknown {
		report.Unknown = append(report.Unknown, name)
	}
	sort.Strings(report.Unknown)
	return report, nil
}

// DatasetName extracts the dataset a node name refers to. It reports false
// when the name does not carry the placeholder prefix.
func DatasetName(nodeName string) (string, bool) {
	lower := strings.ToLower(nodeName)
	if !strings.HasPrefix(lower, Prefix) {
		return "", false
	}
	return strings.TrimPrefix(lower, Prefix), true
}

// Placeholders lists the node names that would match ds, for hinting.
func Placeholders(ds Datasets) []string {
	out := make([]string, 0, len(ds))
	for name := range ds {
		out = append(out, Prefix+name)
	}
	sort.Strings(out)
	return out
}

// textNodes returns the text descendants of root in document order.
func textNodes(root *Node) []*Node {
	var out []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		for _, child := range n.Children {
			if child == nil {
				continue
			}
			if child.Type == NodeText {
				out = append(out, child)
				continue
			}
			walk(child)
		}
	}
	walk(root)
	return out
}
