package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Split operators understood by tree nodes.
const (
	OpLE = "<="
	OpLT = "<"
	OpGT = ">"
	OpGE = ">="
	OpIn = "in"
)

// Artifact is the on-disk form of a trained decision tree.
type Artifact struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Features []string `json:"features"`
	Classes  []string `json:"classes"`
	Tree     *Node    `json:"tree"`
}

// Node is either a split (Feature, Op and a threshold or value set) or a
// leaf carrying Label. A split sends rows that satisfy it Left.
type Node struct {
	Feature   string        `json:"feature,omitempty"`
	Op        string        `json:"op,omitempty"`
	Threshold *float64      `json:"threshold,omitempty"`
	Values    []interface{} `json:"values,omitempty"`
	Left      *Node         `json:"left,omitempty"`
	Right     *Node         `json:"right,omitempty"`
	Label     string        `json:"label,omitempty"`
}

func (n *Node) leaf() bool {
	return n.Feature == ""
}

// Tree is a loaded, validated artifact.
type Tree struct {
	artifact Artifact
}

// LoadArtifact reads and validates a tree artifact from path.
func LoadArtifact(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	t, err := ParseArtifact(data)
	if err != nil {
		return nil, fmt.Errorf("load model artifact %s: %w", path, err)
	}
	return t, nil
}

func ParseArtifact(data []byte) (*Tree, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if len(a.Features) == 0 {
		return nil, fmt.Errorf("artifact lists no features")
	}
	if a.Tree == nil {
		return nil, fmt.Errorf("artifact has no tree")
	}

	features := make(map[string]bool, len(a.Features))
	for _, f := range a.Features {
		if features[f] {
			return nil, fmt.Errorf("duplicate feature %q", f)
		}
		features[f] = true
	}
	classes := make(map[string]bool, len(a.Classes))
	for _, c := range a.Classes {
		classes[c] = true
	}
	if err := validateNode(a.Tree, "tree", features, classes); err != nil {
		return nil, err
	}
	return &Tree{artifact: a}, nil
}

func validateNode(n *Node, path string, features, classes map[string]bool) error {
	if n.leaf() {
		if n.Label == "" {
			return fmt.Errorf("%s: leaf has no label", path)
		}
		if len(classes) > 0 && !classes[n.Label] {
			return fmt.Errorf("%s: label %q is not a known class", path, n.Label)
		}
		return nil
	}
	if !features[n.Feature] {
		return fmt.Errorf("%s: split on unknown feature %q", path, n.Feature)
	}
	switch n.Op {
	case OpLE, OpLT, OpGT, OpGE:
		if n.Threshold == nil {
			return fmt.Errorf("%s: %q split needs a threshold", path, n.Op)
		}
	case OpIn:
		if len(n.Values) == 0 {
			return fmt.Errorf("%s: %q split needs values", path, n.Op)
		}
	default:
		return fmt.Errorf("%s: unknown operator %q", path, n.Op)
	}
	if n.Left == nil || n.Right == nil {
		return fmt.Errorf("%s: split needs both branches", path)
	}
	if err := validateNode(n.Left, path+".left", features, classes); err != nil {
		return err
	}
	return validateNode(n.Right, path+".right", features, classes)
}

func (t *Tree) Name() string {
	if t.artifact.Version != "" {
		return t.artifact.Name + "@" + t.artifact.Version
	}
	return t.artifact.Name
}

// Features returns the column list the tree was trained on.
func (t *Tree) Features() []string {
	out := make([]string, len(t.artifact.Features))
	copy(out, t.artifact.Features)
	return out
}

// Predict walks the tree. The row must carry exactly the trained columns in
// the trained order.
func (t *Tree) Predict(ctx context.Context, row Row) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cols := row.Columns()
	if !sameColumns(cols, t.artifact.Features) {
		return "", fmt.Errorf("feature names mismatch: model expects [%s], got [%s]",
			strings.Join(t.artifact.Features, ", "), strings.Join(cols, ", "))
	}

	n := t.artifact.Tree
	for !n.leaf() {
		v, ok := row.Value(n.Feature)
		if !ok {
			return "", fmt.Errorf("feature %q missing from row", n.Feature)
		}
		hit, err := n.test(v)
		if err != nil {
			return "", fmt.Errorf("feature %q: %w", n.Feature, err)
		}
		if hit {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Label, nil
}

func (n *Node) test(v interface{}) (bool, error) {
	if n.Op == OpIn {
		return n.member(v)
	}
	x, ok := toFloat(v)
	if !ok {
		return false, fmt.Errorf("cannot compare %T value with numeric threshold", v)
	}
	th := *n.Threshold
	switch n.Op {
	case OpLE:
		return x <= th, nil
	case OpLT:
		return x < th, nil
	case OpGT:
		return x > th, nil
	default:
		return x >= th, nil
	}
}

func (n *Node) member(v interface{}) (bool, error) {
	if s, ok := v.(string); ok {
		for _, want := range n.Values {
			if ws, ok := want.(string); ok && ws == s {
				return true, nil
			}
		}
		return false, nil
	}
	x, ok := toFloat(v)
	if !ok {
		return false, fmt.Errorf("unsupported value type %T", v)
	}
	for _, want := range n.Values {
		if wf, ok := toFloat(want); ok && wf == x {
			return true, nil
		}
	}
	return false, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	return 0, false
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
