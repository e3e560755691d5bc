package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/reoring/schemabin/issue"
	"github.com/reoring/schemabin/schema"
	"github.com/reoring/schemabin/value"
)

// ParseValueYAML reads the first YAML document in text as a value. Mappings
// keep their key order. Integers must fit in an int32 and floats must be
// finite.
func ParseValueYAML(text []byte, opts ...Options) (value.Value, error) {
	w := &yamlWalker{opt: pickOptions(opts), kind: issue.KindMalformedValueText, code: issue.CodeParseError}
	root, err := w.load(text)
	if err != nil {
		return value.Value{}, err
	}
	return w.value(root)
}

// ParseSchemaYAML reads the first YAML document in text as a schema, with the
// same keywords and rules as ParseSchema.
func ParseSchemaYAML(text []byte, opts ...Options) (*schema.Schema, error) {
	w := &yamlWalker{opt: pickOptions(opts), kind: issue.KindMalformedSchemaText, code: issue.CodeSchemaSyntax}
	root, err := w.load(text)
	if err != nil {
		return nil, err
	}
	return w.schema(root)
}

type yamlWalker struct {
	opt   Options
	depth int
	kind  issue.Kind
	code  string
	// budget is the number of nodes the walk may still visit. Aliases are
	// expanded at every reference, so it is what keeps the walk linear in
	// the document size.
	budget int
}

// yamlNodesPerByte scales the node budget with the input size.
const yamlNodesPerByte = 4

func (w *yamlWalker) load(text []byte) (*yaml.Node, error) {
	w.budget = yamlNodesPerByte*len(text) + 64
	var doc yaml.Node
	if err := yaml.Unmarshal(text, &doc); err != nil {
		return nil, issue.Wrap(w.kind, w.code, err, "")
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, issue.New(w.kind, w.code, "", "empty YAML document")
	}
	return doc.Content[0], nil
}

func (w *yamlWalker) failNode(code string, n *yaml.Node, format string, args ...any) error {
	return issue.New(w.kind, code, "", fmt.Sprintf("%s (line %d, column %d)", fmt.Sprintf(format, args...), n.Line, n.Column))
}

func (w *yamlWalker) enter(n *yaml.Node) error {
	w.depth++
	if w.depth > w.opt.MaxDepth {
		return w.failNode(issue.CodeMaxDepth, n, "nesting deeper than %d", w.opt.MaxDepth)
	}
	return nil
}

func (w *yamlWalker) leave() { w.depth-- }

// spend charges one visited node against the budget.
func (w *yamlWalker) spend(n *yaml.Node) error {
	w.budget--
	if w.budget < 0 {
		return w.failNode(issue.CodeTooLarge, n, "document expands to too many nodes")
	}
	return nil
}

// pairs walks a mapping node, resolving duplicate keys per policy. fn is
// invoked once per distinct key; with DupWarn/DupIgnore the last occurrence
// replaces earlier ones via replace.
func (w *yamlWalker) pairs(n *yaml.Node, fn func(key string, k, v *yaml.Node, replace bool) error) error {
	first := make(map[string][2]int, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			return w.failNode(w.code, k, "mapping keys must be scalars")
		}
		key := k.Value
		if key == "" {
			return w.failNode(w.code, k, "object key must not be empty")
		}
		pos, dup := first[key]
		if dup {
			switch w.opt.OnDuplicateKey {
			case DupIgnore:
			case DupWarn:
				w.opt.Logger.Warn("duplicate YAML key, keeping last occurrence",
					"key", key, "line", k.Line, "column", k.Column, "first_line", pos[0], "first_column", pos[1])
			default:
				return w.failNode(issue.CodeDuplicateKey, k, "duplicate key %q (first at line %d, column %d)", key, pos[0], pos[1])
			}
		} else {
			first[key] = [2]int{k.Line, k.Column}
		}
		if err := fn(key, k, v, dup); err != nil {
			return err
		}
	}
	return nil
}

func (w *yamlWalker) value(n *yaml.Node) (value.Value, error) {
	if err := w.spend(n); err != nil {
		return value.Value{}, err
	}
	switch n.Kind {
	case yaml.AliasNode:
		if err := w.enter(n); err != nil {
			return value.Value{}, err
		}
		defer w.leave()
		return w.value(n.Alias)
	case yaml.MappingNode:
		if err := w.enter(n); err != nil {
			return value.Value{}, err
		}
		defer w.leave()
		var (
			members []value.Member
			index   = make(map[string]int, len(n.Content)/2)
		)
		err := w.pairs(n, func(key string, _, vn *yaml.Node, replace bool) error {
			v, err := w.value(vn)
			if err != nil {
				return err
			}
			if replace {
				members[index[key]].Value = v
				return nil
			}
			index[key] = len(members)
			members = append(members, value.Member{Key: key, Value: v})
			return nil
		})
		if err != nil {
			return value.Value{}, err
		}
		return value.AdoptObject(members), nil
	case yaml.SequenceNode:
		if err := w.enter(n); err != nil {
			return value.Value{}, err
		}
		defer w.leave()
		items := make([]value.Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := w.value(c)
			if err != nil {
				return value.Value{}, err
			}
			items = append(items, v)
		}
		return value.AdoptArray(items), nil
	case yaml.ScalarNode:
		return w.scalar(n)
	}
	return value.Value{}, w.failNode(w.code, n, "unsupported YAML node")
}

func (w *yamlWalker) scalar(n *yaml.Node) (value.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return value.Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return value.Value{}, w.failNode(w.code, n, "invalid boolean %q", n.Value)
		}
		return value.Bool(b), nil
	case "!!int":
		i, err := strconv.ParseInt(strings.ReplaceAll(n.Value, "_", ""), 0, 32)
		if err != nil {
			return value.Value{}, w.failNode(w.code, n, "integer %s out of int32 range", n.Value)
		}
		return value.Int(int32(i)), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return value.Value{}, w.failNode(w.code, n, "invalid number %q", n.Value)
		}
		return value.Float(f), nil
	case "!!str", "!!timestamp", "!!binary":
		// Timestamps and binary blobs have no tag of their own; keep the text.
		return value.String(n.Value), nil
	}
	return value.Value{}, w.failNode(w.code, n, "unsupported YAML tag %s", n.ShortTag())
}

func (w *yamlWalker) schema(n *yaml.Node) (*schema.Schema, error) {
	if err := w.spend(n); err != nil {
		return nil, err
	}
	if n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	if n.Kind != yaml.MappingNode {
		return nil, w.failNode(issue.CodeInvalidSchema, n, "schema must be a mapping")
	}
	if err := w.enter(n); err != nil {
		return nil, err
	}
	defer w.leave()

	var f schemaFields
	err := w.pairs(n, func(key string, _, v *yaml.Node, _ bool) error {
		return w.keyword(&f, key, v)
	})
	if err != nil {
		return nil, err
	}
	s := &schema.Schema{ID: f.id, Title: f.title, KeyID: f.keyID, Type: f.typ, Untyped: !f.typed, Ref: f.ref, Items: f.items}
	for _, np := range f.props {
		if err := s.SetProperty(np.name, np.s); err != nil {
			return nil, w.failNode(issue.CodeInvalidSchema, n, "%v", err)
		}
	}
	if err := s.AddRequired(f.required...); err != nil {
		return nil, w.failNode(issue.CodeInvalidSchema, n, "%v", err)
	}
	return s, nil
}

func (w *yamlWalker) str(key string, n *yaml.Node) (string, error) {
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!str" {
		return "", w.failNode(issue.CodeInvalidSchema, n, "%s must be a string", key)
	}
	return n.Value, nil
}

func (w *yamlWalker) keyword(f *schemaFields, key string, n *yaml.Node) error {
	var err error
	switch key {
	case "$id":
		f.id, err = w.str(key, n)
	case "title":
		f.title, err = w.str(key, n)
	case "$ref":
		f.ref, err = w.str(key, n)
	case "keyId":
		if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!int" {
			return w.failNode(issue.CodeInvalidSchema, n, "keyId must be an integer")
		}
		id, perr := strconv.ParseUint(strings.ReplaceAll(n.Value, "_", ""), 0, 32)
		if perr != nil {
			return w.failNode(issue.CodeInvalidSchema, n, "keyId %s out of range [0, %d]", n.Value, uint32(math.MaxUint32))
		}
		f.keyID = uint32(id)
	case "type":
		var name string
		if name, err = w.str(key, n); err != nil {
			return err
		}
		t, ok := value.ParseType(name)
		if !ok {
			return w.failNode(issue.CodeInvalidSchema, n, "unknown type %q", name)
		}
		f.typ, f.typed = t, true
	case "required":
		if n.Kind != yaml.SequenceNode {
			return w.failNode(issue.CodeInvalidSchema, n, "required must be a sequence of strings")
		}
		f.required = f.required[:0]
		for _, c := range n.Content {
			name, err := w.str("required entry", c)
			if err != nil {
				return err
			}
			if name == "" {
				return w.failNode(issue.CodeInvalidSchema, c, "required entries must not be empty")
			}
			for _, prev := range f.required {
				if prev == name {
					return w.failNode(issue.CodeInvalidSchema, c, "duplicate required entry %q", name)
				}
			}
			f.required = append(f.required, name)
		}
	case "properties":
		if n.Kind != yaml.MappingNode {
			return w.failNode(issue.CodeInvalidSchema, n, "properties must be a mapping")
		}
		f.props = f.props[:0]
		index := make(map[string]int, len(n.Content)/2)
		err = w.pairs(n, func(name string, _, v *yaml.Node, replace bool) error {
			child, err := w.schema(v)
			if err != nil {
				return err
			}
			if replace {
				f.props[index[name]].s = child
				return nil
			}
			index[name] = len(f.props)
			f.props = append(f.props, namedSchema{name: name, s: child})
			return nil
		})
	case "items":
		f.items, err = w.schema(n)
	default:
		_, err = w.value(n)
	}
	return err
}
