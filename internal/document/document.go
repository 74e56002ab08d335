// Package document loads and saves YAML tree documents. Every mapping in a
// document becomes an Entry and each entry under a "children" mapping is
// registered as a relational child of its enclosing entry, in document order.
//
//	name: GrandPa
//	kind: person
//	labels: [elder]
//	children:
//	  mom:
//	    name: Mom
//	    children:
//	      you: { name: You }
//	  uncle: { name: Uncle }
package document

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/kinship/internal/log"
	"github.com/zjrosen/kinship/relational"
)

// PathSeparator separates child keys in entry paths.
const PathSeparator = "/"

var (
	// ErrInvalid is matched by every document parse error.
	ErrInvalid = errors.New("invalid document")

	// ErrNoEntry is returned by Lookup when a path does not resolve.
	ErrNoEntry = errors.New("no such entry")
)

// Entry is a node of a tree document.
type Entry struct {
	relational.Searchable

	ID     string
	Kind   string
	Labels []string
	Attrs  map[string]string
	// Description is free-form markdown.
	Description string

	name string
}

// NewEntry creates a detached entry. An empty id is replaced by a random UUID.
func NewEntry(id, name, kind string) *Entry {
	if id == "" {
		id = uuid.NewString()
	}
	return relational.MustApply(&Entry{ID: id, Kind: kind, name: name})
}

// Name returns the display name.
func (e *Entry) Name() string { return e.name }

// SetName changes the display name.
func (e *Entry) SetName(name string) { e.name = name }

func (e *Entry) String() string {
	if e.name != "" {
		return e.name
	}
	return e.ID
}

// HasLabel reports whether the entry carries label.
func (e *Entry) HasLabel(label string) bool {
	return slices.Contains(e.Labels, label)
}

// Field returns the values of a query field: name, kind, id, key, path,
// description, label (one value per label) or attr.<key>.
func (e *Entry) Field(name string) []string {
	switch name {
	case "name":
		return []string{e.name}
	case "kind":
		return []string{e.Kind}
	case "id":
		return []string{e.ID}
	case "label":
		return e.Labels
	case "path":
		return []string{e.Path()}
	case "description":
		return []string{e.Description}
	case "key":
		if key, ok := relational.KeyOf(e); ok {
			return []string{key}
		}
		return nil
	}
	if attr, ok := strings.CutPrefix(name, "attr."); ok {
		if v, ok := e.Attrs[attr]; ok {
			return []string{v}
		}
	}
	return nil
}

// Children returns the child entries in order.
func (e *Entry) Children() []*Entry {
	var out []*Entry
	for n := range relational.EachChild(e) {
		if child, ok := n.(*Entry); ok {
			out = append(out, child)
		}
	}
	return out
}

// Flatten lists the tree rooted at root depth first, in document order.
func Flatten(root *Entry) []*Entry {
	out := []*Entry{root}
	for _, child := range root.Children() {
		out = append(out, Flatten(child)...)
	}
	return out
}

// Path returns the slash-joined key path from the root.
func (e *Entry) Path() string {
	return relational.PathString(e)
}

// ParseError describes a malformed document.
type ParseError struct {
	Line int
	Path string // key path of the offending entry
	Msg  string
}

func (e *ParseError) Error() string {
	where := e.Path
	if where == "" {
		where = "root"
	}
	return fmt.Sprintf("line %d (%s): %s", e.Line, where, e.Msg)
}

func (e *ParseError) Unwrap() error { return ErrInvalid }

// rawEntry is the YAML shape of an entry. Children stay a yaml.Node so
// mapping order survives decoding.
type rawEntry struct {
	ID       string            `yaml:"id"`
	Name     string            `yaml:"name"`
	Kind     string            `yaml:"kind"`
	Labels   []string          `yaml:"labels,omitempty"`
	Attrs    map[string]string `yaml:"attrs,omitempty"`
	Desc     string            `yaml:"description,omitempty"`
	Children yaml.Node         `yaml:"children,omitempty"`
}

// Parse builds a tree from a YAML document and returns its root.
func Parse(data []byte) (*Entry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &ParseError{Line: 1, Msg: "document is empty"}
	}

	p := &parser{ids: make(map[string]string)}
	root, err := p.entry(doc.Content[0], nil)
	if err != nil {
		log.ErrorErr(log.CatDocument, "Parse failed", err)
		return nil, err
	}
	log.Debug(log.CatDocument, "Parsed document", "entries", len(p.ids))
	return root, nil
}

// Load reads and parses the document at path.
func Load(path string) (*Entry, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the user-selected document
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	root, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return root, nil
}

type parser struct {
	ids map[string]string // id -> path, for duplicate detection
}

func (p *parser) entry(node *yaml.Node, path []string) (*Entry, error) {
	where := strings.Join(path, PathSeparator)
	if node.Kind != yaml.MappingNode {
		return nil, &ParseError{Line: node.Line, Path: where, Msg: "entry must be a mapping"}
	}

	var raw rawEntry
	if err := node.Decode(&raw); err != nil {
		return nil, &ParseError{Line: node.Line, Path: where, Msg: err.Error()}
	}

	e := NewEntry(raw.ID, raw.Name, raw.Kind)
	e.Labels = raw.Labels
	e.Attrs = raw.Attrs
	e.Description = raw.Desc

	if other, dup := p.ids[e.ID]; dup {
		return nil, &ParseError{Line: node.Line, Path: where, Msg: fmt.Sprintf("id %q already used by %q", e.ID, other)}
	}
	p.ids[e.ID] = where

	children := &raw.Children
	switch children.Kind {
	case 0:
		return e, nil
	case yaml.MappingNode:
	case yaml.ScalarNode:
		if children.ShortTag() == "!!null" {
			return e, nil
		}
		fallthrough
	default:
		return nil, &ParseError{Line: children.Line, Path: where, Msg: "children must be a mapping of key to entry"}
	}

	for i := 0; i+1 < len(children.Content); i += 2 {
		keyNode, valueNode := children.Content[i], children.Content[i+1]
		key := keyNode.Value
		if err := validateKey(key); err != nil {
			return nil, &ParseError{Line: keyNode.Line, Path: where, Msg: err.Error()}
		}
		if e.Child(key) != nil {
			return nil, &ParseError{Line: keyNode.Line, Path: where, Msg: fmt.Sprintf("duplicate child key %q", key)}
		}

		child, err := p.entry(valueNode, append(slices.Clone(path), key))
		if err != nil {
			return nil, err
		}
		if err := e.SetChild(key, child); err != nil {
			return nil, &ParseError{Line: keyNode.Line, Path: where, Msg: err.Error()}
		}
	}
	return e, nil
}

func validateKey(key string) error {
	switch {
	case strings.TrimSpace(key) == "":
		return errors.New("child key is empty")
	case strings.Contains(key, PathSeparator):
		return fmt.Errorf("child key %q contains %q", key, PathSeparator)
	}
	return nil
}

// Marshal renders the tree rooted at root as YAML, children in registry order.
func Marshal(root *Entry) ([]byte, error) {
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{entryNode(root)}}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return nil, fmt.Errorf("marshaling document: %w", err)
	}
	_ = encoder.Close()
	return buf.Bytes(), nil
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func entryNode(e *Entry) *yaml.Node {
	m := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, value *yaml.Node) {
		m.Content = append(m.Content, scalar(key), value)
	}

	add("id", scalar(e.ID))
	if e.name != "" {
		add("name", scalar(e.name))
	}
	if e.Kind != "" {
		add("kind", scalar(e.Kind))
	}
	if len(e.Labels) > 0 {
		labels := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, l := range e.Labels {
			labels.Content = append(labels.Content, scalar(l))
		}
		add("labels", labels)
	}
	if len(e.Attrs) > 0 {
		attrs := &yaml.Node{Kind: yaml.MappingNode}
		keys := make([]string, 0, len(e.Attrs))
		for k := range e.Attrs {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			attrs.Content = append(attrs.Content, scalar(k), scalar(e.Attrs[k]))
		}
		add("attrs", attrs)
	}
	if e.Description != "" {
		desc := scalar(e.Description)
		if strings.Contains(e.Description, "\n") {
			desc.Style = yaml.LiteralStyle
		}
		add("description", desc)
	}

	children, err := relational.GetChildren(e)
	if err != nil || children.Len() == 0 {
		return m
	}
	kids := &yaml.Node{Kind: yaml.MappingNode}
	for key, n := range children.All() {
		child, ok := n.(*Entry)
		if !ok {
			continue
		}
		kids.Content = append(kids.Content, scalar(key), entryNode(child))
	}
	add("children", kids)
	return m
}

// Save writes the tree to path atomically (write to temp, then rename).
func Save(path string, root *Entry) error {
	data, err := Marshal(root)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating document directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".kinship.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	log.Info(log.CatDocument, "Saved document", "path", path)
	return nil
}

// Lookup resolves a slash-separated key path from root. An empty path
// resolves to root itself.
func Lookup(root *Entry, path string) (*Entry, error) {
	path = strings.Trim(path, PathSeparator)
	if path == "" {
		return root, nil
	}

	current := root
	for _, key := range strings.Split(path, PathSeparator) {
		child, ok := current.Child(key).(*Entry)
		if !ok || child == nil {
			return nil, fmt.Errorf("%w: %s (no %q under %q)", ErrNoEntry, path, key, current.Path())
		}
		current = child
	}
	return current, nil
}

// FindByID searches the whole tree containing from for the entry with id.
func FindByID(from *Entry, id string) *Entry {
	match := relational.Find(from).In().Hierarchy().Match(relational.Named("id="+id, func(n relational.Node) bool {
		e, ok := n.(*Entry)
		return ok && e.ID == id
	}))
	e, _ := match.(*Entry)
	return e
}

// Move detaches the entry at from and registers it under the entry at to
// with key. An empty key keeps the entry's current key.
func Move(root *Entry, from, to, key string) (*Entry, error) {
	moving, err := Lookup(root, from)
	if err != nil {
		return nil, err
	}
	target, err := Lookup(root, to)
	if err != nil {
		return nil, err
	}
	if moving == root {
		return nil, errors.New("cannot move the root entry")
	}
	if target == moving || relational.Has(moving).In().Descendants().Match(relational.Value(target)) {
		return nil, fmt.Errorf("cannot move %q under its own subtree %q", from, to)
	}

	oldKey, _ := relational.KeyOf(moving)
	if key == "" {
		key = oldKey
	}
	if err := validateKey(key); err != nil {
		return nil, err
	}
	if target.Child(key) != nil {
		return nil, fmt.Errorf("%q already has a child %q", target.Path(), key)
	}

	relational.RemoveChild(relational.GetParent(moving), oldKey)
	if err := target.SetChild(key, moving); err != nil {
		return nil, fmt.Errorf("moving %q under %q: %w", from, to, err)
	}

	log.Info(log.CatDocument, "Moved entry", "from", from, "to", moving.Path())
	return moving, nil
}
