// Package modelio decodes project documents and trace files.
package modelio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/huangsam/conceptrace/schema"
	"gopkg.in/yaml.v3"
)

// ProjectDocument is the on-disk form of a project: its source model and its
// ontology. JSON documents decode the same way since JSON is valid YAML.
type ProjectDocument struct {
	Project  string               `yaml:"project"`
	Classes  []schema.SourceClass `yaml:"classes"`
	Concepts []schema.Concept     `yaml:"concepts"`
}

// LoadProjectFile reads and decodes a project document from disk.
func LoadProjectFile(path string) (*ProjectDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open project document: %w", err)
	}
	defer func() { _ = f.Close() }()

	doc, err := DecodeProjectDocument(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// DecodeProjectDocument decodes, completes and validates a project document.
// Unknown fields are rejected so that typos do not silently drop stems.
func DecodeProjectDocument(r io.Reader) (*ProjectDocument, error) {
	var doc ProjectDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &ProjectDocument{}, nil
		}
		return nil, fmt.Errorf("invalid project document: %w", err)
	}
	if err := doc.normalize(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// SourceModel returns the source model of the document.
func (d *ProjectDocument) SourceModel() schema.SourceModel {
	return schema.SourceModel{Classes: d.Classes}
}

// Ontology returns the ontology of the document.
func (d *ProjectDocument) Ontology() schema.Ontology {
	return schema.Ontology{Concepts: d.Concepts}
}

// normalize assigns missing ids, fills default signatures and origins, and
// rejects duplicate ids, unknown origins and dangling links.
func (d *ProjectDocument) normalize() error {
	classIDs := newIDAllocator()
	methodIDs := newIDAllocator()
	for _, c := range d.Classes {
		classIDs.reserve(c.ID)
		for _, m := range c.Methods {
			methodIDs.reserve(m.ID)
		}
	}

	for ci := range d.Classes {
		c := &d.Classes[ci]
		if err := classIDs.assign(&c.ID, "class", c.Name); err != nil {
			return err
		}
		for mi := range c.Methods {
			m := &c.Methods[mi]
			if err := methodIDs.assign(&m.ID, "method", m.Name); err != nil {
				return err
			}
			m.ClassID = c.ID
			if m.Signature == "" {
				m.Signature = defaultSignature(*m)
			}
			for ri := range m.References {
				ref := &m.References[ri]
				if ref.Origin == "" {
					ref.Origin = schema.UnknownOrigin
				}
				if _, ok := schema.ValidReferenceOrigins[ref.Origin]; !ok {
					return fmt.Errorf("method %s: invalid reference origin %q", m.Name, ref.Origin)
				}
			}
		}
	}

	conceptIDs := newIDAllocator()
	for _, c := range d.Concepts {
		conceptIDs.reserve(c.ID)
	}
	for i := range d.Concepts {
		c := &d.Concepts[i]
		if err := conceptIDs.assign(&c.ID, "concept", c.Name); err != nil {
			return err
		}
	}
	for _, c := range d.Concepts {
		for _, l := range c.Links {
			if _, ok := conceptIDs.used[l.TargetID]; !ok {
				return fmt.Errorf("concept %s: link to unknown concept %d", c.Name, l.TargetID)
			}
		}
	}
	return nil
}

// defaultSignature renders name(type, ...) from the declared parameters.
func defaultSignature(m schema.SourceMethod) string {
	types := make([]string, len(m.Parameters))
	for i, p := range m.Parameters {
		types[i] = p.Type
	}
	return m.Name + "(" + strings.Join(types, ", ") + ")"
}

// idAllocator hands out sequential ids above every explicit id of a kind.
type idAllocator struct {
	used map[int64]struct{}
	next int64
	seen map[int64]struct{}
}

func newIDAllocator() *idAllocator {
	return &idAllocator{used: make(map[int64]struct{}), seen: make(map[int64]struct{}), next: 1}
}

// reserve records an explicit id before assignment starts.
func (a *idAllocator) reserve(id int64) {
	if id > 0 {
		a.used[id] = struct{}{}
		a.next = max(a.next, id+1)
	}
}

// assign gives a missing id the next free value and rejects duplicates.
func (a *idAllocator) assign(id *int64, kind, name string) error {
	if *id < 0 {
		return fmt.Errorf("%s %s: negative id %d", kind, name, *id)
	}
	if *id == 0 {
		*id = a.next
		a.next++
		a.used[*id] = struct{}{}
	}
	if _, dup := a.seen[*id]; dup {
		return fmt.Errorf("%s %s: duplicate id %d", kind, name, *id)
	}
	a.seen[*id] = struct{}{}
	return nil
}
