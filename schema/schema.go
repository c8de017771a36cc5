// Package schema holds the plain data types shared by every layer of conceptrace.
package schema

// SourceClass is a class of the source-code model.
type SourceClass struct {
	ID      int64          `json:"id" yaml:"id"`
	Name    string         `json:"name" yaml:"name"`
	Methods []SourceMethod `json:"methods,omitempty" yaml:"methods,omitempty"`
}

// SourceMethod is a method of a source class.
type SourceMethod struct {
	ID         int64             `json:"id" yaml:"id"`
	ClassID    int64             `json:"class_id" yaml:"-"`
	Name       string            `json:"name" yaml:"name"`
	Signature  string            `json:"signature" yaml:"signature"`
	Parameters []SourceParameter `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	References []SourceReference `json:"references,omitempty" yaml:"references,omitempty"`
}

// SourceParameter is a declared parameter of a method.
type SourceParameter struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// SourceReference is a name referenced from a method body.
type SourceReference struct {
	Name   string          `json:"name" yaml:"name"`
	Type   string          `json:"type" yaml:"type"`
	Origin ReferenceOrigin `json:"origin" yaml:"origin"`
}

// Concept is a concept of the domain ontology.
type Concept struct {
	ID         int64              `json:"id" yaml:"id"`
	Name       string             `json:"name" yaml:"name"`
	Attributes []ConceptAttribute `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Classes    []ConceptClass     `json:"classes,omitempty" yaml:"classes,omitempty"`
	Links      []ConceptLink      `json:"links,omitempty" yaml:"links,omitempty"`
}

// ConceptAttribute is a named attribute of a concept.
type ConceptAttribute struct {
	Name       string `json:"name" yaml:"name"`
	Identifier string `json:"identifier" yaml:"identifier"`
}

// ConceptClass is a class tag attached to a concept.
type ConceptClass struct {
	Name       string `json:"name" yaml:"name"`
	Identifier string `json:"identifier" yaml:"identifier"`
}

// ConceptLink is a directed relation between two concepts. Links carry no text
// and never contribute stems.
type ConceptLink struct {
	TargetID  int64  `json:"target" yaml:"target"`
	Qualifier string `json:"qualifier" yaml:"qualifier"`
}

// SourceModel is the complete source-code model of a project.
type SourceModel struct {
	Classes []SourceClass `json:"classes"`
}

// Ontology is the complete domain ontology of a project.
type Ontology struct {
	Concepts []Concept `json:"concepts"`
}

// Methods flattens the model into its methods, in class order.
func (m SourceModel) Methods() []SourceMethod {
	var out []SourceMethod
	for _, c := range m.Classes {
		for _, method := range c.Methods {
			method.ClassID = c.ID
			out = append(out, method)
		}
	}
	return out
}
