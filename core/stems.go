package core

import (
	"fmt"
	"strings"

	"github.com/huangsam/conceptrace/schema"
)

// StemOptions configures stem extraction.
type StemOptions struct {
	Stemmer       schema.StemmerMode
	RejectedWords []string
	FullWeight    float64 // weight of full-identifier nodes; parts always weigh 1
	TrimHungarian bool    // applies to methods and concepts alike
}

// StemBuilder builds the stem trees of methods and concepts. Both sides go
// through the same normalizer, so identical text always yields identical terms.
type StemBuilder struct {
	normalizer *Normalizer
	fullWeight float64
}

// NewStemBuilder creates a StemBuilder. A non-positive full weight falls back to 1.
func NewStemBuilder(opts StemOptions) *StemBuilder {
	fullWeight := opts.FullWeight
	if fullWeight <= 0 {
		fullWeight = 1
	}
	return &StemBuilder{
		normalizer: NewNormalizer(opts.Stemmer, opts.RejectedWords, opts.TrimHungarian),
		fullWeight: fullWeight,
	}
}

// BuildConceptStems covers the concept name, its attributes and its class tags.
func (b *StemBuilder) BuildConceptStems(c schema.Concept) schema.StemTree {
	tree := schema.StemTree{Owner: schema.ConceptOwner, OwnerID: c.ID, Name: c.Name}
	b.addSurface(&tree, c.Name, schema.ConceptFull, "")
	for _, a := range c.Attributes {
		b.addSurface(&tree, a.Name, schema.AttributeFull, "")
		b.addSurface(&tree, a.Identifier, schema.AttributeIdentifierFull, "")
	}
	for _, cl := range c.Classes {
		b.addSurface(&tree, cl.Name, schema.ClassFull, "")
		b.addSurface(&tree, cl.Identifier, schema.ClassIdentifierFull, "")
	}
	return tree
}

// BuildMethodStems covers the method name, its parameters and its references.
func (b *StemBuilder) BuildMethodStems(m schema.SourceMethod) schema.StemTree {
	tree := schema.StemTree{Owner: schema.MethodOwner, OwnerID: m.ID, Name: m.Signature}
	if tree.Name == "" {
		tree.Name = m.Name
	}
	b.addSurface(&tree, m.Name, schema.MethodFull, "")
	for _, p := range m.Parameters {
		b.addSurface(&tree, p.Name, schema.ParameterNameFull, "")
		b.addSurface(&tree, p.Type, schema.ParameterTypeFull, "")
	}
	for _, r := range m.References {
		b.addSurface(&tree, r.Name, schema.ReferenceNameFull, r.Origin)
		b.addSurface(&tree, r.Type, schema.ReferenceTypeFull, r.Origin)
	}
	return tree
}

// Signature identifies the builder settings for cache keys.
func (b *StemBuilder) Signature() string {
	return fmt.Sprintf("%s:%g", b.normalizer.Signature(), b.fullWeight)
}

// addSurface appends one full node and its part children. Text without any
// usable term contributes nothing.
func (b *StemBuilder) addSurface(tree *schema.StemTree, text string, kind schema.StemKind, origin schema.ReferenceOrigin) {
	terms := b.normalizer.Terms(text)
	if len(terms) == 0 {
		return
	}
	root := len(tree.Nodes)
	tree.Nodes = append(tree.Nodes, schema.StemNode{
		Term:   strings.Join(terms, ""),
		Kind:   kind,
		Weight: b.fullWeight,
		Parent: schema.NoParent,
		Origin: origin,
	})
	for _, term := range terms {
		tree.Nodes = append(tree.Nodes, schema.StemNode{
			Term:   term,
			Kind:   kind.PartKind(),
			Weight: 1,
			Parent: root,
			Origin: origin,
		})
	}
}
