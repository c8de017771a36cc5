package schema

import "strings"

// StemKind identifies the textual surface a stem came from and whether it is
// a full identifier or one of its parts.
type StemKind string

// Concept stem kinds.
const (
	ConceptFull             StemKind = "concept-full"
	ConceptPart             StemKind = "concept-part"
	AttributeFull           StemKind = "attribute-full"
	AttributePart           StemKind = "attribute-part"
	AttributeIdentifierFull StemKind = "attribute-identifier-full"
	AttributeIdentifierPart StemKind = "attribute-identifier-part"
	ClassFull               StemKind = "class-full"
	ClassPart               StemKind = "class-part"
	ClassIdentifierFull     StemKind = "class-identifier-full"
	ClassIdentifierPart     StemKind = "class-identifier-part"
)

// Method stem kinds.
const (
	MethodFull        StemKind = "method-full"
	MethodPart        StemKind = "method-part"
	ParameterNameFull StemKind = "parameter-name-full"
	ParameterNamePart StemKind = "parameter-name-part"
	ParameterTypeFull StemKind = "parameter-type-full"
	ParameterTypePart StemKind = "parameter-type-part"
	ReferenceNameFull StemKind = "reference-name-full"
	ReferenceNamePart StemKind = "reference-name-part"
	ReferenceTypeFull StemKind = "reference-type-full"
	ReferenceTypePart StemKind = "reference-type-part"
)

// IsFull reports whether the kind marks a whole identifier.
func (k StemKind) IsFull() bool {
	return strings.HasSuffix(string(k), "-full")
}

// PartKind returns the part kind paired with a full kind. Part kinds map to themselves.
func (k StemKind) PartKind() StemKind {
	if !k.IsFull() {
		return k
	}
	return StemKind(strings.TrimSuffix(string(k), "-full") + "-part")
}

// ReferenceOrigin tells where a referenced name was declared.
type ReferenceOrigin string

// All reference origins supported.
const (
	FieldOrigin       ReferenceOrigin = "field"
	ParameterOrigin   ReferenceOrigin = "parameter"
	LocalOrigin       ReferenceOrigin = "local"
	DeclarationOrigin ReferenceOrigin = "declaration"
	UnknownOrigin     ReferenceOrigin = "unknown"
)

// ValidReferenceOrigins lists all valid reference origins.
var ValidReferenceOrigins = map[ReferenceOrigin]struct{}{
	FieldOrigin:       {},
	ParameterOrigin:   {},
	LocalOrigin:       {},
	DeclarationOrigin: {},
	UnknownOrigin:     {},
}

// NoParent marks a root node in a stem arena.
const NoParent = -1

// StemNode is one stem in a tree arena. Parent indexes into the same arena.
type StemNode struct {
	Term   string          `json:"term"`
	Kind   StemKind        `json:"kind"`
	Weight float64         `json:"weight"`
	Parent int             `json:"parent"`
	Origin ReferenceOrigin `json:"origin,omitempty"`
}

// StemTree is the arena of stems describing one method or one concept.
// Full nodes are roots; part nodes point at their full node.
type StemTree struct {
	Owner   OwnerKind  `json:"owner"`
	OwnerID int64      `json:"owner_id"`
	Name    string     `json:"name"`
	Nodes   []StemNode `json:"nodes"`
}

// Roots returns the arena indices of all full nodes.
func (t StemTree) Roots() []int {
	var roots []int
	for i, n := range t.Nodes {
		if n.Parent == NoParent {
			roots = append(roots, i)
		}
	}
	return roots
}

// Children returns the arena indices of the nodes whose parent is idx.
func (t StemTree) Children(idx int) []int {
	var out []int
	for i, n := range t.Nodes {
		if n.Parent == idx {
			out = append(out, i)
		}
	}
	return out
}

// Terms returns the distinct terms of the tree in arena order.
func (t StemTree) Terms() []string {
	seen := make(map[string]struct{}, len(t.Nodes))
	var out []string
	for _, n := range t.Nodes {
		if _, ok := seen[n.Term]; ok {
			continue
		}
		seen[n.Term] = struct{}{}
		out = append(out, n.Term)
	}
	return out
}

// TokenResult shows how one identifier decomposes.
type TokenResult struct {
	Identifier string   `json:"identifier"`
	Tokens     []string `json:"tokens"` // raw camel-case split
	Terms      []string `json:"terms"`  // normalized vocabulary terms
}
