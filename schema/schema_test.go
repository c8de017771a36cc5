package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStemKind(t *testing.T) {
	t.Run("full kinds map to part kinds", func(t *testing.T) {
		assert.True(t, ParameterTypeFull.IsFull())
		assert.Equal(t, ParameterTypePart, ParameterTypeFull.PartKind())
		assert.Equal(t, AttributeIdentifierPart, AttributeIdentifierFull.PartKind())
	})

	t.Run("part kinds map to themselves", func(t *testing.T) {
		assert.False(t, ConceptPart.IsFull())
		assert.Equal(t, ConceptPart, ConceptPart.PartKind())
	})
}

func TestStemTreeNavigation(t *testing.T) {
	tree := StemTree{
		Owner: MethodOwner,
		Nodes: []StemNode{
			{Term: "getname", Kind: MethodFull, Parent: NoParent},
			{Term: "get", Kind: MethodPart, Parent: 0},
			{Term: "name", Kind: MethodPart, Parent: 0},
			{Term: "name", Kind: ParameterNameFull, Parent: NoParent},
			{Term: "name", Kind: ParameterNamePart, Parent: 3},
		},
	}

	assert.Equal(t, []int{0, 3}, tree.Roots())
	assert.Equal(t, []int{1, 2}, tree.Children(0))
	assert.Equal(t, []int{4}, tree.Children(3))
	assert.Equal(t, []string{"getname", "get", "name"}, tree.Terms())
}

func TestSourceModelMethods(t *testing.T) {
	model := SourceModel{Classes: []SourceClass{
		{ID: 1, Name: "A", Methods: []SourceMethod{{ID: 10, Name: "run"}}},
		{ID: 2, Name: "B", Methods: []SourceMethod{{ID: 20, Name: "stop"}, {ID: 21, Name: "go"}}},
	}}

	methods := model.Methods()
	assert.Len(t, methods, 3)
	assert.Equal(t, int64(1), methods[0].ClassID)
	assert.Equal(t, int64(2), methods[2].ClassID)
}

func TestTimeSeriesTotal(t *testing.T) {
	ts := TimeSeries{Matrix: [][]int{{2, 0}, {0, 1}}}
	assert.Equal(t, 3, ts.Total())
}
