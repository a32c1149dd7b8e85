package column

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/doccol/value"
)

func countLeaves(t *testing.T, reference, obj *value.Document) (int, bool) {
	t.Helper()
	n := 0
	ok := traverseLockStep(reference, obj, func(ref, el value.Value) { n++ })

	return n, ok
}

func TestTraverseLockStep_Identity(t *testing.T) {
	ref := value.D(
		"a", value.Int32(1),
		"s", value.Object(value.D("x", value.Bool(true), "y", value.String("v"))),
		"z", value.Double(2.5),
	)

	n, ok := countLeaves(t, ref, ref)
	require.True(t, ok)
	require.Equal(t, 4, n, "identity traversal visits every leaf exactly once")
}

func TestTraverseLockStep_MissingFieldsAreCompatible(t *testing.T) {
	ref := value.D("a", value.Int32(1), "b", value.Int32(2), "c", value.Int32(3))
	obj := value.D("a", value.Int32(9), "c", value.Int32(8))

	var missing []bool
	ok := traverseLockStep(ref, obj, func(ref, el value.Value) {
		missing = append(missing, el.IsMissing())
	})
	require.True(t, ok)
	require.Equal(t, []bool{false, true, false}, missing)
}

func TestTraverseLockStep_EmptyObjectIsCompatible(t *testing.T) {
	ref := value.D("a", value.Int32(1))
	n, ok := countLeaves(t, ref, value.NewDocument())
	require.True(t, ok)
	require.Equal(t, 1, n)
}

func TestTraverseLockStep_ExtraFieldIncompatible(t *testing.T) {
	ref := value.D("a", value.Int32(1))
	obj := value.D("a", value.Int32(1), "b", value.Int32(2))
	_, ok := countLeaves(t, ref, obj)
	require.False(t, ok)
}

func TestTraverseLockStep_OrderMismatchIncompatible(t *testing.T) {
	ref := value.D("a", value.Int32(1), "b", value.Int32(2))
	obj := value.D("b", value.Int32(2), "a", value.Int32(1))
	_, ok := countLeaves(t, ref, obj)
	require.False(t, ok)
}

func TestTraverseLockStep_ObjectLeafShapeMismatch(t *testing.T) {
	ref := value.D("s", value.Object(value.D("x", value.Int32(1))))
	obj := value.D("s", value.Int32(1))
	_, ok := countLeaves(t, ref, obj)
	require.False(t, ok, "a reference Object must pair with an Object")
}

func TestTraverseLockStep_EmptyObjectRules(t *testing.T) {
	refEmpty := value.D("s", value.Object(value.NewDocument()))

	// Matching empty objects are fine.
	_, ok := countLeaves(t, refEmpty, value.D("s", value.Object(value.NewDocument())))
	require.True(t, ok)

	// Empty versus non-empty is not.
	_, ok = countLeaves(t, refEmpty, value.D("s", value.Object(value.D("x", value.Int32(1)))))
	require.False(t, ok)

	// An exhausted object cannot satisfy an empty reference object.
	_, ok = countLeaves(t, refEmpty, value.NewDocument())
	require.False(t, ok)
}

func TestTraverseLockStep_NestedSubset(t *testing.T) {
	ref := value.D(
		"a", value.Int32(1),
		"s", value.Object(value.D("x", value.Int32(2), "y", value.Int32(3))),
	)
	obj := value.D(
		"a", value.Int32(5),
		"s", value.Object(value.D("y", value.Int32(6))),
	)

	n, ok := countLeaves(t, ref, obj)
	require.True(t, ok)
	require.Equal(t, 3, n)
}

func fieldNames(doc *value.Document) []string {
	var names []string
	for _, f := range doc.Fields() {
		names = append(names, f.Name)
	}

	return names
}

func TestMergeObj_AppendsNewFields(t *testing.T) {
	ref := value.D("a", value.Int32(1))
	obj := value.D("a", value.Int32(2), "b", value.Int32(3))

	merged, ok := mergeObj(ref, obj)
	require.True(t, ok)
	require.Equal(t, []string{"a", "b"}, fieldNames(merged))

	// Common fields keep the reference's value.
	require.Equal(t, int32(1), merged.Fields()[0].Value.Int32Value())
}

func TestMergeObj_InterleavesByForwardSearch(t *testing.T) {
	// "b" appears later in obj, so obj's leading "c" is emitted first.
	ref := value.D("b", value.Int32(1), "d", value.Int32(2))
	obj := value.D("c", value.Int32(3), "b", value.Int32(4))

	merged, ok := mergeObj(ref, obj)
	require.True(t, ok)
	require.Equal(t, []string{"c", "b", "d"}, fieldNames(merged))
}

func TestMergeObj_DisjointAppends(t *testing.T) {
	merged, ok := mergeObj(value.D("a", value.Int32(1)), value.D("b", value.Int32(2)))
	require.True(t, ok)
	require.Equal(t, []string{"a", "b"}, fieldNames(merged))

	// Acceptance is commutative even though the order flips.
	merged, ok = mergeObj(value.D("b", value.Int32(2)), value.D("a", value.Int32(1)))
	require.True(t, ok)
	require.Equal(t, []string{"b", "a"}, fieldNames(merged))
}

func TestMergeObj_FailsOnReorderedCommonFields(t *testing.T) {
	ref := value.D("a", value.Int32(1), "b", value.Int32(2))
	obj := value.D("b", value.Int32(3), "a", value.Int32(4))

	_, ok := mergeObj(ref, obj)
	require.False(t, ok, "incompatible ordering of shared fields must fail")
}

func TestMergeObj_FailsOnShapeConflict(t *testing.T) {
	ref := value.D("a", value.Object(value.D("x", value.Int32(1))))
	obj := value.D("a", value.Int32(2))

	_, ok := mergeObj(ref, obj)
	require.False(t, ok)
}

func TestMergeObj_FailsOnEmptyObjectMismatch(t *testing.T) {
	ref := value.D("a", value.Object(value.NewDocument()))
	obj := value.D("a", value.Object(value.D("x", value.Int32(1))))

	_, ok := mergeObj(ref, obj)
	require.False(t, ok)
}

func TestMergeObj_RecursesIntoSubObjects(t *testing.T) {
	ref := value.D("s", value.Object(value.D("x", value.Int32(1))))
	obj := value.D("s", value.Object(value.D("x", value.Int32(9), "y", value.Int32(3))))

	merged, ok := mergeObj(ref, obj)
	require.True(t, ok)
	require.Equal(t, []string{"s"}, fieldNames(merged))

	sub := merged.Fields()[0].Value.DocumentValue()
	require.Equal(t, []string{"x", "y"}, fieldNames(sub))
	require.Equal(t, int32(1), sub.Fields()[0].Value.Int32Value(), "common leaf keeps the reference value")
}

func TestTraverseLockStep_MergedReferenceAcceptsBothSources(t *testing.T) {
	ref := value.D("a", value.Int32(1))
	obj := value.D("a", value.Int32(2), "b", value.Int32(3))

	merged, ok := mergeObj(ref, obj)
	require.True(t, ok)

	_, ok = countLeaves(t, merged, ref)
	require.True(t, ok, "merged reference must accept the original reference")
	_, ok = countLeaves(t, merged, obj)
	require.True(t, ok, "merged reference must accept the merged-in object")
}
