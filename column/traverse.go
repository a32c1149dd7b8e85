package column

import "github.com/arloliu/doccol/value"

// leafFunc is called for every leaf of the reference document during a
// lock-step traversal. el is the matching leaf of the traversed object, or
// the missing sentinel when the object does not carry the field.
type leafFunc func(ref, el value.Value)

// traverse visits every leaf of reference in pre-order, reporting each as
// missing. It is used when a whole sub-tree is absent from the traversed
// object.
func traverse(reference *value.Document, fn leafFunc) {
	for _, f := range reference.Fields() {
		if f.Value.Type() == value.TypeObject {
			traverse(f.Value.DocumentValue(), fn)
		} else {
			fn(f.Value, value.Value{})
		}
	}
}

// traverseLockStep traverses reference and obj in lock-step and reports
// whether the object hierarchies are compatible for sub-object compression.
// Fields in obj must appear in the same order as in reference, sub-objects in
// reference must be sub-objects in obj, and the only allowed difference is
// fields missing from obj. fn is called for every reference leaf.
func traverseLockStep(reference, obj *value.Document, fn leafFunc) bool {
	it, compatible := traverseLockStepNested(reference, obj, fn)

	// Extra elements in obj are not allowed; they need to be merged into
	// reference to be compressible.
	return compatible && it == obj.Len()
}

// traverseLockStepNested is the recursive worker for traverseLockStep. It
// returns the obj field index reached and whether the hierarchies matched.
func traverseLockStepNested(reference, obj *value.Document, fn leafFunc) (int, bool) {
	it := 0
	fields := obj.Fields()

	for _, ref := range reference.Fields() {
		if ref.Value.Type() == value.TypeObject {
			refObj := ref.Value.DocumentValue()
			hasIt := it < len(fields)

			// An empty reference object is incompatible with an exhausted
			// obj. While obj still has fields, a name mismatch below treats
			// it as missing like any other sub-tree.
			if !hasIt && refObj.IsEmpty() {
				return it, false
			}

			if hasIt && ref.Name == fields[it].Name {
				cur := fields[it].Value
				// A reference Object must pair with an Object.
				if cur.Type() != value.TypeObject {
					return it, false
				}

				// Differences in empty objects are not allowed.
				if refObj.IsEmpty() != cur.DocumentValue().IsEmpty() {
					return it, false
				}

				if _, compatible := traverseLockStepNested(refObj, cur.DocumentValue(), fn); !compatible {
					return it, false
				}
				it++
			} else {
				// Assume the field at it comes later in reference; traverse
				// this sub-tree as missing from obj without advancing it. A
				// true mismatch surfaces at the end when it is not exhausted.
				traverse(refObj, fn)
			}

			continue
		}

		if it < len(fields) && ref.Name == fields[it].Name {
			fn(ref.Value, fields[it].Value)
			it++
		} else {
			fn(ref.Value, value.Value{})
		}
	}

	return it, it == len(fields)
}

// mergeObj merges the fields of obj into reference, producing a new reference
// that contains all fields of both while preserving reference's original
// order. For a successful merge, the fields common to both must appear in the
// same relative order. The second return value is false when the objects
// cannot be merged. Merging unsorted documents is O(N²) in the total field
// count; the buffered-object heuristic bounds how often it runs.
func mergeObj(reference, obj *value.Document) (*value.Document, bool) {
	fields, ok := mergeFields(reference, obj)
	if !ok {
		return nil, false
	}

	return value.NewDocument(fields...), true
}

func mergeFields(reference, obj *value.Document) ([]value.Field, bool) {
	refFields := reference.Fields()
	objFields := obj.Fields()
	out := make([]value.Field, 0, len(refFields)+len(objFields))

	refIt, it := 0, 0
	for refIt < len(refFields) && it < len(objFields) {
		ref := refFields[refIt]
		cur := objFields[it]

		if ref.Name == cur.Name {
			refIsObj := ref.Value.Type() == value.TypeObject
			itIsObj := cur.Value.Type() == value.TypeObject

			switch {
			case refIsObj && itIsObj:
				refObj := ref.Value.DocumentValue()
				itObj := cur.Value.DocumentValue()
				// There may not be a mismatch in empty objects.
				if refObj.IsEmpty() != itObj.IsEmpty() {
					return nil, false
				}

				sub, ok := mergeFields(refObj, itObj)
				if !ok {
					return nil, false
				}
				out = append(out, value.Field{Name: ref.Name, Value: value.Object(value.NewDocument(sub...))})
			case refIsObj || itIsObj:
				// Both or neither must be Object to be mergeable.
				return nil, false
			default:
				out = append(out, ref)
			}

			refIt++
			it++

			continue
		}

		// Name mismatch: check whether the reference field occurs later in
		// obj. If it does, obj's current field goes first (but only once);
		// otherwise the reference field goes first.
		if findField(objFields[it+1:], ref.Name) < 0 {
			out = append(out, ref)
			refIt++
		} else {
			if hasField(out, cur.Name) {
				return nil, false
			}
			out = append(out, cur)
			it++
		}
	}

	// Remaining reference fields after obj is exhausted.
	for ; refIt < len(refFields); refIt++ {
		ref := refFields[refIt]
		if ref.Value.Type() == value.TypeObject && ref.Value.DocumentValue().IsEmpty() {
			return nil, false
		}
		if hasField(out, ref.Name) {
			return nil, false
		}
		out = append(out, ref)
	}

	// Remaining obj fields after reference is exhausted.
	for ; it < len(objFields); it++ {
		cur := objFields[it]
		if cur.Value.Type() == value.TypeObject && cur.Value.DocumentValue().IsEmpty() {
			return nil, false
		}
		if hasField(out, cur.Name) {
			return nil, false
		}
		out = append(out, cur)
	}

	return out, true
}

func findField(fields []value.Field, name string) int {
	for i, f := range fields {
		if f.Name == name {
			return i
		}
	}

	return -1
}

func hasField(fields []value.Field, name string) bool {
	return findField(fields, name) >= 0
}
