package cuboid

// ErrInvalidElement is raised when an element of the input is neither an int
// nor a nested sequence ([]any), or is a sequence at the leaf depth of the
// shape inferred from the first leaf path. (An int above the leaf depth is an
// *UnexpectedLeafError instead.)
var ErrInvalidElement = Error("expected an N-dimensional array of integers, found an invalid element")

// strides returns the row-major strides for shape: strides[i] is the number
// of cells spanned by a unit step along axis i.
func strides(shape []int) []int {
	s := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= shape[i]
	}
	return s
}

// size returns the total number of cells in shape (the product of its axes).
func size(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// pathToIndex converts a k-dimensional path into a flat row-major index.
func pathToIndex(strides, path []int) int {
	idx := 0
	for i, p := range path {
		idx += p * strides[i]
	}
	return idx
}

// indexToPath converts a flat row-major cursor into a k-dimensional path via
// mixed-radix decomposition, most-significant axis first.
func indexToPath(shape []int, index int) []int {
	path := make([]int, len(shape))
	for i := len(shape) - 1; i >= 0; i-- {
		path[i] = index % shape[i]
		index /= shape[i]
	}
	return path
}

// flattenAndValidate descends the arbitrarily nested input, inferring the
// shape from the first leaf path, then validates every remaining element
// against that shape while copying leaves into a fresh row-major buffer of
// *int slots. A nil slot has no meaning at this stage (every cell starts
// populated); the decomposer later uses nil to mean "consumed".
func flattenAndValidate(data any) ([]*int, []int) {
	shape := inferShape(data)
	buf := make([]*int, size(shape))
	st := strides(shape)
	validateAndFill(data, shape, 0, nil, buf, st)
	return buf, shape
}

// inferShape descends along index 0 of each nested sequence to discover the
// shape, the way the reference implementation's shape inference does.
func inferShape(data any) []int {
	var shape []int
	cur := data
	for {
		seq, ok := cur.([]any)
		if !ok {
			break
		}
		shape = append(shape, len(seq))
		if len(seq) == 0 {
			panicf("empty dimension is not permitted")
		}
		cur = seq[0]
	}
	if _, isInt := cur.(int); !isInt {
		panic(ErrInvalidElement)
	}
	return shape
}

// validateAndFill walks data at the given depth, enforcing that every
// sub-sequence has length shape[depth], every element is a sequence at
// non-leaf depths and an int at the leaf depth, and writes leaves into buf at
// the offset implied by path ++ [current index].
func validateAndFill(data any, shape []int, depth int, path []int, buf []*int, st []int) {
	seq, ok := data.([]any)
	if !ok {
		panic(ErrInvalidElement)
	}
	if len(seq) != shape[depth] {
		panic(&InconsistentShapeError{Shape: append([]int(nil), shape...), ObservedLen: len(seq), Depth: depth})
	}
	leafDepth := len(shape) - 1
	for i, item := range seq {
		childPath := append(append([]int(nil), path...), i)
		if depth == leafDepth {
			v, isInt := item.(int)
			if !isInt {
				if _, isSeq := item.([]any); isSeq {
					panic(ErrInvalidElement)
				}
				panic(ErrInvalidElement)
			}
			idx := pathToIndex(st, childPath)
			val := v
			buf[idx] = &val
		} else {
			if _, isInt := item.(int); isInt {
				panic(&UnexpectedLeafError{Shape: append([]int(nil), shape...), Depth: depth})
			}
			validateAndFill(item, shape, depth+1, childPath, buf, st)
		}
	}
}
