package compat

// maxGroupDepth bounds recursion through nested groups. Profiles are
// tree-shaped, but malformed upstream data should degrade to a zero score
// instead of exhausting the stack.
const maxGroupDepth = 32

// StructuralSimilarity computes a similarity score in [0,1] between two
// attribute values, dispatching on the variant pair:
//
//   - tag set vs tag set: Jaccard overlap (empty set on either side scores 0)
//   - scalar vs scalar: min/max ratio (both zero scores 1, identical preferences)
//   - category vs category: exact, case-sensitive equality
//   - group vs group: arithmetic mean of the recursive scores over common keys
//
// Mismatched variants and absent attributes score 0. The function is pure and
// safe for concurrent use.
func StructuralSimilarity(a, b AttributeValue) float64 {
	return structuralSimilarity(a, b, 0)
}

func structuralSimilarity(a, b AttributeValue, depth int) float64 {
	if a.kind != b.kind {
		return 0
	}

	switch a.kind {
	case KindTagSet:
		return jaccard(a.tags, b.tags)
	case KindScalar:
		return ratioSimilarity(a.scalar, b.scalar)
	case KindCategory:
		if a.category == b.category {
			return 1
		}
		return 0
	case KindGroup:
		if depth >= maxGroupDepth {
			return 0
		}
		return groupSimilarity(a.group, b.group, depth)
	default:
		return 0
	}
}

// jaccard computes |intersection| / |union| over two tag collections,
// collapsing duplicates. Either side empty scores 0: an empty preference set
// has no overlap by definition.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	inA := make(map[string]struct{}, len(a))
	for _, tag := range a {
		inA[tag] = struct{}{}
	}

	union := len(inA)
	intersection := 0
	seenB := make(map[string]struct{}, len(b))
	for _, tag := range b {
		if _, dup := seenB[tag]; dup {
			continue
		}
		seenB[tag] = struct{}{}
		if _, ok := inA[tag]; ok {
			intersection++
		} else {
			union++
		}
	}

	return float64(intersection) / float64(union)
}

// ratioSimilarity scores two non-negative scalars as min/max. Two zeros are
// literally identical preferences, so they score 1; a single zero against a
// positive value falls out of the ratio as 0.
func ratioSimilarity(a, b float64) float64 {
	if a == 0 && b == 0 {
		return 1
	}
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	if hi <= 0 {
		return 0
	}
	return lo / hi
}

// groupSimilarity averages the recursive scores over keys present in both
// groups. Keys on only one side are ignored; no common keys scores 0.
func groupSimilarity(a, b map[string]AttributeValue, depth int) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	sum := 0.0
	common := 0
	for key, av := range a {
		bv, ok := b[key]
		if !ok {
			continue
		}
		sum += structuralSimilarity(av, bv, depth+1)
		common++
	}

	if common == 0 {
		return 0
	}
	return sum / float64(common)
}
