package audience

// Tiered is implemented by anything tagged with an audience tier.
type Tiered interface {
	Tier() Audience
}

// Filter returns the elements of s visible at level, in their original
// order.
//
// A nil level keeps every element. Otherwise only elements whose tier equals
// *level are kept. Removed elements are absent from the result, which is
// never an error. s is not modified.
func Filter[S ~[]T, T Tiered](s S, level *Audience) S {
	out := make(S, 0, len(s))
	for _, v := range s {
		if Includes(level, v.Tier()) {
			out = append(out, v)
		}
	}
	return out
}

// Includes reports whether content tagged tier is visible at level.
func Includes(level *Audience, tier Audience) bool {
	if level == nil {
		return true
	}
	return tier == *level
}
