package value

import "math"

// TimeSamples is an ordered mapping keyed by IEEE-754 double timecode
// (NaN and +/-Inf are valid keys per USD) to a Value of uniform element
// type, per section 4.2. Iteration order is by increasing time; insertion
// preserves order and duplicate times replace.
type TimeSamples struct {
	times  []float64
	values []Value
}

// bitsEqual treats two float64 keys as the same sample time iff their bit
// patterns match exactly, so repeated NaN insertions replace rather than
// accumulate (NaN != NaN under normal comparison).
func bitsEqual(a, b float64) bool {
	return math.Float64bits(a) == math.Float64bits(b)
}

// Set inserts or replaces the sample at time t, maintaining ascending
// order. ValueBlock (v.Blocked) is permitted, meaning "authored erase at
// this time".
func (ts *TimeSamples) Set(t float64, v Value) {
	for i, existing := range ts.times {
		if bitsEqual(existing, t) {
			ts.values[i] = v
			return
		}
	}
	// Insertion point: first index whose time is not < t. Every comparison
	// with NaN is false, so a NaN t is inserted at index 0, and any t is
	// inserted no later than the first stored NaN key.
	idx := len(ts.times)
	for i, existing := range ts.times {
		if !(existing < t) {
			idx = i
			break
		}
	}
	ts.times = append(ts.times, 0)
	copy(ts.times[idx+1:], ts.times[idx:])
	ts.times[idx] = t

	ts.values = append(ts.values, Value{})
	copy(ts.values[idx+1:], ts.values[idx:])
	ts.values[idx] = v
}

// Get returns the sample at time t, if any.
func (ts *TimeSamples) Get(t float64) (Value, bool) {
	for i, existing := range ts.times {
		if bitsEqual(existing, t) {
			return ts.values[i], true
		}
	}
	return Value{}, false
}

// Len returns the number of samples.
func (ts *TimeSamples) Len() int { return len(ts.times) }

// Times returns the sample times in ascending iteration order.
func (ts *TimeSamples) Times() []float64 {
	return append([]float64(nil), ts.times...)
}

// Range calls f for every sample in ascending time order, stopping early
// if f returns false.
func (ts *TimeSamples) Range(f func(t float64, v Value) bool) {
	for i, t := range ts.times {
		if !f(t, ts.values[i]) {
			return
		}
	}
}

// ElementType returns the common (non-blocked) element type name of the
// samples, and false if there are no non-blocked samples to infer from.
func (ts *TimeSamples) ElementType() (string, bool) {
	for _, v := range ts.values {
		if !v.Blocked {
			return v.FullTypeName(), true
		}
	}
	return "", false
}

// CheckUniformType verifies invariant (iii): all non-blocked samples share
// the same element type.
func (ts *TimeSamples) CheckUniformType() bool {
	want, ok := ts.ElementType()
	if !ok {
		return true
	}
	for _, v := range ts.values {
		if !v.Blocked && v.FullTypeName() != want {
			return false
		}
	}
	return true
}
