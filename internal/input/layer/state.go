package layer

import (
	"math/bits"
	"strconv"
	"strings"
)

// State is the active-layer bitmask. Bit n set means layer n is active.
type State uint32

// Has reports whether layer id is set.
func (s State) Has(id int) bool {
	return id >= 0 && id < MaxLayers && s&(1<<uint(id)) != 0
}

// With returns s with layer id set.
func (s State) With(id int) State {
	return s | 1<<uint(id)
}

// Without returns s with layer id cleared.
func (s State) Without(id int) State {
	return s &^ (1 << uint(id))
}

// Highest returns the highest set layer id, or -1 if s is empty.
func (s State) Highest() int {
	return bits.Len32(uint32(s)) - 1
}

// Count returns the number of set layers.
func (s State) Count() int {
	return bits.OnesCount32(uint32(s))
}

// IDs returns the set layer ids in ascending order.
func (s State) IDs() []int {
	ids := make([]int, 0, s.Count())
	for v := uint32(s); v != 0; v &= v - 1 {
		ids = append(ids, bits.TrailingZeros32(v))
	}
	return ids
}

// String returns the set ids like "{0,2,3}".
func (s State) String() string {
	ids := s.IDs()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return "{" + strings.Join(parts, ",") + "}"
}
