package world

import (
	"fmt"
	"strings"
)

// Dimension is a partition of the server that islands may claim space in.
// Each Dimension has its own chunk coordinate space.
type Dimension uint8

const (
	// Overworld is the default dimension islands are created in.
	Overworld Dimension = iota
	// Nether is the nether dimension.
	Nether
	// End is the end dimension.
	End
)

// Dimensions returns all known dimensions in a stable order.
func Dimensions() []Dimension {
	return []Dimension{Overworld, Nether, End}
}

// Range returns the minimum and maximum block Y of the dimension, both
// inclusive.
func (d Dimension) Range() (min, max int) {
	switch d {
	case Nether, End:
		return 0, 255
	}
	return -64, 319
}

// String ...
func (d Dimension) String() string {
	switch d {
	case Overworld:
		return "overworld"
	case Nether:
		return "nether"
	case End:
		return "end"
	}
	return fmt.Sprintf("dimension(%d)", uint8(d))
}

// ParseDimension parses the name of a dimension. Parsing is case-insensitive
// and accepts a couple of common aliases.
func ParseDimension(name string) (Dimension, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "overworld", "world", "default":
		return Overworld, true
	case "nether", "hell":
		return Nether, true
	case "end", "the_end", "end_dimension":
		return End, true
	}
	return 0, false
}
