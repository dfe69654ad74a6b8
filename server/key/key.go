// Package key implements the canonical identifiers that block and spawner
// counts are aggregated under.
package key

import (
	"cmp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Spawner is the name of the key under which spawners are counted. The
// spawned entity type is stored as the variant of the key.
const Spawner = "SPAWNER"

// Air is the name of the key of empty block slots.
const Air = "AIR"

// aliases maps names of blocks that differ between editions or versions to
// the name they are counted under.
var aliases = map[string]string{
	"MOB_SPAWNER":     Spawner,
	"MONSTER_SPAWNER": Spawner,
	"CAVE_AIR":        Air,
	"VOID_AIR":        Air,
}

// Key identifies one type of content. Keys are comparable: two keys that
// represent the same type compare equal regardless of how they were
// constructed, so a Key may be used as a map key directly.
type Key struct {
	name    string
	variant string
}

// Of returns the Key of a block name such as "minecraft:stone" or "STONE".
// Names that carry a variant, such as "SPAWNER:ZOMBIE", are accepted too.
func Of(name string) Key {
	return Parse(name)
}

// OfSpawner returns the Key of a spawner spawning entityType.
func OfSpawner(entityType string) Key {
	return Key{name: Spawner, variant: normalise(entityType)}
}

// Parse parses a key in the format NAME or NAME:VARIANT. Only names that carry
// a variant, such as SPAWNER, are split at a colon. The default "minecraft:"
// namespace is stripped from both parts, while other namespaces are kept as
// part of the name, so "othermod:stone" parses to the name "OTHERMOD:STONE".
func Parse(s string) Key {
	s = stripNamespace(strings.TrimSpace(s))
	if name, variant, ok := strings.Cut(s, ":"); ok {
		if n := normalise(name); hasVariant(n) {
			return Key{name: n, variant: normalise(variant)}
		}
	}
	return Key{name: normalise(s)}
}

// hasVariant reports whether keys named name may carry a variant.
func hasVariant(name string) bool {
	return name == Spawner
}

// Name returns the name of the key, without variant.
func (k Key) Name() string {
	return k.name
}

// Variant returns the variant of the key. It is empty for keys without one.
func (k Key) Variant() string {
	return k.variant
}

// IsAir reports whether the key represents an empty block slot.
func (k Key) IsAir() bool {
	return k.name == Air || k.name == ""
}

// IsSpawner reports whether the key represents a spawner, with or without a
// known entity type.
func (k Key) IsSpawner() bool {
	return k.name == Spawner
}

// String returns the key in the format accepted by Parse.
func (k Key) String() string {
	if k.variant == "" {
		return k.name
	}
	return k.name + ":" + k.variant
}

// Compare compares two keys by name first and variant second.
func (k Key) Compare(other Key) int {
	if c := cmp.Compare(k.name, other.name); c != 0 {
		return c
	}
	return cmp.Compare(k.variant, other.variant)
}

// MarshalText ...
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText ...
func (k *Key) UnmarshalText(text []byte) error {
	*k = Parse(string(text))
	return nil
}

// normalise turns a single name or variant into its canonical form: upper
// case, with spaces, dashes and dots replaced by underscores and aliases
// resolved.
func normalise(s string) string {
	s = stripNamespace(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	s = cases.Upper(language.Und).String(s)
	s = replacer.Replace(s)
	if alias, ok := aliases[s]; ok {
		return alias
	}
	return s
}

var replacer = strings.NewReplacer(" ", "_", "-", "_", ".", "_")

// namespace is the default namespace of block and entity names.
const namespace = "minecraft:"

func stripNamespace(s string) string {
	if len(s) >= len(namespace) && strings.EqualFold(s[:len(namespace)], namespace) {
		return s[len(namespace):]
	}
	return s
}
