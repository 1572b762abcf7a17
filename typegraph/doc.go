// Package typegraph defines the canonical in-memory representation of a
// resolved type: a tagged-variant node graph produced by the resolver and
// consumed by the matcher DSL and the builder generator.
//
// The kind set is closed. Declaration shapes with no defined mapping resolve
// to KindUnknown rather than growing the variant set, so every consumer can
// switch over kinds exhaustively and delegate unknown kinds to a default.
package typegraph
