package typegraph

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// snapshotVersion guards against decoding snapshots written by an
// incompatible model revision.
const snapshotVersion = 1

type snapshot struct {
	Version int           `msgpack:"version"`
	Graph   *ResolvedType `msgpack:"graph"`
}

// EncodeSnapshot serializes a resolution result for batch-cache persistence.
// The encoding is a pure data dump: nodes are immutable, so a decoded
// snapshot is interchangeable with the original graph.
func EncodeSnapshot(r *ResolvedType) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("forge: cannot snapshot nil resolution result")
	}
	return msgpack.Marshal(snapshot{Version: snapshotVersion, Graph: r})
}

// DecodeSnapshot restores a resolution result written by EncodeSnapshot.
func DecodeSnapshot(data []byte) (*ResolvedType, error) {
	var s snapshot
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("forge: decode snapshot: %w", err)
	}
	if s.Version != snapshotVersion {
		return nil, fmt.Errorf("forge: snapshot version %d is not supported", s.Version)
	}
	if s.Graph == nil {
		return nil, fmt.Errorf("forge: snapshot holds no graph")
	}
	if s.Graph.Closure == nil {
		s.Graph.Closure = make(map[string]*TypeInfo)
	}
	return s.Graph, nil
}
