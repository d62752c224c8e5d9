package aggregates

import (
	"github.com/Apanazar/WGE/domain/core/entities"
	"github.com/Apanazar/WGE/domain/core/valueobjects"
	pkgerrors "github.com/Apanazar/WGE/pkg/errors"
)

// IdentityIndex maps canonical URLs to node ids and back.
// The key to id mapping is injective: at most one node per key.
type IdentityIndex struct {
	byKey map[valueobjects.SourceKey]valueobjects.NodeID
	byID  map[valueobjects.NodeID]valueobjects.SourceKey
}

// NewIdentityIndex creates an empty index
func NewIdentityIndex() *IdentityIndex {
	return &IdentityIndex{
		byKey: make(map[valueobjects.SourceKey]valueobjects.NodeID),
		byID:  make(map[valueobjects.NodeID]valueobjects.SourceKey),
	}
}

// Resolve returns the node bound to key.
func (ix *IdentityIndex) Resolve(key valueobjects.SourceKey) (valueobjects.NodeID, bool) {
	id, ok := ix.byKey[key]
	return id, ok
}

// KeyOf returns the key bound to id.
func (ix *IdentityIndex) KeyOf(id valueobjects.NodeID) (valueobjects.SourceKey, bool) {
	key, ok := ix.byID[id]
	return key, ok
}

// Register binds key to id. Binding a key already held by another node fails
// with DuplicateKey; repeating an existing binding is a no-op.
func (ix *IdentityIndex) Register(key valueobjects.SourceKey, id valueobjects.NodeID) error {
	if key.IsZero() {
		return pkgerrors.NewValidationError("cannot index an empty key")
	}
	if bound, ok := ix.byKey[key]; ok {
		if bound == id {
			return nil
		}
		return pkgerrors.NewDuplicateKeyError(key.String(), int(bound))
	}
	if old, ok := ix.byID[id]; ok {
		delete(ix.byKey, old)
	}
	ix.byKey[key] = id
	ix.byID[id] = key
	return nil
}

// Unregister removes the entry for key, if any.
func (ix *IdentityIndex) Unregister(key valueobjects.SourceKey) {
	if id, ok := ix.byKey[key]; ok {
		delete(ix.byKey, key)
		delete(ix.byID, id)
	}
}

// UnregisterByID removes the entry for id, if any.
func (ix *IdentityIndex) UnregisterByID(id valueobjects.NodeID) {
	if key, ok := ix.byID[id]; ok {
		delete(ix.byID, id)
		delete(ix.byKey, key)
	}
}

// Clear empties the index.
func (ix *IdentityIndex) Clear() {
	ix.byKey = make(map[valueobjects.SourceKey]valueobjects.NodeID)
	ix.byID = make(map[valueobjects.NodeID]valueobjects.SourceKey)
}

// Len returns the number of entries.
func (ix *IdentityIndex) Len() int {
	return len(ix.byKey)
}

// Rebuild replaces the index with the keys of every indexed node, in order.
// Later nodes win when a trusted document repeats a key; the displaced keys
// are returned so the caller can report them.
func (ix *IdentityIndex) Rebuild(nodes []*entities.Node) []valueobjects.SourceKey {
	ix.Clear()

	var duplicates []valueobjects.SourceKey
	for _, node := range nodes {
		if !node.IsIndexed() {
			continue
		}
		key := node.SourceKey()
		if prev, ok := ix.byKey[key]; ok {
			delete(ix.byID, prev)
			duplicates = append(duplicates, key)
		}
		if old, ok := ix.byID[node.ID()]; ok {
			delete(ix.byKey, old)
		}
		ix.byKey[key] = node.ID()
		ix.byID[node.ID()] = key
	}
	return duplicates
}
