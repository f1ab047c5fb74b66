package regiontree

import (
	"context"

	"go.uber.org/zap"
)

// DefaultStoreConcurrency is how many nodes Save writes in parallel when
// RemoteConfig.StoreConcurrency is unset.
const DefaultStoreConcurrency = 40

// Persist is the interface for loading and storing serialized nodes. The
// given string identity corresponds to the content, which is immutable
// (never modified).
type Persist interface {
	// Store makes the given bytes accessible by the given name.
	Store(context.Context, string, []byte) error
	// Load retrieves the previously-stored bytes by the given name.
	Load(context.Context, string) ([]byte, error)
}

// RemoteConfig controls how nodes are persisted and loaded.
type RemoteConfig struct {
	// StoreImmutablePartsWith is used to store and load serialized nodes.
	StoreImmutablePartsWith Persist

	// NodeCache caches deserialized nodes and may be shared across
	// multiple stores of the same payload type. Trees loaded through a
	// shared cache share their common subtrees by reference.
	NodeCache NodeCache

	// Marshal encodes payloads, defaults to JSON.
	Marshal func(interface{}) ([]byte, error)

	// Unmarshal decodes payloads, defaults to JSON.
	Unmarshal func([]byte, interface{}) error

	// Logger receives debug records of stores and loads. Defaults to the
	// package logger.
	Logger *zap.Logger

	// StoreConcurrency bounds parallel writes to StoreImmutablePartsWith.
	// 0 means DefaultStoreConcurrency.
	StoreConcurrency int
}

// Root identifies a version of a tree whose nodes are accessible in the
// persistent store. A nil Link is the nil tree.
type Root struct {
	Link *string
	Size int
}
