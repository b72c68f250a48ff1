package tablebridge

import "sync"

// ObjectStoreFactory builds an ObjectStore for a table root URI the first
// time that root is seen.
type ObjectStoreFactory func(tableURI string) (ObjectStore, error)

// ObjectStoreRegistry is a process-wide, idempotent keyed cache of
// ObjectStore instances, one per distinct scheme+host (§5, §9 Design
// Notes: "global registration ... idempotent registration is a contract,
// not a side channel").
type ObjectStoreRegistry struct {
	mu    sync.RWMutex
	stores map[string]ObjectStore
}

// NewObjectStoreRegistry returns an empty registry.
func NewObjectStoreRegistry() *ObjectStoreRegistry {
	return &ObjectStoreRegistry{stores: make(map[string]ObjectStore)}
}

// Register installs store under key if absent; re-registering the same
// key with an equivalent store is a no-op, not an error. The returned
// ObjectStore is always the one now associated with key (first writer
// wins on a race).
func (r *ObjectStoreRegistry) Register(key string, factory ObjectStoreFactory) (ObjectStore, error) {
	r.mu.RLock()
	if s, ok := r.stores[key]; ok {
		r.mu.RUnlock()
		return s, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stores[key]; ok {
		return s, nil
	}
	s, err := factory(key)
	if err != nil {
		return nil, NewObjectStoreError("register object store", err)
	}
	r.stores[key] = s
	return s, nil
}

// Lookup returns the registered store for key, if any.
func (r *ObjectStoreRegistry) Lookup(key string) (ObjectStore, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stores[key]
	return s, ok
}

// LogStoreHandle is an opaque resolved log-store reference; this module
// never reads through it (the transaction log reader is out of scope), it
// only caches the association between a table root and whatever handle
// the caller's log-store implementation produced.
type LogStoreHandle struct {
	TableRoot string
	Handle    any
}

// LogStoreRegistry caches resolved log-store handles by table root URI,
// idempotent on re-registration, mirroring ObjectStoreRegistry.
type LogStoreRegistry struct {
	mu      sync.RWMutex
	handles map[string]*LogStoreHandle
}

// NewLogStoreRegistry returns an empty registry.
func NewLogStoreRegistry() *LogStoreRegistry {
	return &LogStoreRegistry{handles: make(map[string]*LogStoreHandle)}
}

// Register installs handle under tableRoot if absent, returning the
// handle now associated with tableRoot.
func (r *LogStoreRegistry) Register(tableRoot string, handle any) *LogStoreHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.handles[tableRoot]; ok {
		return h
	}
	h := &LogStoreHandle{TableRoot: tableRoot, Handle: handle}
	r.handles[tableRoot] = h
	return h
}

// Lookup returns the registered handle for tableRoot, if any.
func (r *LogStoreRegistry) Lookup(tableRoot string) (*LogStoreHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[tableRoot]
	return h, ok
}
