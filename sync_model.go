package fsmodel

import (
	"context"
	"sync"

	"github.com/enetx/g"
)

// SyncModel is a thread-safe wrapper around a Model.
// Reads, checks and exports take a shared lock; decoding and Update take an
// exclusive one. All methods on SyncModel are the thread-safe counterparts
// to the methods on the base Model.
type SyncModel struct {
	model *Model
	mu    sync.RWMutex
}

// Interface compliance check.
var _ Document = (*SyncModel)(nil)

// NewSync wraps m. The caller must stop using m directly.
func NewSync(m *Model) *SyncModel { return &SyncModel{model: m} }

// Name is the thread-safe version of Model.Name.
func (sm *SyncModel) Name() g.String {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.model.Name()
}

// Update runs fn with exclusive access to the underlying model. This is
// the only way to mutate a shared model.
func (sm *SyncModel) Update(fn func(m *Model) error) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return fn(sm.model)
}

// View runs fn with shared access to the underlying model. fn must not
// mutate the model.
func (sm *SyncModel) View(fn func(m *Model)) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	fn(sm.model)
}

// Check is the thread-safe version of Model.Check.
// The fragment checker may be slow; mutations wait until it returns.
func (sm *SyncModel) Check(ctx context.Context, withStimuli bool) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.model.Check(ctx, withStimuli)
}

// ToDOT is the thread-safe version of Model.ToDOT.
func (sm *SyncModel) ToDOT(opts ...DOTOption) g.String {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.model.ToDOT(opts...)
}

// ToDOTFiles is the thread-safe version of Model.ToDOTFiles.
func (sm *SyncModel) ToDOTFiles(opts ...DOTOption) g.Slice[DOTFile] {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.model.ToDOTFiles(opts...)
}

// ToRFSM is the thread-safe version of Model.ToRFSM.
func (sm *SyncModel) ToRFSM(opts ...RFSMOption) (g.String, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.model.ToRFSM(opts...)
}

// MarshalJSON implements the json.Marshaler interface for thread-safe
// serialization of the model.
func (sm *SyncModel) MarshalJSON() ([]byte, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.model.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface for thread-safe
// replacement of the model content.
func (sm *SyncModel) UnmarshalJSON(data []byte) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return sm.model.UnmarshalJSON(data)
}
