package fsmodel

import (
	"context"

	"github.com/enetx/g"
)

// Document is the read/validate/export surface shared by Model and SyncModel.
type Document interface {
	Name() g.String
	Check(ctx context.Context, withStimuli bool) error
	ToDOT(opts ...DOTOption) g.String
	ToDOTFiles(opts ...DOTOption) g.Slice[DOTFile]
	ToRFSM(opts ...RFSMOption) (g.String, error)
	MarshalJSON() ([]byte, error)
	UnmarshalJSON(data []byte) error
}

// Interface compliance check.
var _ Document = (*Model)(nil)
