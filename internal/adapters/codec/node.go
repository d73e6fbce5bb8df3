package codec

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/shrink/internal/core/ports"
)

// NodeID is the unique identifier for the compressor Graft node.
const NodeID graft.ID = "adapter.compressor"

func init() {
	graft.Register(graft.Node[ports.Compressor]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Compressor, error) {
			return NewCompressor(), nil
		},
	})
}
