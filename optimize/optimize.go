// Package optimize shrinks a document graph without changing its meaning.
package optimize

import (
	"context"
	"fmt"

	"github.com/Vibes-INS/ins-pdf-utils/ir/raw"
)

type Config struct {
	CompressStreams  bool
	PruneUnreachable bool
}

// DefaultConfig enables everything the merge pipeline wants before encoding.
func DefaultConfig() Config {
	return Config{CompressStreams: true, PruneUnreachable: true}
}

type Optimizer struct {
	config Config
}

func New(config Config) *Optimizer {
	return &Optimizer{config: config}
}

// Optimize mutates doc in place.
func (o *Optimizer) Optimize(ctx context.Context, doc *raw.Document) error {
	if o.config.PruneUnreachable {
		o.pruneUnreachable(doc)
	}
	if o.config.CompressStreams {
		if err := o.compressStreams(ctx, doc); err != nil {
			return fmt.Errorf("compress streams: %w", err)
		}
	}
	return nil
}
