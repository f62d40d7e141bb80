// Package probe implements the individual connectivity stages of a
// diagnostic run. Each stage verifies one backing service end to end by
// performing a real write against it.
package probe

import (
	"context"

	"github.com/straye-as/preflight/internal/domain"
)

// Prober is a single connectivity stage. Run performs the stage against
// the live service and returns a human readable summary of what it did.
// Any error means the stage failed and the run stops.
type Prober interface {
	Name() domain.StageName
	Run(ctx context.Context) (string, error)
}
