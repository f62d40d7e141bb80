package probe

import (
	"context"
	"fmt"

	"github.com/straye-as/preflight/internal/domain"
	"github.com/straye-as/preflight/internal/warehouse"
	"go.uber.org/zap"
)

// WarehouseProbe verifies data warehouse connectivity with a read-only
// version round-trip. The stage only runs when the warehouse check is
// enabled and configured.
type WarehouseProbe struct {
	client *warehouse.Client
	logger *zap.Logger
}

// NewWarehouseProbe creates the warehouse stage
func NewWarehouseProbe(client *warehouse.Client, logger *zap.Logger) *WarehouseProbe {
	return &WarehouseProbe{
		client: client,
		logger: logger,
	}
}

// Name returns the stage name
func (p *WarehouseProbe) Name() domain.StageName {
	return domain.StageWarehouse
}

// Run queries the warehouse server version
func (p *WarehouseProbe) Run(ctx context.Context) (string, error) {
	version, err := p.client.Version(ctx)
	if err != nil {
		return "", err
	}

	p.logger.Info("Warehouse reachable",
		zap.String("version", version),
	)

	return fmt.Sprintf("warehouse reachable (%s)", version), nil
}
