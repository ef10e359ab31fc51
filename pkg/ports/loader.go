package ports

import (
	"context"

	"github.com/aretw0/rigno/pkg/domain"
)

// DatasetLoader loads reference datasets by name.
type DatasetLoader interface {
	// Load retrieves a dataset. Returns domain.ErrDatasetNotFound for an
	// unknown name.
	Load(ctx context.Context, name string) (*domain.Dataset, error)

	// List returns the names of the datasets the loader can serve.
	List(ctx context.Context) ([]string, error)
}
