package attribute

import (
	"context"

	"github.com/eecar/partsearch/internal/domain/part"
)

// Catalog lists every part record.
type Catalog interface {
	List(ctx context.Context) ([]part.Part, error)
}
