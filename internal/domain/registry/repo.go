package registry

import (
	"context"

	"github.com/premiumcare/premiumcare/internal/platform/docstore"
)

// Store loads and saves the whole registry document at once.
type Store interface {
	Load(ctx context.Context) (*docstore.Document, error)
	Save(ctx context.Context, doc *docstore.Document) error
}
