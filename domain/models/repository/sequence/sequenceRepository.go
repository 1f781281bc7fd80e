package sequence_repository

import (
	"context"
	"gitlab.faza.io/order-project/restaurant-service/domain/models/repository"
)

// ISequenceRepository hands out monotonically increasing sequence values
// backed by a counters collection. Next is atomic across concurrent callers.
type ISequenceRepository interface {
	Next(ctx context.Context, name string) (uint64, repository.IRepoError)
}
