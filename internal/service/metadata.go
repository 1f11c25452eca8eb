package service

import (
	"context"

	"anitrack-bot/internal/entity"
)

// MetadataClient is the external anime metadata collaborator. Implementations
// return apperror.ErrNotFound when the service knows no such title and wrap
// transport-level failures in apperror.TransientError.
type MetadataClient interface {
	FetchByTitle(ctx context.Context, title string) (*entity.MetadataRecord, error)
}
