package implementation

import (
	"context"
	"errors"

	"anitrack-bot/internal/apperror"
	"anitrack-bot/internal/entity"
	"anitrack-bot/internal/mapper"
	"anitrack-bot/internal/model"
	"anitrack-bot/internal/repository/contract"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type WatchlistRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.WatchlistMapper
}

func NewWatchlistRepository(db *gorm.DB) contract.WatchlistRepository {
	return &WatchlistRepositoryImpl{
		db:     db,
		mapper: mapper.NewWatchlistMapper(),
	}
}

func (r *WatchlistRepositoryImpl) Add(ctx context.Context, entry *entity.WatchlistEntry) (*entity.WatchlistEntry, error) {
	m := r.mapper.ToModel(entry)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		// The composite unique index on (user_id, title) is the arbiter for
		// concurrent adds; exactly one insert wins.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.ErrAlreadyExists
		}
		return nil, apperror.Transient(err)
	}
	return r.mapper.ToEntity(m), nil
}

func (r *WatchlistRepositoryImpl) Get(ctx context.Context, userId, title string) (*entity.WatchlistEntry, error) {
	var m model.WatchlistEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND title = ?", userId, title).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, apperror.Transient(err)
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *WatchlistRepositoryImpl) Update(ctx context.Context, userId, title string, patch entity.EntryPatch) (bool, error) {
	if patch.IsEmpty() {
		// Still distinguish a missing key from an empty patch.
		if _, err := r.Get(ctx, userId, title); err != nil {
			return false, err
		}
		return false, nil
	}

	current, err := r.Get(ctx, userId, title)
	if err != nil {
		return false, err
	}
	probe := *current
	changed := patch.ApplyTo(&probe)

	// The mutation itself is a single UPDATE touching only patched columns,
	// so concurrent patches on the same key stay field-level last-write-wins.
	res := r.db.WithContext(ctx).
		Model(&model.WatchlistEntry{}).
		Where("user_id = ? AND title = ?", userId, title).
		Updates(patchColumns(patch))
	if res.Error != nil {
		return false, apperror.Transient(res.Error)
	}
	if res.RowsAffected == 0 {
		return false, apperror.ErrNotFound
	}
	return changed, nil
}

func (r *WatchlistRepositoryImpl) Delete(ctx context.Context, userId, title string) error {
	// Favorite protection rides inside the DELETE predicate so the check and
	// the removal cannot interleave with a concurrent favorite toggle.
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND title = ? AND is_favorite = false", userId, title).
		Delete(&model.WatchlistEntry{})
	if res.Error != nil {
		return apperror.Transient(res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	if _, err := r.Get(ctx, userId, title); err != nil {
		return err
	}
	return apperror.ErrProtected
}

func (r *WatchlistRepositoryImpl) List(ctx context.Context, userId string, filter entity.ListFilter) ([]*entity.WatchlistEntry, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userId)
	if filter.FavoritesOnly {
		query = query.Where("is_favorite = true")
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}

	var models []*model.WatchlistEntry
	if err := query.Find(&models).Error; err != nil {
		return nil, apperror.Transient(err)
	}
	return r.mapper.ToEntities(models), nil
}

func patchColumns(p entity.EntryPatch) map[string]interface{} {
	cols := make(map[string]interface{})
	if p.Status != nil {
		cols["status"] = string(*p.Status)
	}
	if p.EpisodesWatched != nil {
		cols["episodes_watched"] = *p.EpisodesWatched
	}
	if p.TotalEpisodes != nil {
		cols["total_episodes"] = *p.TotalEpisodes
	}
	if p.IsFavorite != nil {
		cols["is_favorite"] = *p.IsFavorite
	}
	if p.StartDate != nil {
		cols["start_date"] = datatypes.Date(*p.StartDate)
	}
	if p.CompletionDate != nil {
		cols["completion_date"] = datatypes.Date(*p.CompletionDate)
	}
	if p.Rating != nil {
		cols["rating"] = *p.Rating
	}
	if p.SourceLink != nil {
		cols["source_link"] = *p.SourceLink
	}
	if p.Notes != nil {
		cols["notes"] = *p.Notes
	}
	return cols
}
