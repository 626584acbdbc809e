package storage

import (
	"context"

	"crucible/internal/model"
)

// Store defines persistence operations for discovery runs. Implementations
// must be safe for concurrent use; List methods return records newest first.
type Store interface {
	Init(ctx context.Context) error
	Reset(ctx context.Context) error

	SaveWalk(ctx context.Context, rec model.WalkRecord) error
	GetWalk(ctx context.Context, id string) (model.WalkRecord, bool, error)
	ListWalks(ctx context.Context) ([]model.WalkRecord, error)

	SaveEpisode(ctx context.Context, rec model.EpisodeRecord) error
	GetEpisode(ctx context.Context, id string) (model.EpisodeRecord, bool, error)
	ListEpisodes(ctx context.Context) ([]model.EpisodeRecord, error)

	SaveDoping(ctx context.Context, rec model.DopingRecord) error
	GetDoping(ctx context.Context, id string) (model.DopingRecord, bool, error)
	ListDopings(ctx context.Context) ([]model.DopingRecord, error)
}
