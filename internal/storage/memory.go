package storage

import (
	"context"
	"sort"
	"sync"

	"crucible/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	walks       map[string]model.WalkRecord
	episodes    map[string]model.EpisodeRecord
	dopings     map[string]model.DopingRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.walks = make(map[string]model.WalkRecord)
	s.episodes = make(map[string]model.EpisodeRecord)
	s.dopings = make(map[string]model.DopingRecord)
	return nil
}

func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.walks = make(map[string]model.WalkRecord)
	s.episodes = make(map[string]model.EpisodeRecord)
	s.dopings = make(map[string]model.DopingRecord)
	return nil
}

func (s *MemoryStore) SaveWalk(_ context.Context, rec model.WalkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.walks[rec.ID] = cloneWalkRecord(rec)
	return nil
}

func (s *MemoryStore) GetWalk(_ context.Context, id string) (model.WalkRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.walks[id]
	if !ok {
		return model.WalkRecord{}, false, nil
	}
	return cloneWalkRecord(rec), true, nil
}

func (s *MemoryStore) ListWalks(_ context.Context) ([]model.WalkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.WalkRecord, 0, len(s.walks))
	for _, rec := range s.walks {
		out = append(out, cloneWalkRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAtUTC != out[j].CreatedAtUTC {
			return out[i].CreatedAtUTC > out[j].CreatedAtUTC
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) SaveEpisode(_ context.Context, rec model.EpisodeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.episodes[rec.ID] = cloneEpisodeRecord(rec)
	return nil
}

func (s *MemoryStore) GetEpisode(_ context.Context, id string) (model.EpisodeRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.episodes[id]
	if !ok {
		return model.EpisodeRecord{}, false, nil
	}
	return cloneEpisodeRecord(rec), true, nil
}

func (s *MemoryStore) ListEpisodes(_ context.Context) ([]model.EpisodeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.EpisodeRecord, 0, len(s.episodes))
	for _, rec := range s.episodes {
		out = append(out, cloneEpisodeRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAtUTC != out[j].CreatedAtUTC {
			return out[i].CreatedAtUTC > out[j].CreatedAtUTC
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) SaveDoping(_ context.Context, rec model.DopingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dopings[rec.ID] = cloneDopingRecord(rec)
	return nil
}

func (s *MemoryStore) GetDoping(_ context.Context, id string) (model.DopingRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.dopings[id]
	if !ok {
		return model.DopingRecord{}, false, nil
	}
	return cloneDopingRecord(rec), true, nil
}

func (s *MemoryStore) ListDopings(_ context.Context) ([]model.DopingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.DopingRecord, 0, len(s.dopings))
	for _, rec := range s.dopings {
		out = append(out, cloneDopingRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAtUTC != out[j].CreatedAtUTC {
			return out[i].CreatedAtUTC > out[j].CreatedAtUTC
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func cloneWalkRecord(rec model.WalkRecord) model.WalkRecord {
	out := rec
	out.Steps = append([]model.WalkStep(nil), rec.Steps...)
	return out
}

func cloneEpisodeRecord(rec model.EpisodeRecord) model.EpisodeRecord {
	out := rec
	out.FinalObs = append([]float64(nil), rec.FinalObs...)
	if rec.StartTemp != nil {
		temp := *rec.StartTemp
		out.StartTemp = &temp
	}
	return out
}

func cloneDopingRecord(rec model.DopingRecord) model.DopingRecord {
	out := rec
	out.Observations = append([]model.DopingObservation(nil), rec.Observations...)
	out.Validation.Findings = append([]string(nil), rec.Validation.Findings...)
	return out
}
