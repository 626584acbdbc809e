package storage

import (
	"encoding/json"
	"errors"

	"crucible/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeWalk(rec model.WalkRecord) ([]byte, error) {
	return json.Marshal(rec)
}

func DecodeWalk(data []byte) (model.WalkRecord, error) {
	var rec model.WalkRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.WalkRecord{}, err
	}
	if err := checkVersion(rec.VersionedRecord); err != nil {
		return model.WalkRecord{}, err
	}
	return rec, nil
}

func EncodeEpisode(rec model.EpisodeRecord) ([]byte, error) {
	return json.Marshal(rec)
}

func DecodeEpisode(data []byte) (model.EpisodeRecord, error) {
	var rec model.EpisodeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.EpisodeRecord{}, err
	}
	if err := checkVersion(rec.VersionedRecord); err != nil {
		return model.EpisodeRecord{}, err
	}
	return rec, nil
}

func EncodeDoping(rec model.DopingRecord) ([]byte, error) {
	return json.Marshal(rec)
}

func DecodeDoping(data []byte) (model.DopingRecord, error) {
	var rec model.DopingRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.DopingRecord{}, err
	}
	if err := checkVersion(rec.VersionedRecord); err != nil {
		return model.DopingRecord{}, err
	}
	return rec, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
