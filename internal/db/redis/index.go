package redis

import (
	"context"
	"errors"
	"strconv"

	"github.com/docdex-io/docdex/internal/db"
)

// CreateVectorIndex creates an HNSW cosine index over hash keys with the
// given prefix, plus TAG/NUMERIC fields for the stored metadata.
func (s *Store) CreateVectorIndex(ctx context.Context, def *db.VectorIndexDefinition) error {
	args, err := buildCreateArgs(def)
	if err != nil {
		return err
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// IndexExists probes index existence via FT.INFO; "unknown index name" means absent.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return true, nil
}

func buildCreateArgs(def *db.VectorIndexDefinition) ([]string, error) {
	if def.Name == "" {
		return nil, errors.New("index name is required")
	}
	if def.Prefix == "" {
		return nil, errors.New("key prefix is required")
	}
	if def.Dimensions <= 0 {
		return nil, errors.New("vector DIM must be positive")
	}

	args := []string{
		def.Name,
		"ON", "HASH",
		"PREFIX", "1", def.Prefix,
		"SCHEMA",
		"vector", "VECTOR", "HNSW", "6",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(def.Dimensions),
		"DISTANCE_METRIC", "COSINE",
	}

	for _, name := range def.MetaTags {
		args = append(args, name, "TAG")
	}
	for _, name := range def.MetaNums {
		args = append(args, name, "NUMERIC")
	}

	return args, nil
}
