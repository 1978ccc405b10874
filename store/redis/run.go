package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/harvest"
	"github.com/xraph/harvest/collection"
	"github.com/xraph/harvest/id"
)

// maxTxRetries bounds the optimistic retry loop in UpdateRun. WATCH
// conflicts only happen when two writers hit the same run at once, so
// a handful of retries is plenty.
const maxTxRetries = 16

// CreateRun stores the run as a Hash and adds it to the ID index.
func (s *Store) CreateRun(ctx context.Context, r *collection.Run) error {
	rID := r.ID.String()
	key := runKey(rID)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("harvest/redis: create check exists: %w", err)
	}
	if exists > 0 {
		return harvest.ErrRunAlreadyExists
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, runToMap(r))
	pipe.SAdd(ctx, runIDsKey, rID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("harvest/redis: create run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, runID id.CollectionID) (*collection.Run, error) {
	return s.getRunByKey(ctx, runKey(runID.String()))
}

// UpdateRun applies fn atomically using a WATCH-based optimistic
// transaction: the run hash is watched, read, mutated, and written back
// in a MULTI/EXEC; a concurrent write to the same run aborts the EXEC
// and the whole read-modify-write retries against the fresh record.
// Writers of distinct runs never conflict.
func (s *Store) UpdateRun(ctx context.Context, runID id.CollectionID, fn collection.Mutator) (*collection.Run, error) {
	key := runKey(runID.String())

	var updated *collection.Run
	txn := func(tx *goredis.Tx) error {
		vals, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("harvest/redis: update read run: %w", err)
		}
		if len(vals) == 0 {
			return harvest.ErrRunNotFound
		}

		r, err := mapToRun(vals)
		if err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
		r.Touch()
		updated = r

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.HSet(ctx, key, runToMap(r))
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.client.Watch(ctx, txn, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("harvest/redis: update run %s: too much contention: %w", runID, goredis.TxFailedErr)
}

// ListRunsByState returns runs matching the given state.
func (s *Store) ListRunsByState(ctx context.Context, state collection.State, opts collection.ListOpts) ([]*collection.Run, error) {
	ids, err := s.client.SMembers(ctx, runIDsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("harvest/redis: list runs smembers: %w", err)
	}

	runs := make([]*collection.Run, 0, len(ids))
	for _, rID := range ids {
		r, getErr := s.getRunByKey(ctx, runKey(rID))
		if getErr != nil {
			continue // skip missing
		}
		if r.State != state {
			continue
		}
		if opts.OwnerID != "" && r.OwnerID != opts.OwnerID {
			continue
		}
		runs = append(runs, r)
	}

	if opts.Offset > 0 && opts.Offset < len(runs) {
		runs = runs[opts.Offset:]
	} else if opts.Offset >= len(runs) && opts.Offset > 0 {
		return nil, nil
	}
	if opts.Limit > 0 && opts.Limit < len(runs) {
		runs = runs[:opts.Limit]
	}
	return runs, nil
}

// CountRuns returns the number of runs matching the given options.
func (s *Store) CountRuns(ctx context.Context, opts collection.CountOpts) (int64, error) {
	ids, err := s.client.SMembers(ctx, runIDsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("harvest/redis: count smembers: %w", err)
	}

	var count int64
	for _, rID := range ids {
		r, getErr := s.getRunByKey(ctx, runKey(rID))
		if getErr != nil {
			continue
		}
		if opts.State != "" && r.State != opts.State {
			continue
		}
		if opts.OwnerID != "" && r.OwnerID != opts.OwnerID {
			continue
		}
		count++
	}
	return count, nil
}

// ── helpers ──

func (s *Store) getRunByKey(ctx context.Context, key string) (*collection.Run, error) {
	vals, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("harvest/redis: get run: %w", err)
	}
	if len(vals) == 0 {
		return nil, harvest.ErrRunNotFound
	}
	return mapToRun(vals)
}

func runToMap(r *collection.Run) map[string]interface{} {
	m := map[string]interface{}{
		"id":                 r.ID.String(),
		"owner_id":           r.OwnerID,
		"type":               string(r.Type),
		"services":           marshalServices(r.Services),
		"state":              string(r.State),
		"progress_percent":   strconv.Itoa(r.ProgressPercent),
		"records_processed":  strconv.Itoa(r.RecordsProcessed),
		"estimated_duration": r.EstimatedDuration,
		"last_error":         r.LastError,
		"created_at":         r.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":         r.UpdatedAt.Format(time.RFC3339Nano),
	}
	if r.CompletedAt != nil {
		m["completed_at"] = r.CompletedAt.Format(time.RFC3339Nano)
	}
	return m
}

func mapToRun(m map[string]string) (*collection.Run, error) {
	rID, err := id.ParseCollectionID(m["id"])
	if err != nil {
		return nil, fmt.Errorf("harvest/redis: parse run id: %w", err)
	}

	progress, _ := strconv.Atoi(m["progress_percent"])  //nolint:errcheck // best-effort parse from trusted Redis data
	records, _ := strconv.Atoi(m["records_processed"]) //nolint:errcheck // best-effort parse from trusted Redis data

	createdAt, _ := time.Parse(time.RFC3339Nano, m["created_at"]) //nolint:errcheck // best-effort parse from trusted Redis data
	updatedAt, _ := time.Parse(time.RFC3339Nano, m["updated_at"]) //nolint:errcheck // best-effort parse from trusted Redis data

	r := &collection.Run{
		Entity: harvest.Entity{
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
		},
		ID:                rID,
		OwnerID:           m["owner_id"],
		Type:              collection.Type(m["type"]),
		Services:          unmarshalServices(m["services"]),
		State:             collection.State(m["state"]),
		ProgressPercent:   progress,
		RecordsProcessed:  records,
		EstimatedDuration: m["estimated_duration"],
		LastError:         m["last_error"],
	}

	if v := m["completed_at"]; v != "" {
		t, _ := time.Parse(time.RFC3339Nano, v) //nolint:errcheck // best-effort parse from trusted Redis data
		r.CompletedAt = &t
	}

	return r, nil
}

// marshalServices encodes the service list as a JSON array of strings.
func marshalServices(svcs []collection.Service) string {
	b, _ := json.Marshal(svcs) //nolint:errcheck // marshal cannot fail for a string slice
	return string(b)
}

func unmarshalServices(s string) []collection.Service {
	if s == "" || s == "null" {
		return nil
	}
	var out []collection.Service
	_ = json.Unmarshal([]byte(s), &out) //nolint:errcheck // best-effort parse from trusted Redis data
	return out
}
