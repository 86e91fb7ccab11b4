package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/adminkit/toggle/internal/models"
)

// AuditStore provides data access for the toggle_audit_log table.
type AuditStore struct {
	Base
}

// NewAuditStore creates an AuditStore.
func NewAuditStore(base Base) *AuditStore {
	return &AuditStore{Base: base}
}

// Name identifies the store as an audit sink.
func (s *AuditStore) Name() string { return "postgres" }

// RecordAudit inserts an audit log entry.
func (s *AuditStore) RecordAudit(ctx context.Context, entry models.AuditEntry) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var detailJSON []byte
	if entry.Detail != nil {
		var err error
		detailJSON, err = json.Marshal(entry.Detail)
		if err != nil {
			return fmt.Errorf("marshaling audit detail: %w", err)
		}
	}

	_, err := s.Pool.Exec(ctx, `
		INSERT INTO toggle_audit_log (event_id, action, resource, resource_id, actor_id, guard, detail)
		VALUES (NULLIF($1, ''), $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7)`,
		entry.EventID, entry.Action, entry.Resource, entry.ResourceID, entry.ActorID, entry.Guard, detailJSON,
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}

	return nil
}

// buildAuditFilter builds WHERE clause and args from AuditQueryOpts.
func buildAuditFilter(opts models.AuditQueryOpts) (where string, args []any, nextArg int) {
	var conditions []string
	argIdx := 1

	add := func(cond string, v any) {
		conditions = append(conditions, cond+" $"+strconv.Itoa(argIdx))
		args = append(args, v)
		argIdx++
	}

	if opts.Resource != "" {
		add("resource =", opts.Resource)
	}
	if opts.ResourceID != "" {
		add("resource_id =", opts.ResourceID)
	}
	if opts.ActorID != "" {
		add("actor_id =", opts.ActorID)
	}
	if opts.Action != "" {
		add("action =", opts.Action)
	}
	if opts.Since != nil {
		add("created_at >=", *opts.Since)
	}

	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	return where, args, argIdx
}

// QueryAudit returns audit entries matching the given filters, newest first,
// and whether more entries exist past the limit.
func (s *AuditStore) QueryAudit(ctx context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // read-only, nothing to undo.

	where, args, argIdx := buildAuditFilter(opts)
	limit := clampLimit(opts.Limit, 50)

	query := fmt.Sprintf(
		"SELECT id, event_id, action, resource, resource_id, actor_id, guard, detail, created_at FROM toggle_audit_log %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		where, argIdx, argIdx+1,
	)
	args = append(args, limit+1, opts.Offset)

	entries, err := scanAuditRows(ctx, tx, query, args, s.Log)
	if err != nil {
		return nil, false, err
	}

	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}

	return entries, hasMore, nil
}

func scanAuditRows(ctx context.Context, tx pgx.Tx, query string, args []any, log *logrus.Logger) ([]models.AuditEntry, error) {
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	entries := make([]models.AuditEntry, 0)
	for rows.Next() {
		var e models.AuditEntry
		var detailJSON []byte
		var eventID, actor, guard *string

		if err := rows.Scan(&e.ID, &eventID, &e.Action, &e.Resource, &e.ResourceID, &actor, &guard, &detailJSON, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		if eventID != nil {
			e.EventID = *eventID
		}
		if actor != nil {
			e.ActorID = *actor
		}
		if guard != nil {
			e.Guard = *guard
		}
		if detailJSON != nil {
			if err := json.Unmarshal(detailJSON, &e.Detail); err != nil {
				log.WithError(err).Warn("failed to unmarshal audit detail")
			}
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit log: %w", err)
	}

	return entries, nil
}

// purgeBatchSize limits rows deleted per transaction so the purge never holds
// long locks on toggle_audit_log.
const purgeBatchSize = 5000

// PurgeOldEntries deletes audit entries older than retentionDays in batches
// and returns the number deleted.
func (s *AuditStore) PurgeOldEntries(ctx context.Context, retentionDays int) (int, error) {
	var totalDeleted int

	for {
		batchCtx, cancel := withTimeout(ctx)

		deleted, err := s.purgeOldEntriesBatch(batchCtx, retentionDays)
		cancel()

		if err != nil {
			return totalDeleted, err
		}

		totalDeleted += deleted
		if deleted < purgeBatchSize {
			break
		}
	}

	return totalDeleted, nil
}

func (s *AuditStore) purgeOldEntriesBatch(ctx context.Context, retentionDays int) (int, error) {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on early return.

	tag, err := tx.Exec(ctx,
		`DELETE FROM toggle_audit_log WHERE ctid IN (
			SELECT ctid FROM toggle_audit_log
			WHERE created_at < NOW() - make_interval(days => $1)
			LIMIT $2
		)`,
		retentionDays, purgeBatchSize,
	)
	if err != nil {
		return 0, fmt.Errorf("purging audit entries: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	return int(tag.RowsAffected()), nil
}
