package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/adminkit/toggle/internal/models"
)

// RecordStore reads and writes rows of host-application tables described by
// a models.Schema. Only declared columns are ever selected or updated.
type RecordStore struct {
	Base
}

// NewRecordStore creates a RecordStore.
func NewRecordStore(base Base) *RecordStore {
	return &RecordStore{Base: base}
}

// ParseID converts a path identifier to the schema's key type. Identifiers
// that cannot be converted cannot match a row and report ErrRecordNotFound.
func ParseID(schema *models.Schema, id string) (any, error) {
	if id == "" || len(id) > models.MaxRecordIDLen {
		return nil, models.ErrRecordNotFound
	}

	switch schema.IDType {
	case models.IDInteger:
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("id %q is not an integer: %w", id, models.ErrRecordNotFound)
		}
		return n, nil
	case models.IDUUID:
		u, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("id %q is not a uuid: %w", id, models.ErrRecordNotFound)
		}
		return u.String(), nil
	default:
		return id, nil
	}
}

// selectRecordSQL builds the lookup query for schema.
func selectRecordSQL(schema *models.Schema) string {
	names := schema.ReadColumns()
	cols := make([]string, 0, len(names)+1)
	cols = append(cols, pgx.Identifier{schema.IDColumn}.Sanitize()+"::text")

	for _, name := range names {
		cols = append(cols, pgx.Identifier{name}.Sanitize())
	}

	idCol := pgx.Identifier{schema.IDColumn}.Sanitize()
	cast := ""
	if schema.IDType == models.IDUUID {
		cast = "::uuid"
	}

	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1%s",
		strings.Join(cols, ", "), pgx.Identifier{schema.Table}.Sanitize(), idCol, cast)
}

// updateAttributeSQL builds the single-column update for schema.
func updateAttributeSQL(schema *models.Schema, attribute string) string {
	set := pgx.Identifier{attribute}.Sanitize() + " = $1"
	if schema.Timestamps {
		set += ", updated_at = NOW()"
	}

	cast := ""
	if schema.IDType == models.IDUUID {
		cast = "::uuid"
	}

	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = $2%s",
		pgx.Identifier{schema.Table}.Sanitize(), set, pgx.Identifier{schema.IDColumn}.Sanitize(), cast)
}

// FindRecord loads the declared attributes and label columns of one row.
func (s *RecordStore) FindRecord(ctx context.Context, schema *models.Schema, id string) (*models.Record, error) {
	key, err := ParseID(schema, id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx, selectRecordSQL(schema), key)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", schema.Key, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("querying %s: %w", schema.Key, err)
		}
		return nil, models.ErrRecordNotFound
	}

	values, err := rows.Values()
	if err != nil {
		return nil, fmt.Errorf("reading %s row: %w", schema.Key, err)
	}

	names := schema.ReadColumns()
	if len(values) != len(names)+1 {
		return nil, fmt.Errorf("reading %s row: got %d columns, want %d", schema.Key, len(values), len(names)+1)
	}

	recID, _ := values[0].(string)
	if recID == "" {
		recID = id
	}

	attrs := make(map[string]models.Value, len(names))
	for i, name := range names {
		attrs[name] = models.NewValue(normalize(values[i+1]))
	}

	return models.NewRecord(schema.Key, recID, attrs), nil
}

// UpdateAttribute writes rec's current value of attribute back to its row.
func (s *RecordStore) UpdateAttribute(ctx context.Context, schema *models.Schema, rec *models.Record, attribute string) error {
	if _, ok := schema.Field(attribute); !ok {
		return fmt.Errorf("%s.%s: %w", schema.Key, attribute, models.ErrUnknownAttribute)
	}

	key, err := ParseID(schema, rec.ID)
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx, updateAttributeSQL(schema, attribute), rec.Get(attribute).Raw(), key)
	if err != nil {
		return fmt.Errorf("updating %s.%s: %w", schema.Key, attribute, err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrRecordNotFound
	}

	return nil
}

// normalize converts pgx decoded values that models.NewValue does not know.
func normalize(v any) any {
	switch x := v.(type) {
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case [16]byte:
		return uuid.UUID(x).String()
	default:
		return v
	}
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, models.ErrRecordNotFound) || errors.Is(err, pgx.ErrNoRows)
}
