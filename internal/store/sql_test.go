package store

import (
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/adminkit/toggle/internal/models"
)

func testSchema(idType models.IDType, timestamps bool) *models.Schema {
	return &models.Schema{
		Key:           "users",
		Table:         "users",
		IDColumn:      "id",
		IDType:        idType,
		SingularLabel: "User",
		Timestamps:    timestamps,
		Fields: map[string]models.FieldType{
			"name":   models.FieldString,
			"active": models.FieldBoolean,
		},
	}
}

func TestSelectRecordSQL(t *testing.T) {
	got := selectRecordSQL(testSchema(models.IDInteger, false))
	want := `SELECT "id"::text, "active", "name" FROM "users" WHERE "id" = $1`

	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}

	got = selectRecordSQL(testSchema(models.IDUUID, false))
	want = `SELECT "id"::text, "active", "name" FROM "users" WHERE "id" = $1::uuid`

	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestSelectRecordSQL_LabelFields(t *testing.T) {
	s := testSchema(models.IDInteger, false)
	s.LabelFields = []string{"title", "name", "title"}

	got := selectRecordSQL(s)
	want := `SELECT "id"::text, "active", "name", "title" FROM "users" WHERE "id" = $1`

	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestUpdateAttributeSQL(t *testing.T) {
	got := updateAttributeSQL(testSchema(models.IDInteger, true), "active")
	want := `UPDATE "users" SET "active" = $1, updated_at = NOW() WHERE "id" = $2`

	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}

	got = updateAttributeSQL(testSchema(models.IDString, false), "active")
	want = `UPDATE "users" SET "active" = $1 WHERE "id" = $2`

	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		name     string
		idType   models.IDType
		id       string
		want     any
		notFound bool
	}{
		{name: "integer", idType: models.IDInteger, id: "42", want: int64(42)},
		{name: "integer garbage", idType: models.IDInteger, id: "abc", notFound: true},
		{name: "uuid", idType: models.IDUUID, id: "6F9619FF-8B86-D011-B42D-00C04FC964FF", want: "6f9619ff-8b86-d011-b42d-00c04fc964ff"},
		{name: "uuid garbage", idType: models.IDUUID, id: "nope", notFound: true},
		{name: "string", idType: models.IDString, id: "slug-1", want: "slug-1"},
		{name: "empty", idType: models.IDString, id: "", notFound: true},
		{name: "string too long", idType: models.IDString, id: strings.Repeat("x", models.MaxRecordIDLen+1), notFound: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseID(testSchema(tc.idType, false), tc.id)
			if tc.notFound {
				if !errors.Is(err, models.ErrRecordNotFound) {
					t.Fatalf("expected ErrRecordNotFound, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseID: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %v (%T), want %v (%T)", got, got, tc.want, tc.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	var n pgtype.Numeric
	if err := n.Scan("2.5"); err != nil {
		t.Fatalf("scan numeric: %v", err)
	}

	if got := normalize(n); got != 2.5 {
		t.Errorf("expected 2.5, got %v", got)
	}

	if got := normalize(pgtype.Numeric{}); got != nil {
		t.Errorf("expected nil for invalid numeric, got %v", got)
	}

	id := [16]byte{0x6f, 0x96, 0x19, 0xff}
	if got, ok := normalize(id).(string); !ok || len(got) != 36 {
		t.Errorf("expected uuid string, got %v", got)
	}

	if got := normalize(true); got != true {
		t.Errorf("expected passthrough, got %v", got)
	}
}

func TestBuildAuditFilter(t *testing.T) {
	where, args, next := buildAuditFilter(models.AuditQueryOpts{Resource: "users", ActorID: "u1"})

	if where != "WHERE resource = $1 AND actor_id = $2" {
		t.Errorf("unexpected where %q", where)
	}
	if len(args) != 2 || next != 3 {
		t.Errorf("unexpected args %v next %d", args, next)
	}

	where, args, next = buildAuditFilter(models.AuditQueryOpts{})
	if where != "" || len(args) != 0 || next != 1 {
		t.Errorf("expected empty filter, got %q %v %d", where, args, next)
	}
}

func TestClampLimit(t *testing.T) {
	if clampLimit(0, 50) != 50 || clampLimit(5000, 50) != maxListLimit || clampLimit(7, 50) != 7 {
		t.Error("clampLimit mismatch")
	}
}
