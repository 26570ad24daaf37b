package postgres

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/staff-directory/internal/core/profile"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

const testAccountID = "0b8f8a5e-6c1d-4c8e-9a47-2f7a9c1d3e55"

func TestProfileRepository_Get(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewProfileRepository(mock)

	mock.ExpectQuery(`SELECT key, value\s+FROM profile_attributes`).
		WithArgs(testAccountID).
		WillReturnRows(pgxmock.NewRows([]string{"key", "value"}).
			AddRow(profile.KeyDepartment, "Engineering").
			AddRow(profile.KeyStartDate, "2021-04"))

	attrs, err := repo.Get(context.Background(), testAccountID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	want := map[string]string{profile.KeyDepartment: "Engineering", profile.KeyStartDate: "2021-04"}
	if !reflect.DeepEqual(attrs, want) {
		t.Fatalf("attrs = %v", attrs)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestProfileRepository_GetMany(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewProfileRepository(mock)
	ids := []string{"acc-1", "acc-2"}

	mock.ExpectQuery(`WHERE account_id = ANY\(\$1::uuid\[\]\)`).
		WithArgs(ids).
		WillReturnRows(pgxmock.NewRows([]string{"account_id", "key", "value"}).
			AddRow("acc-1", profile.KeyDepartment, "Sales").
			AddRow("acc-1", profile.KeyJobTitle, "Lead"))

	got, err := repo.GetMany(context.Background(), ids)
	if err != nil {
		t.Fatalf("GetMany returned error: %v", err)
	}
	if got["acc-1"][profile.KeyJobTitle] != "Lead" || len(got["acc-2"]) != 0 {
		t.Fatalf("unexpected attributes: %v", got)
	}

	empty, err := repo.GetMany(context.Background(), nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty result without query, got %v / %v", empty, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestProfileRepository_SetUpsertsSortedKeys(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewProfileRepository(mock)

	mock.ExpectExec(`ON CONFLICT \(account_id, key\)`).
		WithArgs(testAccountID, []string{"department", "job_title"}, []string{"Sales", "Lead"}).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))

	if err := repo.Set(context.Background(), testAccountID, map[string]string{
		profile.KeyJobTitle:   "Lead",
		profile.KeyDepartment: "Sales",
	}); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	if err := repo.Set(context.Background(), testAccountID, nil); err != nil {
		t.Fatalf("empty Set returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestProfileRepository_SetUnknownAccount(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewProfileRepository(mock)

	mock.ExpectExec(`INSERT INTO profile_attributes`).
		WithArgs(testAccountID, []string{"bio"}, []string{"hi"}).
		WillReturnError(&pgconn.PgError{Code: profileForeignKeyViolationCode})

	err = repo.Set(context.Background(), testAccountID, map[string]string{profile.KeyBio: "hi"})
	if !errors.Is(err, profile.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestProfileRepository_DistinctDepartments(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewProfileRepository(mock)

	mock.ExpectQuery(`SELECT DISTINCT value`).
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow("Engineering").AddRow("Sales"))

	got, err := repo.DistinctDepartments(context.Background())
	if err != nil {
		t.Fatalf("DistinctDepartments returned error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"Engineering", "Sales"}) {
		t.Fatalf("departments = %v", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTranslateProfilePgError(t *testing.T) {
	t.Parallel()

	if !errors.Is(translateProfilePgError(&pgconn.PgError{Code: profileInvalidTextCode}), profile.ErrInvalidAccountID) {
		t.Fatalf("expected invalid text to map to ErrInvalidAccountID")
	}
	other := errors.New("other")
	if translateProfilePgError(other) != other {
		t.Fatalf("unexpected translation for generic error")
	}
}
