package postgres

import (
	"context"
	"errors"
	"sort"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/staff-directory/internal/core/profile"
	pgdb "github.com/ogurasousui/staff-directory/internal/platform/db/postgres"
)

const (
	profileForeignKeyViolationCode = "23503"
	profileInvalidTextCode         = "22P02"
)

// ProfileRepository は profile_attributes テーブルによるプロフィール属性ストアです。
type ProfileRepository struct {
	pool pgdb.Queryer
}

// NewProfileRepository は ProfileRepository を生成します。
func NewProfileRepository(pool pgdb.Queryer) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// Get はアカウントの全属性を返します。レコードが無い場合は空の map です。
func (r *ProfileRepository) Get(ctx context.Context, accountID string) (map[string]string, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT key, value
          FROM profile_attributes
         WHERE account_id = $1
    `, accountID)
	if err != nil {
		return nil, translateProfilePgError(err)
	}
	defer rows.Close()

	attrs := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, translateProfilePgError(err)
		}
		attrs[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, translateProfilePgError(err)
	}
	return attrs, nil
}

// GetMany は複数アカウントの属性をまとめて返します。
func (r *ProfileRepository) GetMany(ctx context.Context, accountIDs []string) (map[string]map[string]string, error) {
	out := make(map[string]map[string]string, len(accountIDs))
	if len(accountIDs) == 0 {
		return out, nil
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT account_id, key, value
          FROM profile_attributes
         WHERE account_id = ANY($1::uuid[])
    `, accountIDs)
	if err != nil {
		return nil, translateProfilePgError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, key, value string
		if err := rows.Scan(&id, &key, &value); err != nil {
			return nil, translateProfilePgError(err)
		}
		if out[id] == nil {
			out[id] = make(map[string]string)
		}
		out[id][key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, translateProfilePgError(err)
	}
	return out, nil
}

// Set は指定されたキーだけを上書きします。含まれないキーは変更しません。
func (r *ProfileRepository) Set(ctx context.Context, accountID string, attrs map[string]string) error {
	if len(attrs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(attrs))
	for key := range attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	values := make([]string, 0, len(keys))
	for _, key := range keys {
		values = append(values, attrs[key])
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	if _, err := exec.Exec(ctx, `
        INSERT INTO profile_attributes (account_id, key, value, updated_at)
        SELECT $1, t.key, t.value, NOW()
          FROM unnest($2::text[], $3::text[]) AS t(key, value)
        ON CONFLICT (account_id, key)
        DO UPDATE SET value = EXCLUDED.value,
                      updated_at = EXCLUDED.updated_at
    `, accountID, keys, values); err != nil {
		return translateProfilePgError(err)
	}
	return nil
}

// DistinctDepartments は空でない部署名を重複なく昇順で返します。
func (r *ProfileRepository) DistinctDepartments(ctx context.Context) ([]string, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT DISTINCT value
          FROM profile_attributes
         WHERE key = 'department' AND value <> ''
         ORDER BY value
    `)
	if err != nil {
		return nil, translateProfilePgError(err)
	}
	defer rows.Close()

	departments := make([]string, 0)
	for rows.Next() {
		var department string
		if err := rows.Scan(&department); err != nil {
			return nil, translateProfilePgError(err)
		}
		departments = append(departments, department)
	}
	if err := rows.Err(); err != nil {
		return nil, translateProfilePgError(err)
	}
	return departments, nil
}

func translateProfilePgError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case profileForeignKeyViolationCode:
			return profile.ErrAccountNotFound
		case profileInvalidTextCode:
			return profile.ErrInvalidAccountID
		}
	}
	return err
}
