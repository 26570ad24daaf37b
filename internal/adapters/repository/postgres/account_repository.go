package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/staff-directory/internal/core/directory"
	"github.com/ogurasousui/staff-directory/internal/core/profile"
	pgdb "github.com/ogurasousui/staff-directory/internal/platform/db/postgres"
)

const accountFrom = `
          FROM accounts a
          LEFT JOIN profile_attributes dp ON dp.account_id = a.id AND dp.key = 'department'
          LEFT JOIN profile_attributes sd ON sd.account_id = a.id AND sd.key = 'start_date'`

// AccountRepository は PostgreSQL の accounts テーブルをアカウント集合として扱う実装です。
type AccountRepository struct {
	pool pgdb.Queryer
}

// NewAccountRepository は AccountRepository を生成します。
func NewAccountRepository(pool pgdb.Queryer) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Count は Query の条件に一致するアカウント数を返します。ページ範囲は無視します。
func (r *AccountRepository) Count(ctx context.Context, q directory.Query) (int, error) {
	where, args := buildAccountWhere(q.Predicates)

	var total int
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	if err := exec.QueryRow(ctx, `
        SELECT COUNT(*)`+accountFrom+where, args...).Scan(&total); err != nil {
		return 0, translateAccountPgError(err)
	}
	return total, nil
}

// Find は Query の条件・並び順・ページ範囲でアカウントを取得します。
func (r *AccountRepository) Find(ctx context.Context, q directory.Query) ([]*directory.Account, error) {
	sql, args := buildAccountSelect(q)

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, sql, args...)
	if err != nil {
		return nil, translateAccountPgError(err)
	}
	defer rows.Close()

	accounts := make([]*directory.Account, 0, q.PageSize)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, translateAccountPgError(err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, translateAccountPgError(err)
	}
	return accounts, nil
}

// FindBySlug はスラッグでアカウントを取得します。非掲載アカウントも返します。
func (r *AccountRepository) FindBySlug(ctx context.Context, slug string) (*directory.Account, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT a.id, a.login, a.email, a.display_name, a.slug, a.roles, a.hidden
          FROM accounts a
         WHERE a.slug = $1
         LIMIT 1
    `, slug)

	a, err := scanAccount(row)
	if err != nil {
		return nil, translateAccountPgError(err)
	}
	return a, nil
}

// SetHidden はアカウントのディレクトリ掲載可否を更新します。
func (r *AccountRepository) SetHidden(ctx context.Context, id string, hidden bool) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `
        UPDATE accounts
           SET hidden = $1,
               updated_at = NOW()
         WHERE id = $2
    `, hidden, id)
	if err != nil {
		return translateProfilePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return profile.ErrAccountNotFound
	}
	return nil
}

func buildAccountSelect(q directory.Query) (string, []any) {
	where, args := buildAccountWhere(q.Predicates)

	limitPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, q.PageSize)
	offsetPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, q.Offset())

	sql := `
        SELECT a.id, a.login, a.email, a.display_name, a.slug, a.roles, a.hidden` + accountFrom + where + `
         ORDER BY ` + buildAccountOrder(q.Order) + `
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder + `
    `
	return sql, args
}

func buildAccountWhere(predicates []directory.Predicate) (string, []any) {
	args := make([]any, 0, len(predicates))
	conditions := make([]string, 0, len(predicates))

	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	for _, p := range predicates {
		switch p.Kind {
		case directory.PredicateVisibleOnly:
			conditions = append(conditions, "a.hidden = FALSE")
		case directory.PredicateDepartmentEquals:
			conditions = append(conditions, "dp.value = "+next(p.Value))
		case directory.PredicateRoleIn:
			conditions = append(conditions, "a.roles && "+next(p.Values)+"::text[]")
		case directory.PredicateTextSearch:
			placeholder := next("%" + escapeLike(p.Value) + "%")
			ors := make([]string, 0, len(p.Fields))
			for _, f := range p.Fields {
				if column, ok := searchColumns[f]; ok {
					ors = append(ors, column+" ILIKE "+placeholder)
				}
			}
			if len(ors) == 0 {
				conditions = append(conditions, "FALSE")
				continue
			}
			conditions = append(conditions, "("+strings.Join(ors, " OR ")+")")
		case directory.PredicateNamePrefix:
			conditions = append(conditions, "a.display_name ILIKE "+next(escapeLike(p.Value)+"%"))
		case directory.PredicateStartedSince:
			conditions = append(conditions, "sd.value >= "+next(p.Value))
		case directory.PredicateMatchNone:
			conditions = append(conditions, "FALSE")
		}
	}

	if len(conditions) == 0 {
		return "", args
	}
	return `
         WHERE ` + strings.Join(conditions, " AND "), args
}

var searchColumns = map[directory.SearchField]string{
	directory.SearchDisplayName: "a.display_name",
	directory.SearchEmail:       "a.email",
	directory.SearchLogin:       "a.login",
}

func buildAccountOrder(o directory.Ordering) string {
	direction := "ASC"
	if o.Direction == directory.Desc {
		direction = "DESC"
	}

	var primary string
	switch o.Field {
	case directory.OrderStartDate:
		primary = "NULLIF(sd.value, '') " + direction
	case directory.OrderDepartment:
		primary = "NULLIF(dp.value, '') " + direction
	default:
		return "lower(a.display_name) " + direction + ", a.id ASC"
	}
	if o.EmptyLast {
		primary += " NULLS LAST"
	}
	return primary + ", lower(a.display_name) ASC, a.id ASC"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(v string) string {
	return likeEscaper.Replace(v)
}

func scanAccount(row pgx.Row) (*directory.Account, error) {
	var a directory.Account
	if err := row.Scan(&a.ID, &a.Login, &a.Email, &a.DisplayName, &a.Slug, &a.Roles, &a.Hidden); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, directory.ErrEmployeeNotFound
		}
		return nil, err
	}
	if a.Roles == nil {
		a.Roles = []string{}
	}
	return &a, nil
}

func translateAccountPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return directory.ErrEmployeeNotFound
	}
	return err
}
