package database

import (
	"database/sql"
	"fmt"
	"log"

	sq "github.com/Masterminds/squirrel"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// ClearImageRefs nulls every reference to url in the given table/column and
// returns the number of rows touched. The cleanup job calls this per
// content table when a media record's backing file has gone missing, so the
// storefront never renders a dangling URL.
func ClearImageRefs(db *sql.DB, table, column, url string) (int64, error) {
	queryBuilder := psql.Update(table).
		Set(column, nil).
		Where(sq.Eq{column: url})

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build SQL query for ClearImageRefs on %s: %w", table, err)
	}

	result, err := db.Exec(sqlStr, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to clear image references in %s.%s: %w", table, column, err)
	}

	affected, _ := result.RowsAffected()
	if affected > 0 {
		log.Printf("database: Cleared %d dangling reference(s) in %s.%s", affected, table, column)
	}
	return affected, nil
}

// CountImageRefs reports how many rows in table/column reference url.
func CountImageRefs(db *sql.DB, table, column, url string) (int64, error) {
	queryBuilder := psql.Select("COUNT(*)").
		From(table).
		Where(sq.Eq{column: url})

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build SQL query for CountImageRefs on %s: %w", table, err)
	}

	var count int64
	if err := db.QueryRow(sqlStr, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count image references in %s.%s: %w", table, column, err)
	}
	return count, nil
}
