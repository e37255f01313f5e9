package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khoahotran/portfolio-site/internal/domain/portfolio"
	"github.com/khoahotran/portfolio-site/pkg/apperror"
	"github.com/khoahotran/portfolio-site/pkg/logger"
)

// LegacyTable holds the pre-normalization portfolio: one row, one JSONB
// document with every section embedded. It is never created by migrations.
const LegacyTable = "portfolio_legacy"

type postgresLegacyRepo struct {
	conn   *Connector
	logger logger.Logger
}

func NewPostgresLegacyRepo(conn *Connector, logger logger.Logger) portfolio.LegacyRepository {
	return &postgresLegacyRepo{conn: conn, logger: logger}
}

func tableExists(ctx context.Context, q interface {
	QueryRow(context.Context, string, ...any) pgx.Row
}) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, LegacyTable).Scan(&exists)
	return exists, err
}

// undefined_table: another cleanup dropped the legacy table first.
func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}

func (r *postgresLegacyRepo) pool(ctx context.Context) (*pgxpool.Pool, context.Context, context.CancelFunc, error) {
	pool, err := r.conn.Pool(ctx)
	if err != nil {
		return nil, ctx, func() {}, err
	}
	ctx, cancel := r.conn.withTimeout(ctx)
	return pool, ctx, cancel, nil
}

func (r *postgresLegacyRepo) FindLegacy(ctx context.Context) (*portfolio.LegacyDocument, error) {
	pool, ctx, cancel, err := r.pool(ctx)
	defer cancel()
	if err != nil {
		return nil, err
	}

	exists, err := tableExists(ctx, pool)
	if err != nil {
		return nil, dbError("failed to check legacy table", err)
	}
	if !exists {
		return nil, nil
	}

	query, args, err := psql.Select("id", "data").From(LegacyTable).OrderBy("id ASC").Limit(1).ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build legacy query", err)
	}

	doc := &portfolio.LegacyDocument{}
	if err := pool.QueryRow(ctx, query, args...).Scan(&doc.ID, &doc.Data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, dbError("failed to read legacy portfolio", err)
	}
	return doc, nil
}

func (r *postgresLegacyRepo) DeleteLegacy(ctx context.Context, id int64) error {
	pool, ctx, cancel, err := r.pool(ctx)
	defer cancel()
	if err != nil {
		return err
	}
	query, args, err := psql.Delete(LegacyTable).Where("id = ?", id).ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build legacy delete", err)
	}
	if _, err := pool.Exec(ctx, query, args...); err != nil {
		return apperror.NewInternal("failed to delete legacy portfolio", err)
	}
	return nil
}

func (r *postgresLegacyRepo) DropLegacyIfEmpty(ctx context.Context) (bool, error) {
	pool, ctx, cancel, err := r.pool(ctx)
	defer cancel()
	if err != nil {
		return false, err
	}

	dropped := false
	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		exists, err := tableExists(ctx, tx)
		if err != nil || !exists {
			return err
		}
		var remaining int64
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM `+LegacyTable).Scan(&remaining); err != nil {
			return err
		}
		if remaining > 0 {
			return nil
		}
		if _, err := tx.Exec(ctx, `DROP TABLE `+LegacyTable); err != nil {
			return err
		}
		dropped = true
		return nil
	})
	if isUndefinedTable(err) {
		return false, nil
	}
	if err != nil {
		return false, apperror.NewInternal("failed to drop legacy table", err)
	}
	return dropped, nil
}

func (r *postgresLegacyRepo) Cleanup(ctx context.Context) (int64, bool, error) {
	pool, ctx, cancel, err := r.pool(ctx)
	defer cancel()
	if err != nil {
		return 0, false, err
	}

	var removed int64
	dropped := false
	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		exists, err := tableExists(ctx, tx)
		if err != nil || !exists {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM `+LegacyTable)
		if err != nil {
			return err
		}
		removed = tag.RowsAffected()
		if _, err := tx.Exec(ctx, `DROP TABLE `+LegacyTable); err != nil {
			return err
		}
		dropped = true
		return nil
	})
	if isUndefinedTable(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, apperror.NewInternal("failed to clean up legacy portfolio", err)
	}
	return removed, dropped, nil
}
