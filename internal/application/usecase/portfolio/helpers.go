package portfolio

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/portfolio-site/internal/domain/portfolio"
	"github.com/khoahotran/portfolio-site/pkg/apperror"
)

func newPortfolio(now time.Time) *portfolio.Portfolio {
	p := &portfolio.Portfolio{ID: uuid.New()}
	p.Touch(now)
	return p
}

// seedDefaults overwrites p with the default document and stores it with
// every section replaced.
func seedDefaults(ctx context.Context, repo portfolio.Repository, p *portfolio.Portfolio) (portfolio.Document, error) {
	doc := portfolio.DefaultDocument()
	p.Personal = doc.Personal
	p.Social = doc.Social
	p.IsCustomized = false
	portfolio.Normalize(&doc, portfolio.AllSections)
	if err := repo.Save(ctx, p, doc, portfolio.AllSections); err != nil {
		return portfolio.Document{}, err
	}
	return doc, nil
}

func unavailable(err error) error {
	return apperror.NewUnavailable(
		"Database not connected",
		"Set DB_DSN (or DATABASE_URL) to a reachable PostgreSQL instance",
		err,
	)
}

// repoError keeps an unreachable database reported as unavailable and
// wraps everything else as an internal error.
func repoError(details string, err error) error {
	if errors.Is(err, apperror.ErrUnavailable) {
		return err
	}
	return apperror.NewInternal(details, err)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// TimestampLayout matches JavaScript's Date.prototype.toISOString.
const TimestampLayout = "2006-01-02T15:04:05.000Z"
