package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/khoahotran/portfolio-site/internal/domain/portfolio"
	"github.com/khoahotran/portfolio-site/pkg/apperror"
	"github.com/khoahotran/portfolio-site/pkg/logger"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type sectionTable struct {
	name    string
	columns []string
}

// Every section table starts with id, portfolio_id, sort_order.
var sectionTables = map[portfolio.Section]sectionTable{
	portfolio.SectionSkills:       {"portfolio_skills", []string{"id", "portfolio_id", "sort_order", "name", "level"}},
	portfolio.SectionProjects:     {"portfolio_projects", []string{"id", "portfolio_id", "sort_order", "title", "description", "images", "technologies", "github", "live"}},
	portfolio.SectionExperience:   {"portfolio_experience", []string{"id", "portfolio_id", "sort_order", "role", "company", "period", "description"}},
	portfolio.SectionEducation:    {"portfolio_education", []string{"id", "portfolio_id", "sort_order", "degree", "institution", "period"}},
	portfolio.SectionCertificates: {"portfolio_certificates", []string{"id", "portfolio_id", "sort_order", "name", "issuer", "issued_on", "url", "image"}},
	portfolio.SectionGallery:      {"portfolio_gallery", []string{"id", "portfolio_id", "sort_order", "title", "description", "url"}},
}

type postgresPortfolioRepo struct {
	conn   *Connector
	logger logger.Logger
}

func NewPostgresPortfolioRepo(conn *Connector, logger logger.Logger) portfolio.Repository {
	return &postgresPortfolioRepo{conn: conn, logger: logger}
}

func (r *postgresPortfolioRepo) Ready(ctx context.Context) error {
	return r.conn.Ping(ctx)
}

func (r *postgresPortfolioRepo) Find(ctx context.Context) (*portfolio.Portfolio, error) {
	pool, err := r.conn.Pool(ctx)
	if err != nil {
		return nil, dbError("failed to open database pool", err)
	}
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	query, args, err := psql.
		Select("id", "personal", "social", "is_customized", "created_at", "updated_at").
		From("portfolios").
		OrderBy("created_at ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build portfolio query", err)
	}

	p := &portfolio.Portfolio{}
	var personalBytes, socialBytes []byte
	err = pool.QueryRow(ctx, query, args...).Scan(
		&p.ID,
		&personalBytes,
		&socialBytes,
		&p.IsCustomized,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, portfolio.ErrPortfolioNotFound
		}
		return nil, dbError("failed to query portfolio", err)
	}

	if err := json.Unmarshal(personalBytes, &p.Personal); err != nil {
		r.logger.Warn("Failed to unmarshal personal", zap.String("portfolio_id", p.ID.String()), zap.Error(err))
	}
	if err := json.Unmarshal(socialBytes, &p.Social); err != nil {
		r.logger.Warn("Failed to unmarshal social", zap.String("portfolio_id", p.ID.String()), zap.Error(err))
	}
	return p, nil
}

func (r *postgresPortfolioRepo) LoadSection(ctx context.Context, portfolioID uuid.UUID, section portfolio.Section, doc *portfolio.Document) error {
	table, ok := sectionTables[section]
	if !ok {
		return apperror.NewInvalidInput(fmt.Sprintf("unknown section %q", section), nil)
	}
	pool, err := r.conn.Pool(ctx)
	if err != nil {
		return dbError("failed to open database pool", err)
	}
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	query, args, err := psql.
		Select(table.columns...).
		From(table.name).
		Where(sq.Eq{"portfolio_id": portfolioID}).
		OrderBy("sort_order ASC").
		ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build section query", err)
	}

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return dbError("failed to query "+string(section), err)
	}
	defer rows.Close()

	if err := scanSection(rows, section, doc); err != nil {
		return apperror.NewInternal("failed to scan "+string(section), err)
	}
	return nil
}

func scanSection(rows pgx.Rows, section portfolio.Section, doc *portfolio.Document) error {
	var pid uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		var err error
		switch section {
		case portfolio.SectionSkills:
			var v portfolio.Skill
			err = rows.Scan(&id, &pid, &v.Order, &v.Name, &v.Level)
			v.ID = id.String()
			doc.Skills = append(doc.Skills, v)
		case portfolio.SectionProjects:
			var v portfolio.Project
			err = rows.Scan(&id, &pid, &v.Order, &v.Title, &v.Description, &v.Images, &v.Technologies, &v.GitHub, &v.Live)
			v.ID = id.String()
			if v.Images == nil {
				v.Images = []string{}
			}
			if v.Technologies == nil {
				v.Technologies = []string{}
			}
			doc.Projects = append(doc.Projects, v)
		case portfolio.SectionExperience:
			var v portfolio.Experience
			err = rows.Scan(&id, &pid, &v.Order, &v.Role, &v.Company, &v.Period, &v.Description)
			v.ID = id.String()
			doc.Experience = append(doc.Experience, v)
		case portfolio.SectionEducation:
			var v portfolio.Education
			err = rows.Scan(&id, &pid, &v.Order, &v.Degree, &v.Institution, &v.Period)
			v.ID = id.String()
			doc.Education = append(doc.Education, v)
		case portfolio.SectionCertificates:
			var v portfolio.Certificate
			err = rows.Scan(&id, &pid, &v.Order, &v.Name, &v.Issuer, &v.Date, &v.URL, &v.Image)
			v.ID = id.String()
			doc.Certificates = append(doc.Certificates, v)
		case portfolio.SectionGallery:
			var v portfolio.GalleryItem
			err = rows.Scan(&id, &pid, &v.Order, &v.Title, &v.Description, &v.URL)
			v.ID = id.String()
			doc.Gallery = append(doc.Gallery, v)
		}
		if err != nil {
			return err
		}
	}
	return rows.Err()
}

func sectionRows(doc portfolio.Document, section portfolio.Section, pid uuid.UUID) ([][]any, error) {
	var rows [][]any
	add := func(id string, values ...any) error {
		parsed, err := uuid.Parse(id)
		if err != nil {
			return fmt.Errorf("%s: invalid id %q: %w", section, id, err)
		}
		rows = append(rows, append([]any{parsed, pid}, values...))
		return nil
	}

	var err error
	switch section {
	case portfolio.SectionSkills:
		for _, v := range doc.Skills {
			if err = add(v.ID, v.Order, v.Name, v.Level); err != nil {
				return nil, err
			}
		}
	case portfolio.SectionProjects:
		for _, v := range doc.Projects {
			if err = add(v.ID, v.Order, v.Title, v.Description, v.Images, v.Technologies, v.GitHub, v.Live); err != nil {
				return nil, err
			}
		}
	case portfolio.SectionExperience:
		for _, v := range doc.Experience {
			if err = add(v.ID, v.Order, v.Role, v.Company, v.Period, v.Description); err != nil {
				return nil, err
			}
		}
	case portfolio.SectionEducation:
		for _, v := range doc.Education {
			if err = add(v.ID, v.Order, v.Degree, v.Institution, v.Period); err != nil {
				return nil, err
			}
		}
	case portfolio.SectionCertificates:
		for _, v := range doc.Certificates {
			if err = add(v.ID, v.Order, v.Name, v.Issuer, v.Date, v.URL, v.Image); err != nil {
				return nil, err
			}
		}
	case portfolio.SectionGallery:
		for _, v := range doc.Gallery {
			if err = add(v.ID, v.Order, v.Title, v.Description, v.URL); err != nil {
				return nil, err
			}
		}
	}
	return rows, nil
}

const upsertPortfolioSQL = `
	INSERT INTO portfolios (id, personal, social, is_customized, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (singleton) DO UPDATE SET
		personal = EXCLUDED.personal,
		social = EXCLUDED.social,
		is_customized = EXCLUDED.is_customized,
		updated_at = EXCLUDED.updated_at
	RETURNING id, created_at
`

// Save upserts the singleton row and replaces each listed section inside one
// transaction, so readers never observe a half-written section.
func (r *postgresPortfolioRepo) Save(ctx context.Context, p *portfolio.Portfolio, doc portfolio.Document, sections []portfolio.Section) error {
	pool, err := r.conn.Pool(ctx)
	if err != nil {
		return apperror.NewUnavailable("Database not connected", "", err)
	}
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	personalBytes, err := json.Marshal(p.Personal)
	if err != nil {
		return apperror.NewInternal("failed to marshal personal", err)
	}
	socialBytes, err := json.Marshal(p.Social)
	if err != nil {
		return apperror.NewInternal("failed to marshal social", err)
	}

	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		var id uuid.UUID
		if err := tx.QueryRow(ctx, upsertPortfolioSQL,
			p.ID, personalBytes, socialBytes, p.IsCustomized, p.CreatedAt, p.UpdatedAt,
		).Scan(&id, &p.CreatedAt); err != nil {
			return fmt.Errorf("upsert portfolio: %w", err)
		}
		p.ID = id

		for _, s := range sections {
			table, ok := sectionTables[s]
			if !ok {
				continue
			}
			query, args, err := psql.Delete(table.name).Where(sq.Eq{"portfolio_id": id}).ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, query, args...); err != nil {
				return fmt.Errorf("clear %s: %w", s, err)
			}

			rows, err := sectionRows(doc, s, id)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				continue
			}
			if _, err := tx.CopyFrom(ctx, pgx.Identifier{table.name}, table.columns, pgx.CopyFromRows(rows)); err != nil {
				return fmt.Errorf("insert %s: %w", s, err)
			}
		}
		return nil
	})
	if err != nil {
		return dbError("failed to save portfolio", err)
	}
	return nil
}
