package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/gigmatch/internal/domain/model"
)

//go:embed schema.sql
var schemaSQL string

// PostgresStore persists matching state in PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Migrate applies the embedded schema. It is idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Counts implements Store.
func (s *PostgresStore) Counts(ctx context.Context) (int, int, error) {
	var talents, gigs int
	err := s.pool.QueryRow(ctx,
		`SELECT (SELECT COUNT(*) FROM talents), (SELECT COUNT(*) FROM gigs)`,
	).Scan(&talents, &gigs)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count records: %w", err)
	}
	return talents, gigs, nil
}

// PutGig implements Store.
func (s *PostgresStore) PutGig(ctx context.Context, g model.GigRequirement) error {
	if g.ID == "" {
		return fmt.Errorf("%w: gig id is empty", ErrInvalidRecord)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO gigs (id, title, description, category, location, is_remote, budget_min, budget_max,
		                   duration_days, experience_required, priority, style_preferences)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (id) DO UPDATE SET
		   title = $2, description = $3, category = $4, location = $5, is_remote = $6, budget_min = $7,
		   budget_max = $8, duration_days = $9, experience_required = $10, priority = $11, style_preferences = $12`,
		g.ID, g.Title, g.Description, g.Category, g.Location, g.Remote, g.BudgetMin, g.BudgetMax,
		g.DurationDays, string(g.Experience), string(g.Priority), g.StylePreferences,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert gig %s: %w", g.ID, err)
	}

	if err := upsertSkills(ctx, tx, g.RequiredSkills); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM gig_skills WHERE gig_id = $1`, g.ID); err != nil {
		return fmt.Errorf("failed to clear gig skills: %w", err)
	}
	for _, sk := range g.RequiredSkills {
		if _, err := tx.Exec(ctx,
			`INSERT INTO gig_skills (gig_id, skill_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			g.ID, sk.ID,
		); err != nil {
			return fmt.Errorf("failed to link gig skill %s: %w", sk.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit gig %s: %w", g.ID, err)
	}
	return nil
}

// PutTalent implements Store.
func (s *PostgresStore) PutTalent(ctx context.Context, t model.TalentProfile) error {
	if t.ID == "" {
		return fmt.Errorf("%w: talent id is empty", ErrInvalidRecord)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO talents (id, name, location, experience_years, hourly_rate, daily_rate,
		                      project_rate_min, project_rate_max, availability_status, rating, success_rate)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO UPDATE SET
		   name = $2, location = $3, experience_years = $4, hourly_rate = $5, daily_rate = $6,
		   project_rate_min = $7, project_rate_max = $8, availability_status = $9, rating = $10, success_rate = $11`,
		t.ID, t.Name, t.Location, t.ExperienceYears, t.HourlyRate, t.DailyRate,
		t.ProjectRateMin, t.ProjectRateMax, string(t.Availability), t.Rating, t.SuccessRate,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert talent %s: %w", t.ID, err)
	}

	if err := upsertSkills(ctx, tx, t.Skills); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM talent_skills WHERE talent_id = $1`, t.ID); err != nil {
		return fmt.Errorf("failed to clear talent skills: %w", err)
	}
	for _, sk := range t.Skills {
		if _, err := tx.Exec(ctx,
			`INSERT INTO talent_skills (talent_id, skill_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			t.ID, sk.ID,
		); err != nil {
			return fmt.Errorf("failed to link talent skill %s: %w", sk.ID, err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM portfolio_items WHERE talent_id = $1`, t.ID); err != nil {
		return fmt.Errorf("failed to clear portfolio: %w", err)
	}
	for i, it := range t.Portfolio {
		if _, err := tx.Exec(ctx,
			`INSERT INTO portfolio_items (id, talent_id, position, title, description, project_type, style_keywords, tags)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			it.ID, t.ID, i, it.Title, it.Description, it.ProjectType, it.StyleKeywords, it.Tags,
		); err != nil {
			return fmt.Errorf("failed to insert portfolio item %s: %w", it.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit talent %s: %w", t.ID, err)
	}
	return nil
}

func upsertSkills(ctx context.Context, tx pgx.Tx, skills []model.Skill) error {
	for _, sk := range skills {
		if sk.ID == "" {
			return fmt.Errorf("%w: skill %q has no id", ErrInvalidRecord, sk.Name)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO skills (id, name, category) VALUES ($1, $2, $3)
			 ON CONFLICT (id) DO UPDATE SET name = $2, category = $3`,
			sk.ID, sk.Name, sk.Category,
		); err != nil {
			return fmt.Errorf("failed to upsert skill %s: %w", sk.ID, err)
		}
	}
	return nil
}

// Gig implements ranking.GigRepository.
func (s *PostgresStore) Gig(ctx context.Context, id string) (model.GigRequirement, error) {
	var (
		g                    model.GigRequirement
		experience, priority string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, description, category, location, is_remote, budget_min, budget_max,
		        duration_days, experience_required, priority, style_preferences
		 FROM gigs WHERE id = $1`,
		id,
	).Scan(&g.ID, &g.Title, &g.Description, &g.Category, &g.Location, &g.Remote, &g.BudgetMin, &g.BudgetMax,
		&g.DurationDays, &experience, &priority, &g.StylePreferences)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.GigRequirement{}, fmt.Errorf("gig %q: %w", id, ErrNotFound)
		}
		return model.GigRequirement{}, fmt.Errorf("failed to get gig %s: %w", id, err)
	}
	g.Experience = model.Experience(experience)
	g.Priority = model.Priority(priority)

	rows, err := s.pool.Query(ctx,
		`SELECT s.id, s.name, s.category
		 FROM gig_skills gs JOIN skills s ON s.id = gs.skill_id
		 WHERE gs.gig_id = $1 ORDER BY s.id`,
		id,
	)
	if err != nil {
		return model.GigRequirement{}, fmt.Errorf("failed to get gig skills: %w", err)
	}
	g.RequiredSkills, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Skill, error) {
		var sk model.Skill
		err := row.Scan(&sk.ID, &sk.Name, &sk.Category)
		return sk, err
	})
	if err != nil {
		return model.GigRequirement{}, fmt.Errorf("failed to scan gig skills: %w", err)
	}
	return g, nil
}

// Talents implements ranking.TalentRepository.
func (s *PostgresStore) Talents(ctx context.Context, limit int) ([]model.TalentProfile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, location, experience_years, hourly_rate, daily_rate, project_rate_min,
		        project_rate_max, availability_status, rating, success_rate
		 FROM talents ORDER BY id LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list talents: %w", err)
	}
	talents, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.TalentProfile, error) {
		var (
			t     model.TalentProfile
			avail string
		)
		err := row.Scan(&t.ID, &t.Name, &t.Location, &t.ExperienceYears, &t.HourlyRate, &t.DailyRate,
			&t.ProjectRateMin, &t.ProjectRateMax, &avail, &t.Rating, &t.SuccessRate)
		t.Availability = model.Availability(avail)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan talents: %w", err)
	}
	if len(talents) == 0 {
		return talents, nil
	}

	ids := make([]string, len(talents))
	index := make(map[string]int, len(talents))
	for i, t := range talents {
		ids[i] = t.ID
		index[t.ID] = i
	}

	skillRows, err := s.pool.Query(ctx,
		`SELECT ts.talent_id, s.id, s.name, s.category
		 FROM talent_skills ts JOIN skills s ON s.id = ts.skill_id
		 WHERE ts.talent_id = ANY($1) ORDER BY ts.talent_id, s.id`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list talent skills: %w", err)
	}
	var (
		talentID string
		sk       model.Skill
	)
	_, err = pgx.ForEachRow(skillRows, []any{&talentID, &sk.ID, &sk.Name, &sk.Category}, func() error {
		i := index[talentID]
		talents[i].Skills = append(talents[i].Skills, sk)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan talent skills: %w", err)
	}

	itemRows, err := s.pool.Query(ctx,
		`SELECT talent_id, id, title, description, project_type, style_keywords, tags
		 FROM portfolio_items WHERE talent_id = ANY($1) ORDER BY talent_id, position`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolio items: %w", err)
	}
	var it model.PortfolioItem
	_, err = pgx.ForEachRow(itemRows,
		[]any{&talentID, &it.ID, &it.Title, &it.Description, &it.ProjectType, &it.StyleKeywords, &it.Tags},
		func() error {
			i := index[talentID]
			talents[i].Portfolio = append(talents[i].Portfolio, it)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to scan portfolio items: %w", err)
	}

	return talents, nil
}

// ReplaceForGig implements ranking.ResultRepository. The delete and inserts
// run in one transaction holding a transaction-scoped advisory lock on the
// gig, so concurrent replaces from other processes are serialized too.
func (s *PostgresStore) ReplaceForGig(ctx context.Context, gigID string, results []model.MatchResult) error {
	for _, r := range results {
		if r.GigID != gigID {
			return fmt.Errorf("%w: %s in replace for %s", ErrMixedGig, r.GigID, gigID)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, gigID); err != nil {
		return fmt.Errorf("failed to lock gig %s: %w", gigID, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM match_results WHERE gig_id = $1`, gigID); err != nil {
		return fmt.Errorf("failed to delete results for gig %s: %w", gigID, err)
	}

	if len(results) > 0 {
		batch := &pgx.Batch{}
		for _, r := range results {
			b := r.Breakdown
			batch.Queue(
				`INSERT INTO match_results (id, gig_id, talent_id, score, rank, location_score, budget_score,
				   skill_score, experience_score, availability_score, portfolio_score, rating_score,
				   explanation, algorithm, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
				r.ID, r.GigID, r.TalentID, r.Score, r.Rank, b.Location, b.Budget, b.Skill, b.Experience,
				b.Availability, b.Portfolio, b.Rating, r.Explanation, string(r.Algorithm), r.CreatedAt,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert results for gig %s: %w", gigID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit results for gig %s: %w", gigID, err)
	}
	return nil
}

const resultColumns = `id::text, gig_id, talent_id, score, rank, location_score, budget_score, skill_score,
	experience_score, availability_score, portfolio_score, rating_score, explanation, algorithm, created_at`

func scanResult(row pgx.CollectableRow) (model.MatchResult, error) {
	var (
		r    model.MatchResult
		algo string
	)
	b := &r.Breakdown
	err := row.Scan(&r.ID, &r.GigID, &r.TalentID, &r.Score, &r.Rank, &b.Location, &b.Budget, &b.Skill,
		&b.Experience, &b.Availability, &b.Portfolio, &b.Rating, &r.Explanation, &algo, &r.CreatedAt)
	r.Algorithm = model.Algorithm(algo)
	return r, err
}

// ResultsForGig implements ranking.ResultRepository.
func (s *PostgresStore) ResultsForGig(ctx context.Context, gigID string) ([]model.MatchResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+resultColumns+` FROM match_results WHERE gig_id = $1 ORDER BY rank`,
		gigID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list results for gig %s: %w", gigID, err)
	}
	out, err := pgx.CollectRows(rows, scanResult)
	if err != nil {
		return nil, fmt.Errorf("failed to scan results: %w", err)
	}
	return out, nil
}

// ResultsForTalent implements ranking.ResultRepository.
func (s *PostgresStore) ResultsForTalent(ctx context.Context, talentID string) ([]model.MatchResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+resultColumns+` FROM match_results WHERE talent_id = $1 ORDER BY score DESC, gig_id`,
		talentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list results for talent %s: %w", talentID, err)
	}
	out, err := pgx.CollectRows(rows, scanResult)
	if err != nil {
		return nil, fmt.Errorf("failed to scan results: %w", err)
	}
	return out, nil
}
