package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/forma-labs/backend/internal/db"
	"github.com/forma-labs/backend/internal/models"
)

// PostgresSessionRepository provides PostgreSQL-backed persistence for sessions.
type PostgresSessionRepository struct {
	pool db.Pool
}

// NewPostgresSessionRepository constructs a session repository backed by PostgreSQL.
func NewPostgresSessionRepository(pool db.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

// Create persists a freshly intaken session.
func (r *PostgresSessionRepository) Create(ctx context.Context, session models.Session) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	input, err := json.Marshal(session.Input)
	if err != nil {
		return fmt.Errorf("marshal session input: %w", err)
	}

	assets := session.Assets
	if assets == nil {
		assets = map[string]string{}
	}
	assetsJSON, err := json.Marshal(assets)
	if err != nil {
		return fmt.Errorf("marshal session assets: %w", err)
	}

	var email *string
	if session.Email != "" {
		email = &session.Email
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO sessions (share_id, email, input, photo_path, assets, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
    `, session.ShareID, email, input, session.PhotoPath, assetsJSON, session.Status, session.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// Get loads a session by its shareId.
func (r *PostgresSessionRepository) Get(ctx context.Context, shareID string) (models.Session, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Session{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT share_id, email, input, photo_path, insights, analysis, assets, video,
               status, error_message, created_at, updated_at, analyzed_at, video_generated_at
        FROM sessions
        WHERE share_id = $1
    `, shareID)

	var (
		session      models.Session
		email        *string
		inputJSON    []byte
		insightsJSON []byte
		analysisJSON []byte
		assetsJSON   []byte
		videoJSON    []byte
	)

	if err := row.Scan(
		&session.ShareID, &email, &inputJSON, &session.PhotoPath,
		&insightsJSON, &analysisJSON, &assetsJSON, &videoJSON,
		&session.Status, &session.ErrorMessage,
		&session.CreatedAt, &session.UpdatedAt, &session.AnalyzedAt, &session.VideoGeneratedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Session{}, ErrNotFound
		}
		return models.Session{}, fmt.Errorf("select session: %w", err)
	}

	if email != nil {
		session.Email = *email
	}
	if err := json.Unmarshal(inputJSON, &session.Input); err != nil {
		return models.Session{}, fmt.Errorf("decode session input: %w", err)
	}
	if len(insightsJSON) > 0 {
		session.Insights = &models.Insights{}
		if err := json.Unmarshal(insightsJSON, session.Insights); err != nil {
			return models.Session{}, fmt.Errorf("decode session insights: %w", err)
		}
	}
	if len(analysisJSON) > 0 {
		session.Analysis = &models.VisionAnalysis{}
		if err := json.Unmarshal(analysisJSON, session.Analysis); err != nil {
			return models.Session{}, fmt.Errorf("decode session analysis: %w", err)
		}
	}
	if len(assetsJSON) > 0 {
		if err := json.Unmarshal(assetsJSON, &session.Assets); err != nil {
			return models.Session{}, fmt.Errorf("decode session assets: %w", err)
		}
	}
	if len(videoJSON) > 0 {
		session.Video = &models.Video{}
		if err := json.Unmarshal(videoJSON, session.Video); err != nil {
			return models.Session{}, fmt.Errorf("decode session video: %w", err)
		}
	}

	return session, nil
}

// SetAnalysis attaches analysis output and advances the session to analyzed.
// A re-run overwrites the previous result.
func (r *PostgresSessionRepository) SetAnalysis(ctx context.Context, shareID string, insights *models.Insights, analysis *models.VisionAnalysis, at time.Time) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	insightsJSON, err := marshalNullable(insights)
	if err != nil {
		return fmt.Errorf("marshal insights: %w", err)
	}
	analysisJSON, err := marshalNullable(analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	tag, err := conn.Exec(ctx, `
        UPDATE sessions
        SET insights = $2,
            analysis = $3,
            status = $4,
            error_message = '',
            analyzed_at = $5,
            updated_at = $5
        WHERE share_id = $1
    `, shareID, insightsJSON, analysisJSON, models.StatusAnalyzed, at)
	if err != nil {
		return fmt.Errorf("update session analysis: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// BeginGenerating performs the guarded analyzed -> generating transition.
// ErrConflict is returned when the session is not currently analyzed, which
// keeps two concurrent generation requests from both starting a vendor job.
func (r *PostgresSessionRepository) BeginGenerating(ctx context.Context, shareID string, at time.Time) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE sessions
        SET status = $2, updated_at = $3
        WHERE share_id = $1 AND status = $4
    `, shareID, models.StatusGenerating, at, models.StatusAnalyzed)
	if err != nil {
		return fmt.Errorf("update session to generating: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrConflict
	}

	return nil
}

// SetVideo records the generated video and advances the session to ready.
func (r *PostgresSessionRepository) SetVideo(ctx context.Context, shareID string, video models.Video, at time.Time) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	videoJSON, err := json.Marshal(video)
	if err != nil {
		return fmt.Errorf("marshal video: %w", err)
	}

	tag, err := conn.Exec(ctx, `
        UPDATE sessions
        SET video = $2,
            status = $3,
            error_message = '',
            video_generated_at = $4,
            updated_at = $4
        WHERE share_id = $1
    `, shareID, videoJSON, models.StatusReady, at)
	if err != nil {
		return fmt.Errorf("update session video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkFailed records a terminal failure with its message.
func (r *PostgresSessionRepository) MarkFailed(ctx context.Context, shareID, message string, at time.Time) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE sessions
        SET status = $2, error_message = $3, updated_at = $4
        WHERE share_id = $1
    `, shareID, models.StatusFailed, message, at)
	if err != nil {
		return fmt.Errorf("update session to failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes the session row. Blob-store assets are the caller's concern.
func (r *PostgresSessionRepository) Delete(ctx context.Context, shareID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM sessions
        WHERE share_id = $1
    `, shareID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func marshalNullable(v any) ([]byte, error) {
	switch t := v.(type) {
	case *models.Insights:
		if t == nil {
			return nil, nil
		}
	case *models.VisionAnalysis:
		if t == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

// PostgresRateLimitStore maintains one daily-counter table. Two instances
// cover the per-IP and per-email quotas.
type PostgresRateLimitStore struct {
	pool   db.Pool
	table  string
	column string
	now    func() time.Time
}

// NewPostgresIPRateLimitStore constructs the per-IP daily counter store.
func NewPostgresIPRateLimitStore(pool db.Pool) *PostgresRateLimitStore {
	return &PostgresRateLimitStore{pool: pool, table: "rate_limits", column: "ip", now: func() time.Time { return time.Now().UTC() }}
}

// NewPostgresEmailRateLimitStore constructs the per-email daily counter store.
func NewPostgresEmailRateLimitStore(pool db.Pool) *PostgresRateLimitStore {
	return &PostgresRateLimitStore{pool: pool, table: "rate_limits_email", column: "email", now: func() time.Time { return time.Now().UTC() }}
}

// Reserve checks the counter against the limit and increments it. The check
// and the increment are two statements; concurrent callers may over-admit
// slightly, which is an accepted approximation.
func (s *PostgresRateLimitStore) Reserve(ctx context.Context, identifier, day string, limit int) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	id := CounterID(identifier, day)

	var current int
	err = conn.QueryRow(ctx, fmt.Sprintf(`SELECT count FROM %s WHERE id = $1`, s.table), id).Scan(&current)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("read rate limit counter: %w", err)
	}

	if current >= limit {
		return ErrRateLimited
	}

	_, err = conn.Exec(ctx, fmt.Sprintf(`
        INSERT INTO %s (id, %s, day, count, updated_at)
        VALUES ($1, $2, $3, 1, $4)
        ON CONFLICT (id)
        DO UPDATE SET count = %s.count + 1, updated_at = EXCLUDED.updated_at
    `, s.table, s.column, s.table), id, identifier, day, s.now())
	if err != nil {
		return fmt.Errorf("increment rate limit counter: %w", err)
	}

	return nil
}

// Release compensates a reservation after a downstream failure. It re-reads
// the counter inside a transaction and writes max(0, count-1) so concurrent
// increments are not lost and the counter never goes negative.
func (s *PostgresRateLimitStore) Release(ctx context.Context, identifier, day string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	id := CounterID(identifier, day)

	err = pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
		var current int
		err := tx.QueryRow(ctx, fmt.Sprintf(`SELECT count FROM %s WHERE id = $1 FOR UPDATE`, s.table), id).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read rate limit counter: %w", err)
		}

		next := current - 1
		if next < 0 {
			next = 0
		}

		if _, err := tx.Exec(ctx, fmt.Sprintf(`UPDATE %s SET count = $2, updated_at = $3 WHERE id = $1`, s.table), id, next, s.now()); err != nil {
			return fmt.Errorf("decrement rate limit counter: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("release rate limit reservation: %w", err)
	}

	return nil
}

// Count reports the current counter value, zero when absent.
func (s *PostgresRateLimitStore) Count(ctx context.Context, identifier, day string) (int, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var current int
	err = conn.QueryRow(ctx, fmt.Sprintf(`SELECT count FROM %s WHERE id = $1`, s.table), CounterID(identifier, day)).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read rate limit counter: %w", err)
	}

	return current, nil
}

// CounterID builds the "{identifier}-{UTC day}" counter key.
func CounterID(identifier, day string) string {
	return fmt.Sprintf("%s-%s", identifier, day)
}

// PostgresLeadRepository provides PostgreSQL-backed persistence for leads.
type PostgresLeadRepository struct {
	pool db.Pool
}

// NewPostgresLeadRepository constructs a lead repository backed by PostgreSQL.
func NewPostgresLeadRepository(pool db.Pool) *PostgresLeadRepository {
	return &PostgresLeadRepository{pool: pool}
}

// Upsert stores or refreshes a lead keyed by lowercased email.
func (r *PostgresLeadRepository) Upsert(ctx context.Context, lead models.Lead) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO leads (email, source, consent, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $4)
        ON CONFLICT (email)
        DO UPDATE SET source = EXCLUDED.source, consent = EXCLUDED.consent, updated_at = EXCLUDED.updated_at
    `, lead.Email, lead.Source, lead.Consent, lead.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert lead: %w", err)
	}

	return nil
}

var _ SessionRepository = (*PostgresSessionRepository)(nil)
var _ RateLimitRepository = (*PostgresRateLimitStore)(nil)
var _ LeadRepository = (*PostgresLeadRepository)(nil)
