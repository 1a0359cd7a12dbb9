package jobstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/assetforge/render-be/internal/domain"
)

// PostgresStore is the durable job record store. It is shared by the
// API and worker processes; the guarded UPDATEs below are what make
// terminal transitions exactly-once when multiple workers race.
type PostgresStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresStore creates a store on top of an established connection.
func NewPostgresStore(db *sqlx.DB, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

type jobRow struct {
	JobID        string         `db:"job_id"`
	JobType      string         `db:"job_type"`
	Status       string         `db:"status"`
	InputBucket  string         `db:"input_bucket"`
	InputKey     string         `db:"input_key"`
	OutputRefs   []byte         `db:"output_refs"`
	ErrorMessage sql.NullString `db:"error_message"`
	CreatedAt    sql.NullTime   `db:"created_at"`
	CompletedAt  sql.NullTime   `db:"completed_at"`
}

func (r *jobRow) toDomain() (*domain.Job, error) {
	job := &domain.Job{
		ID:      r.JobID,
		JobType: domain.JobType(r.JobType),
		Status:  r.Status,
		InputRef: domain.ArtifactRef{
			Bucket: r.InputBucket,
			Key:    r.InputKey,
		},
	}

	if len(r.OutputRefs) > 0 {
		if err := json.Unmarshal(r.OutputRefs, &job.OutputRefs); err != nil {
			return nil, fmt.Errorf("failed to decode output refs: %w", err)
		}
	}
	if r.ErrorMessage.Valid {
		job.Error = r.ErrorMessage.String
	}
	if r.CreatedAt.Valid {
		job.CreatedAt = r.CreatedAt.Time
	}
	if r.CompletedAt.Valid {
		t := r.CompletedAt.Time
		job.CompletedAt = &t
	}
	return job, nil
}

const jobColumns = `job_id, job_type, status, input_bucket, input_key, output_refs, error_message, created_at, completed_at`

func (s *PostgresStore) Create(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO jobs (
			job_id, job_type, status, input_bucket, input_key, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		job.ID,
		string(job.JobType),
		job.Status,
		job.InputRef.Bucket,
		job.InputRef.Key,
		job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE job_id = $1`

	var row jobRow
	if err := s.db.GetContext(ctx, &row, query, jobID); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return row.toDomain()
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs ORDER BY created_at DESC, job_id DESC`

	var rows []jobRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	jobs := make([]*domain.Job, 0, len(rows))
	for i := range rows {
		job, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (s *PostgresStore) MarkProcessing(ctx context.Context, jobID string) error {
	query := `
		UPDATE jobs
		SET status = $1
		WHERE job_id = $2 AND status = $3
	`

	_, err := s.db.ExecContext(ctx, query, domain.JobStatusProcessing, jobID, domain.JobStatusQueued)
	if err != nil {
		return fmt.Errorf("failed to mark job processing: %w", err)
	}
	return nil
}

func (s *PostgresStore) Complete(ctx context.Context, jobID string, outputs map[string]domain.ArtifactRef) error {
	refsJSON, err := json.Marshal(outputs)
	if err != nil {
		return fmt.Errorf("failed to marshal output refs: %w", err)
	}

	query := `
		UPDATE jobs
		SET status = $1,
		    output_refs = $2,
		    completed_at = NOW()
		WHERE job_id = $3 AND status NOT IN ($4, $5)
	`

	result, err := s.db.ExecContext(ctx, query,
		domain.JobStatusCompleted, refsJSON, jobID,
		domain.JobStatusCompleted, domain.JobStatusFailed,
	)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}

	s.logTransition(jobID, domain.JobStatusCompleted, result)
	return nil
}

func (s *PostgresStore) Fail(ctx context.Context, jobID string, errMsg string) error {
	query := `
		UPDATE jobs
		SET status = $1,
		    error_message = $2,
		    completed_at = NOW()
		WHERE job_id = $3 AND status NOT IN ($4, $5)
	`

	result, err := s.db.ExecContext(ctx, query,
		domain.JobStatusFailed, errMsg, jobID,
		domain.JobStatusCompleted, domain.JobStatusFailed,
	)
	if err != nil {
		return fmt.Errorf("failed to fail job: %w", err)
	}

	s.logTransition(jobID, domain.JobStatusFailed, result)
	return nil
}

func (s *PostgresStore) logTransition(jobID, status string, result sql.Result) {
	rows, err := result.RowsAffected()
	if err != nil {
		return
	}
	if rows == 0 {
		s.logger.Warn("Job already terminal, transition skipped",
			slog.String("job_id", jobID),
			slog.String("status", status),
		)
		return
	}
	s.logger.Info("Job status updated",
		slog.String("job_id", jobID),
		slog.String("status", status),
	)
}
