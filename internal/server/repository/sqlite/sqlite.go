package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/willr196/vergo-db-sub002/internal/server/repository"
	"github.com/willr196/vergo-db-sub002/internal/shared/models"
)

type Repository struct {
	db *sql.DB
}

func New(dsn string) (*Repository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			type TEXT NOT NULL,
			full_name TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			company TEXT NOT NULL DEFAULT '',
			verified INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		);
		CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			company TEXT NOT NULL,
			location TEXT NOT NULL,
			rate TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			posted_at TIMESTAMP NOT NULL
		);
		CREATE TABLE IF NOT EXISTS applications (
			id TEXT PRIMARY KEY,
			job_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			UNIQUE(job_id, user_id),
			FOREIGN KEY(job_id) REFERENCES jobs(id),
			FOREIGN KEY(user_id) REFERENCES users(id)
		);
		CREATE TABLE IF NOT EXISTS refresh_tokens (
			token TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL,
			FOREIGN KEY(user_id) REFERENCES users(id)
		);
	`); err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error { return r.db.Close() }

// Users

func (r *Repository) CreateUser(ctx context.Context, u models.User, passwordHash string) (models.User, error) {
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users(id, email, password_hash, type, full_name, phone, company, verified, created_at)
		VALUES(?,?,?,?,?,?,?,?,?)`,
		u.ID, u.Email, passwordHash, string(u.Type), u.FullName, u.Phone, u.Company, u.Verified, u.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return models.User{}, repository.ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (models.User, string, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, type, full_name, phone, company, verified, created_at
		FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r *Repository) GetUserByID(ctx context.Context, id string) (models.User, string, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, type, full_name, phone, company, verified, created_at
		FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (models.User, string, error) {
	var u models.User
	var hash, typ string
	if err := row.Scan(&u.ID, &u.Email, &hash, &typ, &u.FullName, &u.Phone, &u.Company, &u.Verified, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, "", repository.ErrNotFound
		}
		return models.User{}, "", err
	}
	u.Type = models.UserType(typ)
	return u, hash, nil
}

func (r *Repository) UpdateUser(ctx context.Context, u models.User) (models.User, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET full_name=?, phone=?, company=? WHERE id=?`,
		u.FullName, u.Phone, u.Company, u.ID)
	if err != nil {
		return models.User{}, err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return models.User{}, repository.ErrNotFound
	}
	updated, _, err := r.GetUserByID(ctx, u.ID)
	return updated, err
}

func (r *Repository) MarkVerified(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET verified=1 WHERE id=?`, userID)
	return err
}

// Jobs

func (r *Repository) ListJobs(ctx context.Context) ([]models.Job, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, company, location, rate, description, posted_at FROM jobs ORDER BY posted_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Job
	for rows.Next() {
		var j models.Job
		if err := rows.Scan(&j.ID, &j.Title, &j.Company, &j.Location, &j.Rate, &j.Description, &j.PostedAt); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (r *Repository) CreateJob(ctx context.Context, j models.Job) (models.Job, error) {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if j.PostedAt.IsZero() {
		j.PostedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs(id, title, company, location, rate, description, posted_at)
		VALUES(?,?,?,?,?,?,?)
		ON CONFLICT(id) DO NOTHING`,
		j.ID, j.Title, j.Company, j.Location, j.Rate, j.Description, j.PostedAt)
	if err != nil {
		return models.Job{}, err
	}
	return j, nil
}

func (r *Repository) JobExists(ctx context.Context, id string) (bool, error) {
	row := r.db.QueryRowContext(ctx, `SELECT 1 FROM jobs WHERE id = ?`, id)
	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Applications

func (r *Repository) CreateApplication(ctx context.Context, jobID, userID string) (models.Application, error) {
	a := models.Application{
		ID:        uuid.NewString(),
		JobID:     jobID,
		UserID:    userID,
		Status:    models.ApplicationPending,
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO applications(id, job_id, user_id, status, created_at) VALUES(?,?,?,?,?)`,
		a.ID, a.JobID, a.UserID, string(a.Status), a.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return models.Application{}, repository.ErrAlreadyApplied
		}
		return models.Application{}, err
	}
	return a, nil
}

func (r *Repository) GetApplication(ctx context.Context, id string) (models.Application, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, job_id, user_id, status, created_at FROM applications WHERE id = ?`, id)
	var a models.Application
	var status string
	if err := row.Scan(&a.ID, &a.JobID, &a.UserID, &status, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Application{}, repository.ErrNotFound
		}
		return models.Application{}, err
	}
	a.Status = models.ApplicationStatus(status)
	return a, nil
}

func (r *Repository) WithdrawApplication(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE applications SET status=? WHERE id=? AND user_id=? AND status=?`,
		string(models.ApplicationWithdrawn), id, userID, string(models.ApplicationPending))
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		if _, err := r.GetApplication(ctx, id); errors.Is(err, repository.ErrNotFound) {
			return repository.ErrNotFound
		}
		return repository.ErrAlreadyWithdrawn
	}
	return nil
}

// Refresh tokens

func (r *Repository) CreateRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens(token, user_id, expires_at, created_at) VALUES(?,?,?,?)`,
		token, userID, expiresAt, time.Now().UTC())
	return err
}

func (r *Repository) GetRefreshToken(ctx context.Context, token string) (userID string, expiresAt time.Time, err error) {
	row := r.db.QueryRowContext(ctx, `SELECT user_id, expires_at FROM refresh_tokens WHERE token = ?`, token)
	err = row.Scan(&userID, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		err = repository.ErrNotFound
	}
	return
}

func (r *Repository) DeleteRefreshToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = ?`, token)
	return err
}
