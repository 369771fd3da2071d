package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/skillswap/client/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id                 BIGSERIAL PRIMARY KEY,
	first_name         VARCHAR(50)  NOT NULL,
	last_name          VARCHAR(50)  NOT NULL,
	email              VARCHAR(255) NOT NULL UNIQUE,
	password_hash      TEXT         NOT NULL,
	bio                VARCHAR(1000) NOT NULL DEFAULT '',
	location           VARCHAR(100) NOT NULL DEFAULT '',
	profile_photo      TEXT         NOT NULL DEFAULT '',
	skills_offered     TEXT[]       NOT NULL DEFAULT '{}',
	skills_wanted      TEXT[]       NOT NULL DEFAULT '{}',
	availability       VARCHAR(16)  NOT NULL DEFAULT 'FLEXIBLE',
	rating_sum         BIGINT       NOT NULL DEFAULT 0,
	total_reviews      INTEGER      NOT NULL DEFAULT 0,
	completed_swaps    INTEGER      NOT NULL DEFAULT 0,
	is_profile_public  BOOLEAN      NOT NULL DEFAULT TRUE,
	email_verified     BOOLEAN      NOT NULL DEFAULT FALSE,
	verification_token TEXT,
	roles              TEXT[]       NOT NULL DEFAULT '{USER}',
	created_at         TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
	updated_at         TIMESTAMPTZ  NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS connection_requests (
	id           BIGSERIAL PRIMARY KEY,
	sender_id    BIGINT      NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	receiver_id  BIGINT      NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	message      TEXT        NOT NULL DEFAULT '',
	status       VARCHAR(16) NOT NULL DEFAULT 'PENDING',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	responded_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_connection_requests_receiver ON connection_requests(receiver_id);
CREATE INDEX IF NOT EXISTS idx_connection_requests_sender ON connection_requests(sender_id);
`

const accountColumns = `
	id, first_name, last_name, email, password_hash, bio, location, profile_photo,
	skills_offered, skills_wanted, availability, rating_sum, total_reviews,
	completed_swaps, is_profile_public, email_verified, COALESCE(verification_token, ''),
	roles, created_at, updated_at`

const connectionColumns = `id, sender_id, receiver_id, message, status, created_at, responded_at`

// PostgresRepository implements the domain repositories using PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Migrate creates the tables if they do not exist
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CreateAccount(ctx context.Context, params domain.CreateAccountParams) (*domain.Account, error) {
	query := `
		INSERT INTO accounts (first_name, last_name, email, password_hash, email_verified, verification_token, roles)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
		RETURNING ` + accountColumns

	row := r.db.QueryRow(ctx, query,
		params.FirstName,
		params.LastName,
		params.Email,
		params.PasswordHash,
		params.EmailVerified,
		params.VerificationToken,
		params.Roles,
	)
	account, err := scanAccount(row)
	if err != nil && strings.Contains(err.Error(), "accounts_email_key") {
		return nil, domain.ErrUserAlreadyExists
	}
	return account, err
}

func (r *PostgresRepository) GetAccountByID(ctx context.Context, id int64) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

func (r *PostgresRepository) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	return scanAccount(row)
}

func (r *PostgresRepository) GetAccountByVerificationToken(ctx context.Context, token string) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE verification_token = $1`, token)
	return scanAccount(row)
}

func (r *PostgresRepository) MarkEmailVerified(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE accounts SET email_verified = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *PostgresRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id int64, req domain.UpdateProfileRequest) (*domain.Account, error) {
	var availability *string
	if req.Availability != nil {
		s := string(*req.Availability)
		availability = &s
	}

	query := `
		UPDATE accounts SET
			first_name        = COALESCE($2, first_name),
			last_name         = COALESCE($3, last_name),
			bio               = COALESCE($4, bio),
			location          = COALESCE($5, location),
			availability      = COALESCE($6, availability),
			is_profile_public = COALESCE($7, is_profile_public),
			updated_at        = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns

	row := r.db.QueryRow(ctx, query, id,
		req.FirstName, req.LastName, req.Bio, req.Location, availability, req.IsProfilePublic)
	return scanAccount(row)
}

func (r *PostgresRepository) UpdateSkills(ctx context.Context, id int64, offered, wanted []string) (*domain.Account, error) {
	query := `
		UPDATE accounts SET skills_offered = $2, skills_wanted = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns
	return scanAccount(r.db.QueryRow(ctx, query, id, offered, wanted))
}

func (r *PostgresRepository) UpdatePhoto(ctx context.Context, id int64, url string) (*domain.Account, error) {
	query := `
		UPDATE accounts SET profile_photo = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns
	return scanAccount(r.db.QueryRow(ctx, query, id, url))
}

func (r *PostgresRepository) AddRating(ctx context.Context, id int64, rating int) (*domain.Account, error) {
	query := `
		UPDATE accounts SET rating_sum = rating_sum + $2, total_reviews = total_reviews + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns
	return scanAccount(r.db.QueryRow(ctx, query, id, rating))
}

func (r *PostgresRepository) IncrementCompletedSwaps(ctx context.Context, ids ...int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE accounts SET completed_swaps = completed_swaps + 1 WHERE id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	if int(tag.RowsAffected()) != len(ids) {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *PostgresRepository) SearchProfiles(ctx context.Context, params domain.SearchParams) ([]*domain.Account, int, error) {
	pattern := ""
	if s := strings.TrimSpace(params.Search); s != "" {
		pattern = "%" + escapeLike(s) + "%"
	}

	query := `
		SELECT ` + accountColumns + `, COUNT(*) OVER() AS total
		FROM accounts
		WHERE is_profile_public AND email_verified
		  AND ($1 = '' OR first_name ILIKE $1 OR last_name ILIKE $1
		       OR (first_name || ' ' || last_name) ILIKE $1
		       OR bio ILIKE $1 OR location ILIKE $1
		       OR EXISTS (SELECT 1 FROM unnest(skills_offered || skills_wanted) AS s WHERE s ILIKE $1))
		  AND ($2 = '' OR availability = $2)
		ORDER BY (rating_sum::float8 / NULLIF(total_reviews, 0)) DESC NULLS LAST, id
		LIMIT $3 OFFSET $4`

	rows, err := r.db.Query(ctx, query, pattern, string(params.Availability), params.Size, params.Page*params.Size)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0, params.Size)
	total := 0
	for rows.Next() {
		a, err := scanAccountRow(rows, &total)
		if err != nil {
			return nil, 0, err
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	// an out-of-range page yields no rows and so no window count
	if len(accounts) == 0 && params.Page > 0 {
		err := r.db.QueryRow(ctx, `
			SELECT COUNT(*) FROM accounts
			WHERE is_profile_public AND email_verified
			  AND ($1 = '' OR first_name ILIKE $1 OR last_name ILIKE $1
			       OR (first_name || ' ' || last_name) ILIKE $1
			       OR bio ILIKE $1 OR location ILIKE $1
			       OR EXISTS (SELECT 1 FROM unnest(skills_offered || skills_wanted) AS s WHERE s ILIKE $1))
			  AND ($2 = '' OR availability = $2)`,
			pattern, string(params.Availability)).Scan(&total)
		if err != nil {
			return nil, 0, err
		}
	}

	return accounts, total, nil
}

func (r *PostgresRepository) CountActiveAccounts(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE email_verified`).Scan(&n)
	return n, err
}

func (r *PostgresRepository) CountSkillsOffered(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(DISTINCT lower(s)) FROM accounts, unnest(skills_offered) AS s`).Scan(&n)
	return n, err
}

func (r *PostgresRepository) CreateConnection(ctx context.Context, senderID, receiverID int64, message string) (*domain.Connection, error) {
	query := `
		INSERT INTO connection_requests (sender_id, receiver_id, message)
		VALUES ($1, $2, $3)
		RETURNING ` + connectionColumns
	return scanConnection(r.db.QueryRow(ctx, query, senderID, receiverID, message))
}

func (r *PostgresRepository) GetConnectionByID(ctx context.Context, id int64) (*domain.Connection, error) {
	row := r.db.QueryRow(ctx, `SELECT `+connectionColumns+` FROM connection_requests WHERE id = $1`, id)
	return scanConnection(row)
}

func (r *PostgresRepository) ConnectionExists(ctx context.Context, a, b int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM connection_requests
			WHERE ((sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1))
			  AND status IN ('PENDING', 'ACCEPTED')
		)`, a, b).Scan(&exists)
	return exists, err
}

// UpdateConnectionStatus only moves pending rows, so concurrent answers
// cannot both win
func (r *PostgresRepository) UpdateConnectionStatus(ctx context.Context, id int64, status domain.RequestStatus) (*domain.Connection, error) {
	query := `
		UPDATE connection_requests SET status = $2, responded_at = NOW()
		WHERE id = $1 AND status = 'PENDING'
		RETURNING ` + connectionColumns
	conn, err := scanConnection(r.db.QueryRow(ctx, query, id, string(status)))
	if errors.Is(err, domain.ErrRequestNotFound) {
		if _, getErr := r.GetConnectionByID(ctx, id); getErr == nil {
			return nil, domain.ErrRequestProcessed
		}
	}
	return conn, err
}

func (r *PostgresRepository) ListReceived(ctx context.Context, receiverID int64) ([]*domain.Connection, error) {
	return r.listConnections(ctx, `receiver_id = $1`, receiverID)
}

func (r *PostgresRepository) ListSent(ctx context.Context, senderID int64) ([]*domain.Connection, error) {
	return r.listConnections(ctx, `sender_id = $1`, senderID)
}

func (r *PostgresRepository) CountConnections(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM connection_requests`).Scan(&n)
	return n, err
}

func (r *PostgresRepository) CountByStatus(ctx context.Context, status domain.RequestStatus) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM connection_requests WHERE status = $1`, string(status)).Scan(&n)
	return n, err
}

func (r *PostgresRepository) listConnections(ctx context.Context, where string, arg int64) ([]*domain.Connection, error) {
	rows, err := r.db.Query(ctx, `SELECT `+connectionColumns+` FROM connection_requests WHERE `+where+` ORDER BY created_at DESC, id DESC`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.Connection, 0)
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	return scanAccountRow(row, nil)
}

// scanAccountRow scans accountColumns, plus a trailing total when total is non-nil
func scanAccountRow(row pgx.Row, total *int) (*domain.Account, error) {
	var a domain.Account
	var availability string
	var ratingSum int64

	dest := []any{
		&a.ID,
		&a.FirstName,
		&a.LastName,
		&a.Email,
		&a.PasswordHash,
		&a.Bio,
		&a.Location,
		&a.ProfilePhoto,
		&a.SkillsOffered,
		&a.SkillsWanted,
		&availability,
		&ratingSum,
		&a.TotalReviews,
		&a.CompletedSwaps,
		&a.IsProfilePublic,
		&a.EmailVerified,
		&a.VerificationToken,
		&a.Roles,
		&a.CreatedAt,
		&a.UpdatedAt,
	}
	if total != nil {
		dest = append(dest, total)
	}

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	a.Availability = domain.Availability(availability)
	if a.TotalReviews > 0 {
		avg := float64(ratingSum) / float64(a.TotalReviews)
		a.AverageRating = &avg
	}
	return &a, nil
}

func scanConnection(row pgx.Row) (*domain.Connection, error) {
	var c domain.Connection
	var status string
	var createdAt time.Time
	var respondedAt *time.Time

	err := row.Scan(&c.ID, &c.SenderID, &c.ReceiverID, &c.Message, &status, &createdAt, &respondedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, err
	}

	c.Status = domain.RequestStatus(status)
	c.CreatedAt = domain.Timestamp{Time: createdAt.UTC()}
	if respondedAt != nil {
		c.RespondedAt = &domain.Timestamp{Time: respondedAt.UTC()}
	}
	return &c, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
