package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/stitchlabs/stitch-bot/internal/models"
	"go.uber.org/zap"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	UseInMemory bool
}

type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresStorage(config DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := &PostgresStorage{db: db, logger: logger}

	if err := storage.initializeSchema(); err != nil {
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	return storage, nil
}

func (s *PostgresStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}

	return nil
}

func (s *PostgresStorage) GetUser(ctx context.Context, telegramID int64) (*models.User, error) {
	query := `
		SELECT telegram_id, wallet_address, created_at, last_task_at
		FROM users
		WHERE telegram_id = $1`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, telegramID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying user: %w", err)
	}
	return user, nil
}

func (s *PostgresStorage) UpsertWallet(ctx context.Context, telegramID int64, wallet string) (*models.User, error) {
	query := `
		INSERT INTO users (telegram_id, wallet_address)
		VALUES ($1, $2)
		ON CONFLICT (telegram_id) DO UPDATE SET wallet_address = EXCLUDED.wallet_address
		RETURNING telegram_id, wallet_address, created_at, last_task_at`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, telegramID, wallet))
	if err != nil {
		return nil, fmt.Errorf("error upserting wallet: %w", err)
	}
	return user, nil
}

func (s *PostgresStorage) SetLastTask(ctx context.Context, telegramID int64, at time.Time) error {
	query := `
		UPDATE users
		SET last_task_at = $2
		WHERE telegram_id = $1`

	result, err := s.db.ExecContext(ctx, query, telegramID, at)
	if err != nil {
		return fmt.Errorf("error updating last task timestamp: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (s *PostgresStorage) CreateTask(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (task_type, prompt, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := s.db.QueryRowContext(ctx, query, string(task.Type), task.Prompt, task.ExpiresAt).
		Scan(&task.ID, &task.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating task: %w", err)
	}

	return nil
}

func (s *PostgresStorage) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	query := `
		SELECT id, task_type, prompt, created_at, expires_at
		FROM tasks
		WHERE id = $1`

	task := &models.Task{}
	err := s.db.QueryRowContext(ctx, query, id).
		Scan(&task.ID, &task.Type, &task.Prompt, &task.CreatedAt, &task.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying task: %w", err)
	}
	return task, nil
}

func (s *PostgresStorage) ListOpenTasks(ctx context.Context, now time.Time) ([]*models.Task, error) {
	query := `
		SELECT id, task_type, prompt, created_at, expires_at
		FROM tasks
		WHERE expires_at > $1
		ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("error querying open tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task := &models.Task{}
		err := rows.Scan(&task.ID, &task.Type, &task.Prompt, &task.CreatedAt, &task.ExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

func (s *PostgresStorage) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	query := `
		INSERT INTO submissions (id, user_id, task_id, content, transcript, submitted_at, is_valid)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	transcript := sql.NullString{String: sub.Transcript, Valid: sub.Transcript != ""}

	_, err := s.db.ExecContext(ctx, query,
		sub.ID, sub.UserID, sub.TaskID, sub.Content, transcript, sub.SubmittedAt, sub.Valid)
	if err != nil {
		return fmt.Errorf("error creating submission: %w", err)
	}

	return nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var wallet sql.NullString
	var lastTask sql.NullTime

	if err := row.Scan(&user.TelegramID, &wallet, &user.CreatedAt, &lastTask); err != nil {
		return nil, err
	}
	user.WalletAddress = wallet.String
	if lastTask.Valid {
		ts := lastTask.Time
		user.LastTaskAt = &ts
	}
	return user, nil
}
