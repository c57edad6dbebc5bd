package clients

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	postgresInstance *Postgres
	postgresOnce     sync.Once
	postgresErr      error
)

type Postgres struct {
	DB *pgxpool.Pool
}

// PostgresDSN builds the connection string from the DB_* variables.
func PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(getEnv("DB_USER", "moodreel"), os.Getenv("DB_PASSWORD")),
		Host:     fmt.Sprintf("%s:%s", getEnv("DB_HOST", "localhost"), getEnv("DB_PORT", "5432")),
		Path:     "/" + getEnv("DB_NAME", "moodreel"),
		RawQuery: "sslmode=" + getEnv("DB_SSLMODE", "disable"),
	}
	return u.String()
}

func GetPostgresClient(ctx context.Context) (*Postgres, error) {
	postgresOnce.Do(func() {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		pool, err := pgxpool.New(ctx, PostgresDSN())
		if err != nil {
			postgresErr = fmt.Errorf("[PostgresClient] failed to create pool: %w", err)
			return
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			postgresErr = fmt.Errorf("[PostgresClient] failed to ping PostgreSQL: %w", err)
			return
		}

		slog.Info("[PostgresClient] Connected to PostgreSQL successfully")
		postgresInstance = &Postgres{DB: pool}
	})

	return postgresInstance, postgresErr
}

// Healthy pings the pool.
func (p *Postgres) Healthy(ctx context.Context) bool {
	if p == nil || p.DB == nil {
		return false
	}
	return p.DB.Ping(ctx) == nil
}

func (p *Postgres) Close() {
	if p != nil && p.DB != nil {
		p.DB.Close()
	}
}
