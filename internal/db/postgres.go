package db

import (
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// InitPostgres opens the sqlx connection used by the ingest hot path,
// retrying the initial connect the way the teacher's InitPostgres does
// (the database container can still be coming up), then sizes the pool
// per the spec's "pool size >= 20, overflow = 40" requirement.
func InitPostgres(dsn string, poolSize, overflow int) (*sqlx.DB, error) {
	var (
		sdb *sqlx.DB
		err error
	)

	for i := 0; i < 10; i++ {
		sdb, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		return nil, err
	}

	sdb.SetMaxOpenConns(poolSize + overflow)
	sdb.SetMaxIdleConns(poolSize)
	sdb.SetConnMaxLifetime(30 * time.Minute)

	return sdb, nil
}
