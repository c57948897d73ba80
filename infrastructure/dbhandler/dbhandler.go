package dbhandler

import (
	"context"
	"log"

	"database/sql"

	"github.com/behrang/sqlbatch"
	"github.com/lib/pq"
)

// DBHandler contains a connection to database.
type DBHandler struct {
	DB       *sql.DB
	MaxRetry int
}

// Batch creates a transaction and executes the batch of commands in that
// transaction. If a retryable error is received, the batch is retried up to
// MaxRetry times.
func (handler DBHandler) Batch(opts *sql.TxOptions, commands []sqlbatch.Command) ([]interface{}, error) {

	for attempt := 0; ; attempt++ {
		results, err := handler.tryBatch(opts, commands)
		if retryable(err, attempt, handler.MaxRetry) {
			log.Printf("🟡 Retryable Postgres error, retrying: %v", err)
			continue
		}
		return results, err
	}
}

// retryable reports whether the batch should run again: only serialization
// failures qualify, and only while attempts remain.
func retryable(err error, attempt int, max int) bool {
	if attempt >= max {
		return false
	}
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == "40001"
}

func (handler DBHandler) tryBatch(opts *sql.TxOptions, commands []sqlbatch.Command) (results []interface{}, err error) {

	results = make([]interface{}, len(commands))

	tx, err := handler.DB.BeginTx(context.Background(), opts)
	if err != nil {
		return
	}
	defer tx.Rollback()

	results, err = sqlbatch.Batch(tx, commands)

	if err == nil {
		err = tx.Commit()
	}

	return
}
