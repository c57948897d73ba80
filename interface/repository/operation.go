package repository

import (
	"encoding/json"
	"ghooey/domain"
	"time"

	"github.com/behrang/sqlbatch"
)

const (
	sqlOperationInsert = `
	insert into operations as o (
			reference, kind, account, symbol, amount, status, hashes, cause, create_time, finish_time
		)
		values (
			$1, $2, $3, $4, $5, 'idle', '[]'::jsonb, '', now(), null
		)
	on conflict (reference) do nothing
`

	sqlOperationFind = `
	select
		reference, kind, account, symbol, amount, status, hashes, cause, create_time, finish_time
	from operations
	where reference = $1
`

	sqlOperationFindRecent = `
	select
		reference, kind, account, symbol, amount, status, hashes, cause, create_time, finish_time
	from operations
	order by create_time desc
	limit $1
`

	sqlOperationSetStatus = `
	update operations
		set status = $2
	where reference = $1
`

	sqlOperationSetSucceeded = `
	update operations
		set status = $2, hashes = $3::jsonb, finish_time = $4
	where reference = $1
`

	sqlOperationSetFailed = `
	update operations
		set status = $2, cause = $3, finish_time = $4
	where reference = $1
`
)

type OperationRepository struct {
	batchHandler BatchHandler
}

func NewOperationRepository(db BatchHandler) *OperationRepository {
	return &OperationRepository{batchHandler: db}
}

func readOperation(scan func(...interface{}) error) (interface{}, error) {
	r := domain.OperationRecord{}
	var hashesJson []byte
	err := scan(
		&r.Reference, &r.Kind, &r.Account, &r.Symbol, &r.Amount, &r.Status, &hashesJson, &r.Cause, &r.CreateTime, &r.FinishTime,
	)
	if err != nil {
		return &r, err
	}
	err = json.Unmarshal(hashesJson, &r.Hashes)
	return &r, err
}

func readAllOperations(memo interface{}, scan func(...interface{}) error) (interface{}, error) {
	r := domain.OperationRecord{}
	var hashesJson []byte
	err := scan(
		&r.Reference, &r.Kind, &r.Account, &r.Symbol, &r.Amount, &r.Status, &hashesJson, &r.Cause, &r.CreateTime, &r.FinishTime,
	)
	if err == nil {
		err = json.Unmarshal(hashesJson, &r.Hashes)
	}

	list := memo.([]domain.OperationRecord)
	list = append(list, r)
	return list, err
}

func (repo *OperationRepository) Insert(reference, kind, account, symbol, amount string) (*domain.OperationRecord, error) {

	results, err := repo.batchHandler.Batch(&BatchOptionNormal, []sqlbatch.Command{
		{
			Query: sqlOperationInsert,
			Args: []interface{}{
				reference, kind, account, symbol, amount,
			},
			Affect: 1,
		},
		{
			Query:   sqlOperationFind,
			Args:    []interface{}{reference},
			ReadOne: readOperation,
		},
	})

	result, _ := results[1].(*domain.OperationRecord)
	return result, err
}

func (repo *OperationRepository) Find(reference string) (*domain.OperationRecord, error) {
	results, err := repo.batchHandler.Batch(&BatchOptionNormalReadOnly, []sqlbatch.Command{
		{
			Query:   sqlOperationFind,
			Args:    []interface{}{reference},
			ReadOne: readOperation,
		},
	})
	result, _ := results[0].(*domain.OperationRecord)
	return result, err
}

func (repo *OperationRepository) FindRecent(limit int) ([]domain.OperationRecord, error) {
	results, err := repo.batchHandler.Batch(&BatchOptionNormalReadOnly, []sqlbatch.Command{
		{
			Query:   sqlOperationFindRecent,
			Args:    []interface{}{limit},
			Init:    make([]domain.OperationRecord, 0),
			ReadAll: readAllOperations,
		},
	})
	result, _ := results[0].([]domain.OperationRecord)
	return result, err
}

func (repo *OperationRepository) SetStatus(reference string, status string) error {
	_, err := repo.batchHandler.Batch(&BatchOptionNormal, []sqlbatch.Command{
		{
			Query:  sqlOperationSetStatus,
			Args:   []interface{}{reference, status},
			Affect: 1,
		},
	})
	return err
}

func (repo *OperationRepository) SetSucceeded(reference string, hashes []string, timestamp time.Time) error {
	hashesJson, _ := json.Marshal(hashes)
	_, err := repo.batchHandler.Batch(&BatchOptionNormal, []sqlbatch.Command{
		{
			Query:  sqlOperationSetSucceeded,
			Args:   []interface{}{reference, domain.StatusTransactionSuccessful, hashesJson, timestamp},
			Affect: 1,
		},
	})
	return err
}

func (repo *OperationRepository) SetFailed(reference string, cause string, timestamp time.Time) error {
	_, err := repo.batchHandler.Batch(&BatchOptionNormal, []sqlbatch.Command{
		{
			Query:  sqlOperationSetFailed,
			Args:   []interface{}{reference, domain.StatusError, cause, timestamp},
			Affect: 1,
		},
	})
	return err
}
