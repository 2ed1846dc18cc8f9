package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/salaryflow/payroll-backend/internal/payroll/domain"
	"github.com/salaryflow/payroll-backend/pkg/database"
)

// LineItemRepository writes monetary line items in bounded chunks. Each
// chunk is one transaction: the delete/insert pair either fully lands or
// fully rolls back, so no duplicate (record, component) rows can coexist.
type LineItemRepository struct {
	db *database.DB
}

// NewLineItemRepository creates a new line item repository
func NewLineItemRepository(db *database.DB) *LineItemRepository {
	return &LineItemRepository{db: db}
}

// ReplaceChunk deletes any existing items at the chunk's (record, component)
// keys and inserts the new ones, as one atomic unit. This is the
// delete-then-insert upsert used under UPDATE/UPSERT: O(1) round trips per
// chunk instead of a read-modify-write per row.
func (r *LineItemRepository) ReplaceChunk(ctx context.Context, items []domain.LineItem) error {
	if len(items) == 0 {
		return nil
	}

	return r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := deleteByKeys(ctx, tx, itemKeys(items)); err != nil {
			return err
		}
		return insertItems(ctx, tx, items)
	})
}

// InsertRows inserts items without a prior delete, for CREATE mode. Each
// inner slice holds the items of one source row: a row with any
// already-existing (record, component) key is withheld in full and its
// conflicting keys returned, so a failed row leaves no partial items behind.
// Items of clean rows still land. The whole operation is one transaction.
func (r *LineItemRepository) InsertRows(ctx context.Context, rows [][]domain.LineItem) ([]domain.ItemKey, error) {
	var all []domain.LineItem
	for _, row := range rows {
		all = append(all, row...)
	}
	if len(all) == 0 {
		return nil, nil
	}

	var conflicts []domain.ItemKey
	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		existing, err := selectExistingKeys(ctx, tx, itemKeys(all))
		if err != nil {
			return err
		}

		var fresh []domain.LineItem
		for _, row := range rows {
			clean := true
			for _, item := range row {
				if _, ok := existing[item.Key()]; ok {
					conflicts = append(conflicts, item.Key())
					clean = false
				}
			}
			if clean {
				fresh = append(fresh, row...)
			}
		}

		if len(fresh) == 0 {
			return nil
		}
		return insertItems(ctx, tx, fresh)
	})
	if err != nil {
		return nil, err
	}

	return conflicts, nil
}

// ListByRecord returns the line items attached to one payroll record.
func (r *LineItemRepository) ListByRecord(ctx context.Context, recordID string) ([]domain.LineItem, error) {
	var items []domain.LineItem

	query := `
		SELECT record_id, component_id, amount
		FROM payroll_line_items
		WHERE record_id = $1
		ORDER BY component_id
	`

	if err := r.db.SelectContext(ctx, &items, query, recordID); err != nil {
		return nil, err
	}

	return items, nil
}

func itemKeys(items []domain.LineItem) []domain.ItemKey {
	keys := make([]domain.ItemKey, 0, len(items))
	for _, item := range items {
		keys = append(keys, item.Key())
	}
	return keys
}

// keyTuples renders a (record_id, component_id) IN (...) clause starting at
// placeholder $offset+1.
func keyTuples(keys []domain.ItemKey, offset int) (string, []interface{}) {
	tuples := make([]string, 0, len(keys))
	args := make([]interface{}, 0, len(keys)*2)
	for i, key := range keys {
		tuples = append(tuples, fmt.Sprintf("($%d, $%d)", offset+i*2+1, offset+i*2+2))
		args = append(args, key.RecordID, key.ComponentID)
	}
	return strings.Join(tuples, ", "), args
}

func deleteByKeys(ctx context.Context, tx *sqlx.Tx, keys []domain.ItemKey) error {
	tuples, args := keyTuples(keys, 0)
	query := fmt.Sprintf(`
		DELETE FROM payroll_line_items
		WHERE (record_id, component_id) IN (%s)
	`, tuples)

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

func selectExistingKeys(ctx context.Context, tx *sqlx.Tx, keys []domain.ItemKey) (map[domain.ItemKey]struct{}, error) {
	tuples, args := keyTuples(keys, 0)
	query := fmt.Sprintf(`
		SELECT record_id, component_id
		FROM payroll_line_items
		WHERE (record_id, component_id) IN (%s)
	`, tuples)

	rows, err := tx.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	existing := make(map[domain.ItemKey]struct{})
	for rows.Next() {
		var key domain.ItemKey
		if err := rows.Scan(&key.RecordID, &key.ComponentID); err != nil {
			return nil, err
		}
		existing[key] = struct{}{}
	}

	return existing, rows.Err()
}

func insertItems(ctx context.Context, tx *sqlx.Tx, items []domain.LineItem) error {
	values := make([]string, 0, len(items))
	args := make([]interface{}, 0, len(items)*4)
	for i, item := range items {
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d)", i*4+1, i*4+2, i*4+3, i*4+4))
		args = append(args, uuid.New().String(), item.RecordID, item.ComponentID, item.Amount)
	}

	query := fmt.Sprintf(`
		INSERT INTO payroll_line_items (id, record_id, component_id, amount)
		VALUES %s
	`, strings.Join(values, ", "))

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}
