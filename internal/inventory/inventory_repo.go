package inventory

import (
	"context"
	"time"

	"github.com/labnotify/labnotify/internal/database"
)

type Repository struct {
	db database.Database
}

func NewRepository(db database.Database) Repository {
	return Repository{db: db}
}

func (r Repository) Items(ctx context.Context) ([]Item, error) {
	rows, errRows := r.db.QueryBuilder(ctx, r.db.Builder().
		Select("chemical_id", "name", "quantity", "unit", "alert_threshold", "created_on", "updated_on").
		From("chemical_inventory").
		OrderBy("chemical_id"))
	if errRows != nil {
		return nil, database.DBErr(errRows)
	}

	defer rows.Close()

	items := []Item{}

	for rows.Next() {
		var item Item
		if errScan := rows.Scan(&item.ID, &item.Name, &item.Quantity, &item.Unit,
			&item.AlertThreshold, &item.CreatedOn, &item.UpdatedOn); errScan != nil {
			return nil, database.DBErr(errScan)
		}

		items = append(items, item)
	}

	return items, nil
}

// Save upserts an inventory row. The inventory is maintained upstream, this exists
// for seeding and tests.
func (r Repository) Save(ctx context.Context, item *Item) error {
	now := time.Now()

	if item.ID > 0 {
		item.UpdatedOn = now

		return database.DBErr(r.db.ExecUpdateBuilder(ctx, r.db.Builder().
			Update("chemical_inventory").
			Set("name", item.Name).
			Set("quantity", item.Quantity).
			Set("unit", item.Unit).
			Set("alert_threshold", item.AlertThreshold).
			Set("updated_on", item.UpdatedOn).
			Where("chemical_id = ?", item.ID)))
	}

	item.CreatedOn = now
	item.UpdatedOn = now

	return database.DBErr(r.db.ExecInsertBuilderWithReturnValue(ctx, r.db.Builder().
		Insert("chemical_inventory").
		Columns("name", "quantity", "unit", "alert_threshold", "created_on", "updated_on").
		Values(item.Name, item.Quantity, item.Unit, item.AlertThreshold, item.CreatedOn, item.UpdatedOn).
		Suffix("RETURNING chemical_id"), &item.ID))
}
