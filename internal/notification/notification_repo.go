package notification

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/labnotify/labnotify/internal/auth/role"
	"github.com/labnotify/labnotify/internal/auth/session"
	"github.com/labnotify/labnotify/internal/database"
)

type listMode int

const (
	listAll listMode = iota
	listUnread
	listActive
)

type Repository struct {
	db database.Database
}

func NewRepository(db database.Database) Repository {
	return Repository{db: db}
}

const notificationColumns = `notification_id, notification_type, severity, category, priority,
	status, message, recipients, creator, read, dismissed, created_on`

func scanRow(row pgx.Row) (Notification, error) {
	var (
		entity     Notification
		recipients []string
	)

	if errScan := row.Scan(&entity.NotificationID, &entity.Type, &entity.Severity,
		&entity.Category, &entity.Priority, &entity.Status, &entity.Message,
		&recipients, &entity.Creator, &entity.Read, &entity.Dismissed,
		&entity.CreatedOn); errScan != nil {
		return Notification{}, database.DBErr(errScan)
	}

	entity.Recipients = make([]role.Role, len(recipients))
	for i, recipient := range recipients {
		entity.Recipients[i] = role.Role(recipient)
	}

	return entity, nil
}

func recipientStrings(recipients []role.Role) []string {
	out := make([]string, len(recipients))
	for i, recipient := range recipients {
		out[i] = recipient.String()
	}

	return out
}

func (r Repository) Insert(ctx context.Context, entity *Notification) error {
	return database.DBErr(r.db.ExecInsertBuilderWithReturnValue(ctx, r.db.Builder().
		Insert("notification").
		Columns("notification_type", "severity", "category", "priority", "status",
			"message", "recipients", "creator", "read", "dismissed", "created_on").
		Values(entity.Type, entity.Severity, entity.Category, entity.Priority,
			entity.Status, entity.Message, recipientStrings(entity.Recipients),
			entity.Creator, entity.Read, entity.Dismissed, entity.CreatedOn).
		Suffix("RETURNING notification_id"), &entity.NotificationID))
}

func (r Repository) ByID(ctx context.Context, notificationID int64) (Notification, error) {
	row, errRow := r.db.QueryRowBuilder(ctx, r.db.Builder().
		Select(notificationColumns).
		From("notification").
		Where(sq.Eq{"notification_id": notificationID}))
	if errRow != nil {
		return Notification{}, database.DBErr(errRow)
	}

	return scanRow(row)
}

// List returns entities visible to caller, newest first. The visibility predicate is
// part of the query itself, filtering happens before rows ever leave the store.
func (r Repository) List(ctx context.Context, caller session.User, filter Filter, mode listMode) ([]Notification, error) {
	constraints := sq.And{visibilityClause(caller)}

	switch mode {
	case listUnread:
		constraints = append(constraints, sq.Eq{"read": false})
	case listActive:
		constraints = append(constraints, sq.Eq{"dismissed": false})
	case listAll:
	}

	if filter.Category != "" {
		constraints = append(constraints, sq.Eq{"category": filter.Category})
	}

	if filter.Priority != "" {
		constraints = append(constraints, sq.Eq{"priority": filter.Priority})
	}

	if filter.Status != "" {
		constraints = append(constraints, sq.Eq{"status": filter.Status})
	}

	if filter.Severity != "" {
		constraints = append(constraints, sq.Eq{"severity": filter.Severity})
	}

	rows, errRows := r.db.QueryBuilder(ctx, r.db.Builder().
		Select(notificationColumns).
		From("notification").
		Where(constraints).
		OrderBy("created_on DESC", "notification_id DESC"))
	if errRows != nil {
		return nil, database.DBErr(errRows)
	}

	defer rows.Close()

	notifications := []Notification{}

	for rows.Next() {
		entity, errScan := scanRow(rows)
		if errScan != nil {
			return nil, errScan
		}

		notifications = append(notifications, entity)
	}

	return notifications, nil
}

func (r Repository) CountUnread(ctx context.Context, caller session.User) (int, error) {
	count, errCount := r.db.GetCount(ctx, r.db.Builder().
		Select("count(notification_id)").
		From("notification").
		Where(sq.And{
			visibilityClause(caller),
			sq.Eq{"read": false},
			sq.Eq{"dismissed": false},
		}))
	if errCount != nil {
		return 0, database.DBErr(errCount)
	}

	return int(count), nil
}

// Mutate applies fn to the row under a per-entity lock and persists the result.
// Concurrent mutations of the same entity serialize on the row lock, so read-
// modify-write cycles cannot lose updates.
func (r Repository) Mutate(ctx context.Context, notificationID int64, fn func(entity *Notification) error) (Notification, error) {
	var entity Notification

	errTx := r.db.WrapTx(ctx, func(transaction pgx.Tx) error {
		query, args, errQuery := r.db.Builder().
			Select(notificationColumns).
			From("notification").
			Where(sq.Eq{"notification_id": notificationID}).
			Suffix("FOR UPDATE").
			ToSql()
		if errQuery != nil {
			return database.DBErr(errQuery)
		}

		locked, errScan := scanRow(transaction.QueryRow(ctx, query, args...))
		if errScan != nil {
			return errScan
		}

		if errFn := fn(&locked); errFn != nil {
			return errFn
		}

		updateQuery, updateArgs, errUpdate := r.db.Builder().
			Update("notification").
			Set("notification_type", locked.Type).
			Set("severity", locked.Severity).
			Set("category", locked.Category).
			Set("priority", locked.Priority).
			Set("status", locked.Status).
			Set("message", locked.Message).
			Set("recipients", recipientStrings(locked.Recipients)).
			Set("read", locked.Read).
			Set("dismissed", locked.Dismissed).
			Where(sq.Eq{"notification_id": notificationID}).
			ToSql()
		if errUpdate != nil {
			return database.DBErr(errUpdate)
		}

		if _, errExec := transaction.Exec(ctx, updateQuery, updateArgs...); errExec != nil {
			return database.DBErr(errExec)
		}

		entity = locked

		return nil
	})
	if errTx != nil {
		return Notification{}, errTx
	}

	return entity, nil
}

func (r Repository) Delete(ctx context.Context, notificationID int64) error {
	return database.DBErr(r.db.ExecDeleteBuilder(ctx, r.db.Builder().
		Delete("notification").
		Where(sq.Eq{"notification_id": notificationID})))
}
