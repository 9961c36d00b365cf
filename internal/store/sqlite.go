// Package store persists notification history to a local SQLite
// database so the collection survives restarts and is readable offline.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/foodly/order-notify/internal/model"
)

// Cache is a SQLite-backed notification history cache.
type Cache struct {
	db *sqlx.DB
}

// NewCache opens (or creates) a SQLite database at dbPath, enables WAL
// mode, and runs any pending schema migrations.
func NewCache(dbPath string) (*Cache, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	c := &Cache{db: db}
	if err := c.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return c, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (c *Cache) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := c.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = c.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := c.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// SaveAll upserts a batch of notifications in one transaction.
func (c *Cache) SaveAll(ctx context.Context, notifications []model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, upsertQuery)
	if err != nil {
		return fmt.Errorf("preparing upsert statement: %w", err)
	}
	defer stmt.Close()

	for _, n := range notifications {
		args, err := upsertArgs(n)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("upserting notification %s: %w", n.ID, err)
		}
	}

	return tx.Commit()
}

// Save upserts a single notification.
func (c *Cache) Save(ctx context.Context, n model.Notification) error {
	args, err := upsertArgs(n)
	if err != nil {
		return err
	}
	if _, err := c.db.ExecContext(ctx, upsertQuery, args...); err != nil {
		return fmt.Errorf("upserting notification %s: %w", n.ID, err)
	}
	return nil
}

const upsertQuery = `
	INSERT OR REPLACE INTO notifications (
		id, user_id, order_id, kind, priority, status,
		title, message, metadata,
		created_at, updated_at, read_at
	) VALUES (
		?, ?, ?, ?, ?, ?,
		?, ?, ?,
		?, ?, ?
	)`

// upsertArgs flattens a notification into the argument list for upsertQuery.
func upsertArgs(n model.Notification) ([]interface{}, error) {
	metadata, err := json.Marshal(n.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshaling metadata for %s: %w", n.ID, err)
	}

	var readAt interface{}
	if n.ReadAt != nil {
		readAt = n.ReadAt.UTC()
	}

	return []interface{}{
		n.ID, n.UserID, n.OrderID, string(n.Kind), string(n.Priority), string(n.Status),
		n.Title, n.Message, string(metadata),
		n.CreatedAt.UTC(), n.UpdatedAt.UTC(), readAt,
	}, nil
}

// MarkRead flags one cached notification as read.
func (c *Cache) MarkRead(ctx context.Context, id string, readAt time.Time) error {
	_, err := c.db.ExecContext(ctx, `
		UPDATE notifications
		SET status = ?, read_at = COALESCE(read_at, ?)
		WHERE id = ?`,
		string(model.StatusRead), readAt.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("marking notification %s as read: %w", id, err)
	}
	return nil
}

// MarkAllRead flags every cached notification as read with one shared
// timestamp.
func (c *Cache) MarkAllRead(ctx context.Context, readAt time.Time) error {
	_, err := c.db.ExecContext(ctx, `
		UPDATE notifications
		SET status = ?, read_at = COALESCE(read_at, ?)
		WHERE status != ?`,
		string(model.StatusRead), readAt.UTC(), string(model.StatusRead),
	)
	if err != nil {
		return fmt.Errorf("marking all notifications as read: %w", err)
	}
	return nil
}

// Delete removes a cached notification by id.
func (c *Cache) Delete(ctx context.Context, id string) error {
	_, err := c.db.ExecContext(ctx, "DELETE FROM notifications WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting notification %s: %w", id, err)
	}
	return nil
}

// Recent retrieves up to limit cached notifications, newest first.
func (c *Cache) Recent(ctx context.Context, limit int) ([]model.Notification, error) {
	if limit < 1 {
		limit = 50
	}

	rows, err := c.db.QueryxContext(ctx, `
		SELECT * FROM notifications
		ORDER BY created_at DESC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// CountUnread returns the number of cached unread notifications.
func (c *Cache) CountUnread(ctx context.Context) (int, error) {
	var count int
	err := c.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM notifications WHERE status = ?",
		string(model.StatusUnread),
	)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return count, nil
}

// scanNotification scans a notification row from a sqlx.Rows result set.
func scanNotification(rows *sqlx.Rows) (model.Notification, error) {
	var (
		n         model.Notification
		kind      string
		priority  string
		status    string
		metadata  string
		createdAt time.Time
		updatedAt time.Time
		readAt    sql.NullTime
	)

	err := rows.Scan(
		&n.ID, &n.UserID, &n.OrderID, &kind, &priority, &status,
		&n.Title, &n.Message, &metadata,
		&createdAt, &updatedAt, &readAt,
	)
	if err != nil {
		return model.Notification{}, fmt.Errorf("scanning notification row: %w", err)
	}

	n.Kind = model.Kind(kind)
	n.Priority = model.Priority(priority)
	n.Status = model.ReadStatus(status)
	n.CreatedAt = createdAt
	n.UpdatedAt = updatedAt
	if readAt.Valid {
		t := readAt.Time
		n.ReadAt = &t
	}

	if metadata != "" && metadata != "{}" && metadata != "null" {
		if err := json.Unmarshal([]byte(metadata), &n.Metadata); err != nil {
			return model.Notification{}, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}

	return n, nil
}
