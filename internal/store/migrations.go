package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL DEFAULT '',
	order_id    TEXT NOT NULL DEFAULT '',
	kind        TEXT NOT NULL DEFAULT '',
	priority    TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'UNREAD',
	title       TEXT NOT NULL DEFAULT '',
	message     TEXT NOT NULL DEFAULT '',
	metadata    TEXT NOT NULL DEFAULT '{}',
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL,
	read_at     DATETIME
);

CREATE INDEX IF NOT EXISTS idx_notifications_status ON notifications(status);
CREATE INDEX IF NOT EXISTS idx_notifications_created_at ON notifications(created_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
