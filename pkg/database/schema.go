package database

var schema = []string{`
CREATE TABLE IF NOT EXISTS punishments (
	punishment_id  INTEGER PRIMARY KEY AUTOINCREMENT,
	guild_id       TEXT NOT NULL,
	user_id        TEXT NOT NULL,
	added_by       TEXT,
	type           TEXT NOT NULL CHECK (type IN ('BAN', 'MUTE', 'KICK', 'WARN')),
	reason         TEXT NOT NULL DEFAULT 'No reason',
	added_at       DATETIME NOT NULL,
	expires_at     DATETIME,
	removed_by     TEXT,
	removed_at     DATETIME,
	removed_reason TEXT,
	is_active      BOOLEAN NOT NULL DEFAULT 0
);
`, `
CREATE INDEX IF NOT EXISTS punishments_guild_user_idx ON punishments(guild_id, user_id);
`, `
CREATE INDEX IF NOT EXISTS punishments_expiring_idx ON punishments(is_active, expires_at);
`, `
CREATE UNIQUE INDEX IF NOT EXISTS punishments_one_active_idx
	ON punishments(guild_id, user_id, type) WHERE is_active = 1;
`, `
CREATE TABLE IF NOT EXISTS punishment_policies (
	guild_id           TEXT PRIMARY KEY,
	muted_role_id      TEXT,
	logging_channel_id TEXT,
	protected_role_ids TEXT NOT NULL DEFAULT '[]',
	protected_user_ids TEXT NOT NULL DEFAULT '[]',
	updated_at         DATETIME NOT NULL,
	updated_by         TEXT
);
`}
