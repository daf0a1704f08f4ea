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

CREATE TABLE IF NOT EXISTS rfps (
	id                      TEXT PRIMARY KEY,
	title                   TEXT NOT NULL,
	description             TEXT NOT NULL DEFAULT '',
	budget                  REAL NOT NULL DEFAULT 0,
	delivery_timeline       TEXT NOT NULL DEFAULT '',
	items                   TEXT NOT NULL DEFAULT '[]',
	payment_terms           TEXT NOT NULL DEFAULT '',
	warranty_requirements   TEXT NOT NULL DEFAULT '',
	additional_requirements TEXT NOT NULL DEFAULT '',
	status                  TEXT NOT NULL DEFAULT 'draft',
	sent_to                 TEXT NOT NULL DEFAULT '[]',
	created_at              DATETIME NOT NULL,
	updated_at              DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS vendors (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL UNIQUE,
	phone      TEXT NOT NULL DEFAULT '',
	address    TEXT NOT NULL DEFAULT '',
	category   TEXT NOT NULL DEFAULT '',
	rating     REAL NOT NULL DEFAULT 0,
	notes      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS proposals (
	id            TEXT PRIMARY KEY,
	rfp_id        TEXT NOT NULL REFERENCES rfps(id),
	vendor_id     TEXT NOT NULL REFERENCES vendors(id),
	raw_content   TEXT NOT NULL DEFAULT '',
	parsed_data   TEXT NOT NULL DEFAULT '{}',
	ai_analysis   TEXT,
	message_id    TEXT NOT NULL DEFAULT '',
	received_at   DATETIME,
	email_subject TEXT NOT NULL DEFAULT '',
	email_from    TEXT NOT NULL DEFAULT '',
	attachments   TEXT NOT NULL DEFAULT '[]',
	status        TEXT NOT NULL DEFAULT 'parsed',
	created_at    DATETIME NOT NULL,
	updated_at    DATETIME NOT NULL,
	UNIQUE (rfp_id, vendor_id)
);

CREATE TABLE IF NOT EXISTS email_logs (
	id         TEXT PRIMARY KEY,
	rfp_id     TEXT,
	vendor_id  TEXT,
	direction  TEXT NOT NULL,
	subject    TEXT NOT NULL DEFAULT '',
	body       TEXT NOT NULL DEFAULT '',
	from_addr  TEXT NOT NULL DEFAULT '',
	to_addr    TEXT NOT NULL DEFAULT '',
	message_id TEXT NOT NULL DEFAULT '',
	outcome    TEXT NOT NULL DEFAULT 'success',
	error      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_email_logs_vendor
	ON email_logs (vendor_id, direction, outcome, created_at);

CREATE INDEX IF NOT EXISTS idx_email_logs_rfp
	ON email_logs (rfp_id, created_at);

CREATE INDEX IF NOT EXISTS idx_proposals_rfp
	ON proposals (rfp_id, created_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
