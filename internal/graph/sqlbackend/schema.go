package sqlbackend

// schemaDDL creates the relational tables backing graph.Backend (spec
// §6.2). Column choices mirror the model.* struct fields directly; spans
// are stored flattened rather than as a foreign key, since a Span's
// identity is purely positional (span.Span has no id of its own).
const schemaDDL = `
CREATE TABLE IF NOT EXISTS magellan_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS files (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	path             TEXT NOT NULL UNIQUE,
	content_hash     TEXT NOT NULL,
	last_indexed_at  DATETIME NOT NULL,
	language         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS symbols (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol_id       TEXT NOT NULL UNIQUE,
	file_id         INTEGER NOT NULL REFERENCES files(id),
	canonical_fqn   TEXT NOT NULL,
	display_fqn     TEXT NOT NULL,
	simple_name     TEXT NOT NULL,
	kind_normalized TEXT NOT NULL,
	kind_raw        TEXT NOT NULL,
	file_path       TEXT NOT NULL,
	byte_start      INTEGER NOT NULL,
	byte_end        INTEGER NOT NULL,
	start_line      INTEGER NOT NULL,
	end_line        INTEGER NOT NULL,
	start_col       INTEGER NOT NULL,
	end_col         INTEGER NOT NULL,
	language        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_id);
CREATE INDEX IF NOT EXISTS idx_symbols_fqn ON symbols(display_fqn);

CREATE TABLE IF NOT EXISTS references_ (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id              INTEGER NOT NULL REFERENCES files(id),
	containing_symbol_id INTEGER,
	referenced_name      TEXT NOT NULL,
	target_symbol_id     TEXT,
	file_path            TEXT NOT NULL,
	byte_start           INTEGER NOT NULL,
	byte_end             INTEGER NOT NULL,
	start_line           INTEGER NOT NULL,
	end_line             INTEGER NOT NULL,
	start_col            INTEGER NOT NULL,
	end_col              INTEGER NOT NULL,
	kind                 TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_references_file ON references_(file_id);
CREATE INDEX IF NOT EXISTS idx_references_target ON references_(target_symbol_id);

CREATE TABLE IF NOT EXISTS calls (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id          INTEGER NOT NULL REFERENCES files(id),
	caller_name      TEXT NOT NULL,
	callee_name      TEXT NOT NULL,
	caller_symbol_id TEXT,
	callee_symbol_id TEXT,
	file_path        TEXT NOT NULL,
	byte_start       INTEGER NOT NULL,
	byte_end         INTEGER NOT NULL,
	start_line       INTEGER NOT NULL,
	end_line         INTEGER NOT NULL,
	start_col        INTEGER NOT NULL,
	end_col          INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_calls_file ON calls(file_id);
CREATE INDEX IF NOT EXISTS idx_calls_caller ON calls(caller_symbol_id);
CREATE INDEX IF NOT EXISTS idx_calls_callee ON calls(callee_symbol_id);

CREATE TABLE IF NOT EXISTS imports (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id           INTEGER NOT NULL REFERENCES files(id),
	import_path       TEXT NOT NULL,
	resolved_file_id  INTEGER,
	file_path         TEXT NOT NULL,
	byte_start        INTEGER NOT NULL,
	byte_end          INTEGER NOT NULL,
	start_line        INTEGER NOT NULL,
	end_line          INTEGER NOT NULL,
	start_col         INTEGER NOT NULL,
	end_col           INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_imports_file ON imports(file_id);

CREATE TABLE IF NOT EXISTS ast_nodes (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id    INTEGER NOT NULL REFERENCES files(id),
	local_id   INTEGER NOT NULL,
	parent_id  INTEGER,
	kind       TEXT NOT NULL,
	file_path  TEXT NOT NULL,
	byte_start INTEGER NOT NULL,
	byte_end   INTEGER NOT NULL,
	start_line INTEGER NOT NULL,
	end_line   INTEGER NOT NULL,
	start_col  INTEGER NOT NULL,
	end_col    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ast_file ON ast_nodes(file_id);
CREATE INDEX IF NOT EXISTS idx_ast_kind ON ast_nodes(kind);

CREATE TABLE IF NOT EXISTS chunks (
	file_path   TEXT NOT NULL,
	byte_start  INTEGER NOT NULL,
	byte_end    INTEGER NOT NULL,
	content     TEXT NOT NULL,
	content_hash INTEGER NOT NULL,
	symbol_name TEXT NOT NULL,
	symbol_kind TEXT NOT NULL,
	created_at  DATETIME NOT NULL,
	PRIMARY KEY (file_path, byte_start, byte_end)
);

CREATE TABLE IF NOT EXISTS file_metrics (
	file_path        TEXT PRIMARY KEY,
	symbol_count     INTEGER NOT NULL,
	loc              INTEGER NOT NULL,
	estimated_loc    INTEGER NOT NULL,
	fan_in           INTEGER NOT NULL,
	fan_out          INTEGER NOT NULL,
	complexity_score REAL NOT NULL,
	last_updated     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS symbol_metrics (
	symbol_id   TEXT PRIMARY KEY,
	simple_name TEXT NOT NULL,
	kind        TEXT NOT NULL,
	file_path   TEXT NOT NULL,
	loc         INTEGER NOT NULL,
	fan_in      INTEGER NOT NULL,
	fan_out     INTEGER NOT NULL,
	cyclomatic  INTEGER NOT NULL,
	last_updated DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS execution_log (
	execution_id TEXT PRIMARY KEY,
	tool_version TEXT NOT NULL,
	args         TEXT NOT NULL,
	root         TEXT NOT NULL,
	db_path      TEXT NOT NULL,
	started_at   DATETIME NOT NULL,
	finished_at  DATETIME,
	outcome      TEXT NOT NULL,
	files        INTEGER NOT NULL DEFAULT 0,
	symbols      INTEGER NOT NULL DEFAULT 0,
	references_  INTEGER NOT NULL DEFAULT 0,
	calls        INTEGER NOT NULL DEFAULT 0
);
`

// magellanSchemaVersion is bumped whenever schemaDDL's shape changes in
// a way that breaks backward compatibility (spec §4.6 open-schema
// preflight).
const magellanSchemaVersion = 1
