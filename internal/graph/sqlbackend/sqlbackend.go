// Package sqlbackend implements magellan's relational graph backend
// (spec §4.6, §6.2) over modernc.org/sqlite, a pure-Go SQLite driver —
// grounded on the *sql.DB-wrapping Store pattern used throughout
// mehmetkoksal-w-mind-palace's apps/cli/internal/contracts/store.go
// (CreateTables via a slice of CREATE TABLE IF NOT EXISTS statements,
// methods taking a *sql.DB). Chosen over mattn/go-sqlite3 to avoid
// adding a second cgo dependency profile on top of the tree-sitter
// grammar bindings already required for parsing.
package sqlbackend

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/standardbeagle/magellan/internal/graph"
	"github.com/standardbeagle/magellan/internal/model"
)

// Store is a database/sql-backed graph.Backend. tx is nil on the
// top-level Store returned by Open; WithTx hands its callback a Store
// with tx set, so every method call inside the callback runs against
// the same transaction instead of s.db directly.
type Store struct {
	db *sql.DB
	tx *sql.Tx
}

// Open opens (creating if absent) a SQLite database at path. path may be
// ":memory:", in which case side-store contents live only as long as
// this process (spec §4.6).
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1) // single-writer by spec §5; avoid driver-level contention
	return &Store{db: db}, nil
}

func (s *Store) EnsureSchema() error {
	// database/sql's Exec only prepares a single statement per call for
	// most drivers, so schemaDDL is split and executed one CREATE at a
	// time rather than sent as one multi-statement blob.
	for _, stmt := range strings.Split(schemaDDL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	return s.ensureMeta()
}

func (s *Store) ensureMeta() error {
	row := s.db.QueryRow(`SELECT value FROM magellan_meta WHERE key = 'magellan_schema_version'`)
	var v string
	if err := row.Scan(&v); err == sql.ErrNoRows {
		_, err := s.db.Exec(`INSERT INTO magellan_meta(key, value) VALUES ('magellan_schema_version', ?)`, fmt.Sprint(magellanSchemaVersion))
		return err
	} else if err != nil {
		return err
	}
	return nil
}

func (s *Store) SchemaVersion() (int, error) {
	row := s.db.QueryRow(`SELECT value FROM magellan_meta WHERE key = 'magellan_schema_version'`)
	var v int
	if err := row.Scan(&v); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, err
	}
	return v, nil
}

func (s *Store) Close() error { return s.db.Close() }

// WithTx runs fn inside a single database/sql transaction, committing on
// success and rolling back on any error (spec §4.7 step 5: delete+index
// happen atomically). fn receives a *Store whose queries run on the
// *sql.Tx, so every call inside fn participates in the same transaction.
func (s *Store) WithTx(fn func(tx graph.Backend) error) error {
	sqlTx, err := s.db.Begin()
	if err != nil {
		return err
	}
	txStore := &Store{db: nil, tx: sqlTx}
	if err := fn(txStore); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	return sqlTx.Commit()
}

func (s *Store) exec(query string, args ...any) (sql.Result, error) {
	return s.querier().Exec(query, args...)
}

func (s *Store) query(query string, args ...any) (*sql.Rows, error) {
	return s.querier().Query(query, args...)
}

func (s *Store) queryRow(query string, args ...any) *sql.Row {
	return s.querier().QueryRow(query, args...)
}

type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

func (s *Store) querier() querier {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// --- Files ---

func (s *Store) UpsertFile(f model.File) (int64, error) {
	res, err := s.exec(`
		INSERT INTO files(path, content_hash, last_indexed_at, language) VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET content_hash=excluded.content_hash, last_indexed_at=excluded.last_indexed_at, language=excluded.language
	`, f.Path, f.ContentHash, f.LastIndexedAt, f.Language)
	if err != nil {
		return 0, err
	}
	if id, err := res.LastInsertId(); err == nil && id != 0 {
		return id, nil
	}
	row := s.queryRow(`SELECT id FROM files WHERE path = ?`, f.Path)
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) FileByPath(path string) (*model.File, bool, error) {
	row := s.queryRow(`SELECT id, path, content_hash, last_indexed_at, language FROM files WHERE path = ?`, path)
	var f model.File
	if err := row.Scan(&f.ID, &f.Path, &f.ContentHash, &f.LastIndexedAt, &f.Language); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &f, true, nil
}

func (s *Store) DeleteFile(fileID int64) error {
	_, err := s.exec(`DELETE FROM files WHERE id = ?`, fileID)
	return err
}

func (s *Store) Files() ([]model.File, error) {
	rows, err := s.query(`SELECT id, path, content_hash, last_indexed_at, language FROM files ORDER BY path ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.File
	for rows.Next() {
		var f model.File
		if err := rows.Scan(&f.ID, &f.Path, &f.ContentHash, &f.LastIndexedAt, &f.Language); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// --- Symbols ---

func (s *Store) InsertSymbols(fileID int64, symbols []model.Symbol) ([]int64, error) {
	ids := make([]int64, 0, len(symbols))
	for _, sym := range symbols {
		res, err := s.exec(`
			INSERT INTO symbols(symbol_id, file_id, canonical_fqn, display_fqn, simple_name, kind_normalized, kind_raw, file_path, byte_start, byte_end, start_line, end_line, start_col, end_col, language)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, sym.SymbolID, fileID, sym.CanonicalFQN, sym.DisplayFQN, sym.SimpleName, string(sym.KindNormalized), sym.KindRaw,
			sym.Span.FilePath, sym.Span.ByteStart, sym.Span.ByteEnd, sym.Span.StartLine, sym.Span.EndLine, sym.Span.StartCol, sym.Span.EndCol, sym.Language)
		if err != nil {
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func scanSymbol(rows interface {
	Scan(dest ...any) error
}) (model.Symbol, error) {
	var sym model.Symbol
	var kind string
	err := rows.Scan(&sym.ID, &sym.SymbolID, &sym.FileID, &sym.CanonicalFQN, &sym.DisplayFQN, &sym.SimpleName, &kind, &sym.KindRaw,
		&sym.Span.FilePath, &sym.Span.ByteStart, &sym.Span.ByteEnd, &sym.Span.StartLine, &sym.Span.EndLine, &sym.Span.StartCol, &sym.Span.EndCol, &sym.Language)
	sym.KindNormalized = model.SymbolKind(kind)
	return sym, err
}

const symbolColumns = `id, symbol_id, file_id, canonical_fqn, display_fqn, simple_name, kind_normalized, kind_raw, file_path, byte_start, byte_end, start_line, end_line, start_col, end_col, language`

func (s *Store) SymbolsInFile(fileID int64) ([]model.Symbol, error) {
	rows, err := s.query(`SELECT `+symbolColumns+` FROM symbols WHERE file_id = ? ORDER BY byte_start ASC, byte_end ASC, kind_normalized ASC, simple_name ASC`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

func (s *Store) SymbolByID(symbolID string) (*model.Symbol, bool, error) {
	row := s.queryRow(`SELECT `+symbolColumns+` FROM symbols WHERE symbol_id = ?`, symbolID)
	sym, err := scanSymbol(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &sym, true, nil
}

func (s *Store) SymbolsByDisplayFQN(fqn string) ([]model.Symbol, error) {
	rows, err := s.query(`SELECT `+symbolColumns+` FROM symbols WHERE display_fqn = ? ORDER BY byte_start ASC`, fqn)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

func (s *Store) AllSymbols() ([]model.Symbol, error) {
	rows, err := s.query(`SELECT ` + symbolColumns + ` FROM symbols ORDER BY file_path ASC, byte_start ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

func (s *Store) DeleteSymbols(ids []int64) error {
	return s.deleteByIDs("symbols", ids)
}

func (s *Store) deleteByIDs(table string, ids []int64) error {
	for _, id := range ids {
		if _, err := s.exec(`DELETE FROM `+table+` WHERE id = ?`, id); err != nil {
			return err
		}
	}
	return nil
}

// --- References / Calls / Imports ---

func (s *Store) InsertReferences(fileID int64, refs []model.Reference) ([]int64, error) {
	ids := make([]int64, 0, len(refs))
	for _, r := range refs {
		res, err := s.exec(`
			INSERT INTO references_(file_id, containing_symbol_id, referenced_name, target_symbol_id, file_path, byte_start, byte_end, start_line, end_line, start_col, end_col, kind)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, fileID, r.ContainingSymbolID, r.ReferencedName, r.TargetSymbolID, r.Span.FilePath, r.Span.ByteStart, r.Span.ByteEnd, r.Span.StartLine, r.Span.EndLine, r.Span.StartCol, r.Span.EndCol, string(r.Kind))
		if err != nil {
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Store) InsertCalls(fileID int64, calls []model.Call) ([]int64, error) {
	ids := make([]int64, 0, len(calls))
	for _, c := range calls {
		res, err := s.exec(`
			INSERT INTO calls(file_id, caller_name, callee_name, caller_symbol_id, callee_symbol_id, file_path, byte_start, byte_end, start_line, end_line, start_col, end_col)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, fileID, c.CallerName, c.CalleeName, c.CallerSymbolID, c.CalleeSymbolID, c.Span.FilePath, c.Span.ByteStart, c.Span.ByteEnd, c.Span.StartLine, c.Span.EndLine, c.Span.StartCol, c.Span.EndCol)
		if err != nil {
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Store) InsertImports(fileID int64, imports []model.Import) ([]int64, error) {
	ids := make([]int64, 0, len(imports))
	for _, im := range imports {
		res, err := s.exec(`
			INSERT INTO imports(file_id, import_path, resolved_file_id, file_path, byte_start, byte_end, start_line, end_line, start_col, end_col)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, fileID, im.ImportPath, im.ResolvedFileID, im.Span.FilePath, im.Span.ByteStart, im.Span.ByteEnd, im.Span.StartLine, im.Span.EndLine, im.Span.StartCol, im.Span.EndCol)
		if err != nil {
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

const refColumns = `id, file_id, containing_symbol_id, referenced_name, target_symbol_id, file_path, byte_start, byte_end, start_line, end_line, start_col, end_col, kind`

func scanRef(row interface{ Scan(dest ...any) error }) (model.Reference, error) {
	var r model.Reference
	var kind string
	err := row.Scan(&r.ID, &r.FileID, &r.ContainingSymbolID, &r.ReferencedName, &r.TargetSymbolID, &r.Span.FilePath, &r.Span.ByteStart, &r.Span.ByteEnd, &r.Span.StartLine, &r.Span.EndLine, &r.Span.StartCol, &r.Span.EndCol, &kind)
	r.Kind = model.ReferenceKind(kind)
	return r, err
}

func (s *Store) ReferencesForFile(fileID int64) ([]model.Reference, error) {
	return s.queryRefs(`SELECT `+refColumns+` FROM references_ WHERE file_id = ? ORDER BY byte_start ASC`, fileID)
}

func (s *Store) AllReferences() ([]model.Reference, error) {
	return s.queryRefs(`SELECT ` + refColumns + ` FROM references_ ORDER BY file_path ASC, byte_start ASC`)
}

func (s *Store) ReferencesTo(symbolID string) ([]model.Reference, error) {
	return s.queryRefs(`SELECT `+refColumns+` FROM references_ WHERE target_symbol_id = ? ORDER BY file_path ASC, byte_start ASC`, symbolID)
}

func (s *Store) queryRefs(query string, args ...any) ([]model.Reference, error) {
	rows, err := s.query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reference
	for rows.Next() {
		r, err := scanRef(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const callColumns = `id, file_id, caller_name, callee_name, caller_symbol_id, callee_symbol_id, file_path, byte_start, byte_end, start_line, end_line, start_col, end_col`

func scanCall(row interface{ Scan(dest ...any) error }) (model.Call, error) {
	var c model.Call
	err := row.Scan(&c.ID, &c.FileID, &c.CallerName, &c.CalleeName, &c.CallerSymbolID, &c.CalleeSymbolID, &c.Span.FilePath, &c.Span.ByteStart, &c.Span.ByteEnd, &c.Span.StartLine, &c.Span.EndLine, &c.Span.StartCol, &c.Span.EndCol)
	return c, err
}

func (s *Store) CallsForFile(fileID int64) ([]model.Call, error) {
	return s.queryCalls(`SELECT `+callColumns+` FROM calls WHERE file_id = ? ORDER BY byte_start ASC`, fileID)
}

func (s *Store) AllCalls() ([]model.Call, error) {
	return s.queryCalls(`SELECT ` + callColumns + ` FROM calls ORDER BY file_path ASC, byte_start ASC`)
}

func (s *Store) CallersOf(symbolID string) ([]model.Call, error) {
	return s.queryCalls(`SELECT `+callColumns+` FROM calls WHERE callee_symbol_id = ? ORDER BY file_path ASC, byte_start ASC`, symbolID)
}

func (s *Store) CalleesOf(symbolID string) ([]model.Call, error) {
	return s.queryCalls(`SELECT `+callColumns+` FROM calls WHERE caller_symbol_id = ? ORDER BY file_path ASC, byte_start ASC`, symbolID)
}

func (s *Store) queryCalls(query string, args ...any) ([]model.Call, error) {
	rows, err := s.query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Call
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ImportsForFile(fileID int64) ([]model.Import, error) {
	rows, err := s.query(`SELECT id, file_id, import_path, resolved_file_id, file_path, byte_start, byte_end, start_line, end_line, start_col, end_col FROM imports WHERE file_id = ? ORDER BY byte_start ASC`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Import
	for rows.Next() {
		var im model.Import
		if err := rows.Scan(&im.ID, &im.FileID, &im.ImportPath, &im.ResolvedFileID, &im.Span.FilePath, &im.Span.ByteStart, &im.Span.ByteEnd, &im.Span.StartLine, &im.Span.EndLine, &im.Span.StartCol, &im.Span.EndCol); err != nil {
			return nil, err
		}
		out = append(out, im)
	}
	return out, rows.Err()
}

func (s *Store) AllImports() ([]model.Import, error) {
	rows, err := s.query(`SELECT id, file_id, import_path, resolved_file_id, file_path, byte_start, byte_end, start_line, end_line, start_col, end_col FROM imports ORDER BY file_path ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Import
	for rows.Next() {
		var im model.Import
		if err := rows.Scan(&im.ID, &im.FileID, &im.ImportPath, &im.ResolvedFileID, &im.Span.FilePath, &im.Span.ByteStart, &im.Span.ByteEnd, &im.Span.StartLine, &im.Span.EndLine, &im.Span.StartCol, &im.Span.EndCol); err != nil {
			return nil, err
		}
		out = append(out, im)
	}
	return out, rows.Err()
}

func (s *Store) UpdateReferenceTarget(id int64, symbolID *string) error {
	_, err := s.exec(`UPDATE references_ SET target_symbol_id = ? WHERE id = ?`, symbolID, id)
	return err
}

func (s *Store) UpdateCallTargets(id int64, caller, callee *string) error {
	_, err := s.exec(`UPDATE calls SET caller_symbol_id = ?, callee_symbol_id = ? WHERE id = ?`, caller, callee, id)
	return err
}

func (s *Store) UpdateImportTarget(id int64, fileID *int64) error {
	_, err := s.exec(`UPDATE imports SET resolved_file_id = ? WHERE id = ?`, fileID, id)
	return err
}

func (s *Store) DeleteReferences(ids []int64) error { return s.deleteByIDs("references_", ids) }
func (s *Store) DeleteCalls(ids []int64) error       { return s.deleteByIDs("calls", ids) }
func (s *Store) DeleteImports(ids []int64) error     { return s.deleteByIDs("imports", ids) }

// --- AST nodes ---

func (s *Store) ReplaceAstNodes(fileID int64, nodes []model.AstNode) error {
	if _, err := s.exec(`DELETE FROM ast_nodes WHERE file_id = ?`, fileID); err != nil {
		return err
	}
	for _, n := range nodes {
		var parent any
		if n.ParentID != nil {
			parent = *n.ParentID
		}
		if _, err := s.exec(`
			INSERT INTO ast_nodes(file_id, local_id, parent_id, kind, file_path, byte_start, byte_end, start_line, end_line, start_col, end_col)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, fileID, n.ID, parent, n.Kind, n.Span.FilePath, n.Span.ByteStart, n.Span.ByteEnd, n.Span.StartLine, n.Span.EndLine, n.Span.StartCol, n.Span.EndCol); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) AstForFile(fileID int64) ([]model.AstNode, error) {
	return s.queryAst(`SELECT local_id, parent_id, kind, file_path, byte_start, byte_end, start_line, end_line, start_col, end_col FROM ast_nodes WHERE file_id = ? ORDER BY byte_start ASC`, fileID)
}

func (s *Store) AstByKind(kind string) ([]model.AstNode, error) {
	return s.queryAst(`SELECT local_id, parent_id, kind, file_path, byte_start, byte_end, start_line, end_line, start_col, end_col FROM ast_nodes WHERE kind = ? ORDER BY file_path ASC, byte_start ASC`, kind)
}

func (s *Store) queryAst(query string, args ...any) ([]model.AstNode, error) {
	rows, err := s.query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.AstNode
	for rows.Next() {
		var n model.AstNode
		var parent sql.NullInt64
		if err := rows.Scan(&n.ID, &parent, &n.Kind, &n.Span.FilePath, &n.Span.ByteStart, &n.Span.ByteEnd, &n.Span.StartLine, &n.Span.EndLine, &n.Span.StartCol, &n.Span.EndCol); err != nil {
			return nil, err
		}
		if parent.Valid {
			p := parent.Int64
			n.ParentID = &p
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) DeleteAstNodes(fileID int64) error {
	_, err := s.exec(`DELETE FROM ast_nodes WHERE file_id = ?`, fileID)
	return err
}

// --- Chunks ---

func (s *Store) UpsertChunk(c model.CodeChunk) error {
	_, err := s.exec(`
		INSERT INTO chunks(file_path, byte_start, byte_end, content, content_hash, symbol_name, symbol_kind, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_path, byte_start, byte_end) DO UPDATE SET content=excluded.content, content_hash=excluded.content_hash, symbol_name=excluded.symbol_name, symbol_kind=excluded.symbol_kind, created_at=excluded.created_at
	`, c.FilePath, c.ByteStart, c.ByteEnd, c.Content, c.ContentHash, c.SymbolName, string(c.SymbolKind), c.CreatedAt)
	return err
}

func (s *Store) ChunkBySpan(filePath string, byteStart, byteEnd uint32) (*model.CodeChunk, bool, error) {
	row := s.queryRow(`SELECT file_path, byte_start, byte_end, content, content_hash, symbol_name, symbol_kind, created_at FROM chunks WHERE file_path = ? AND byte_start = ? AND byte_end = ?`, filePath, byteStart, byteEnd)
	c, err := scanChunk(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &c, true, nil
}

func scanChunk(row interface{ Scan(dest ...any) error }) (model.CodeChunk, error) {
	var c model.CodeChunk
	var kind string
	err := row.Scan(&c.FilePath, &c.ByteStart, &c.ByteEnd, &c.Content, &c.ContentHash, &c.SymbolName, &kind, &c.CreatedAt)
	c.SymbolKind = model.SymbolKind(kind)
	return c, err
}

func (s *Store) ChunksForFile(filePath string) ([]model.CodeChunk, error) {
	rows, err := s.query(`SELECT file_path, byte_start, byte_end, content, content_hash, symbol_name, symbol_kind, created_at FROM chunks WHERE file_path = ? ORDER BY byte_start ASC`, filePath)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.CodeChunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ChunksBySymbolName(name string) ([]model.CodeChunk, error) {
	rows, err := s.query(`SELECT file_path, byte_start, byte_end, content, content_hash, symbol_name, symbol_kind, created_at FROM chunks WHERE symbol_name = ? ORDER BY file_path ASC`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.CodeChunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) DeleteChunksForFile(filePath string) error {
	_, err := s.exec(`DELETE FROM chunks WHERE file_path = ?`, filePath)
	return err
}

// --- Metrics ---

func (s *Store) UpsertFileMetrics(m model.FileMetrics) error {
	_, err := s.exec(`
		INSERT INTO file_metrics(file_path, symbol_count, loc, estimated_loc, fan_in, fan_out, complexity_score, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET symbol_count=excluded.symbol_count, loc=excluded.loc, estimated_loc=excluded.estimated_loc, fan_in=excluded.fan_in, fan_out=excluded.fan_out, complexity_score=excluded.complexity_score, last_updated=excluded.last_updated
	`, m.FilePath, m.SymbolCount, m.LOC, m.EstimatedLOC, m.FanIn, m.FanOut, m.ComplexityScore, m.LastUpdated)
	return err
}

func (s *Store) FileMetrics(path string) (*model.FileMetrics, bool, error) {
	row := s.queryRow(`SELECT file_path, symbol_count, loc, estimated_loc, fan_in, fan_out, complexity_score, last_updated FROM file_metrics WHERE file_path = ?`, path)
	var m model.FileMetrics
	if err := row.Scan(&m.FilePath, &m.SymbolCount, &m.LOC, &m.EstimatedLOC, &m.FanIn, &m.FanOut, &m.ComplexityScore, &m.LastUpdated); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &m, true, nil
}

func (s *Store) UpsertSymbolMetrics(m model.SymbolMetrics) error {
	_, err := s.exec(`
		INSERT INTO symbol_metrics(symbol_id, simple_name, kind, file_path, loc, fan_in, fan_out, cyclomatic, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol_id) DO UPDATE SET simple_name=excluded.simple_name, kind=excluded.kind, file_path=excluded.file_path, loc=excluded.loc, fan_in=excluded.fan_in, fan_out=excluded.fan_out, cyclomatic=excluded.cyclomatic, last_updated=excluded.last_updated
	`, m.SymbolID, m.SimpleName, string(m.Kind), m.FilePath, m.LOC, m.FanIn, m.FanOut, m.Cyclomatic, m.LastUpdated)
	return err
}

func (s *Store) SymbolMetrics(symbolID string) (*model.SymbolMetrics, bool, error) {
	row := s.queryRow(`SELECT symbol_id, simple_name, kind, file_path, loc, fan_in, fan_out, cyclomatic, last_updated FROM symbol_metrics WHERE symbol_id = ?`, symbolID)
	var m model.SymbolMetrics
	var kind string
	if err := row.Scan(&m.SymbolID, &m.SimpleName, &kind, &m.FilePath, &m.LOC, &m.FanIn, &m.FanOut, &m.Cyclomatic, &m.LastUpdated); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	m.Kind = model.SymbolKind(kind)
	return &m, true, nil
}

func (s *Store) DeleteFileMetrics(path string) error {
	_, err := s.exec(`DELETE FROM file_metrics WHERE file_path = ?`, path)
	return err
}

func (s *Store) DeleteSymbolMetrics(symbolIDs []string) error {
	for _, id := range symbolIDs {
		if _, err := s.exec(`DELETE FROM symbol_metrics WHERE symbol_id = ?`, id); err != nil {
			return err
		}
	}
	return nil
}

// --- Execution log ---

func (s *Store) StartExecution(r model.ExecutionRecord) error {
	argsJoined := strings.Join(r.Args, "\x1f")
	_, err := s.exec(`
		INSERT INTO execution_log(execution_id, tool_version, args, root, db_path, started_at, outcome)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.ExecutionID, r.ToolVersion, argsJoined, r.Root, r.DBPath, r.StartedAt, string(r.Outcome))
	return err
}

func (s *Store) FinishExecution(executionID string, finishedAt time.Time, outcome model.ExecutionOutcome, counters model.Counters) error {
	_, err := s.exec(`
		UPDATE execution_log SET finished_at = ?, outcome = ?, files = ?, symbols = ?, references_ = ?, calls = ? WHERE execution_id = ?
	`, finishedAt, string(outcome), counters.Files, counters.Symbols, counters.References, counters.Calls, executionID)
	return err
}

func (s *Store) ListRecentExecutions(limit int) ([]model.ExecutionRecord, error) {
	rows, err := s.query(`SELECT execution_id, tool_version, args, root, db_path, started_at, finished_at, outcome, files, symbols, references_, calls FROM execution_log ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ExecutionRecord
	for rows.Next() {
		var r model.ExecutionRecord
		var args string
		var outcome string
		var finished sql.NullTime
		if err := rows.Scan(&r.ExecutionID, &r.ToolVersion, &args, &r.Root, &r.DBPath, &r.StartedAt, &finished, &outcome, &r.Counters.Files, &r.Counters.Symbols, &r.Counters.References, &r.Counters.Calls); err != nil {
			return nil, err
		}
		if args != "" {
			r.Args = strings.Split(args, "\x1f")
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		r.Outcome = model.ExecutionOutcome(outcome)
		out = append(out, r)
	}
	return out, rows.Err()
}
