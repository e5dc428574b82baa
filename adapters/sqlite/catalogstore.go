package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/artpar/stacgate/ports"
)

// CatalogStore persists catalog, collection and item documents.
type CatalogStore struct {
	db *DB
}

// NewCatalogStore creates a new SQLite catalog store.
func NewCatalogStore(db *DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// catalogRow pairs a stored document with its access metadata.
type catalogRow struct {
	Path  string
	Owner string
	Doc   map[string]any
}

// visibleClause restricts catalog rows to public catalogs plus those
// owned by one of the caller's workspaces.
func visibleClause(workspaces []string) (string, []any) {
	if len(workspaces) == 0 {
		return "owner = ''", nil
	}
	marks := make([]string, len(workspaces))
	args := make([]any, len(workspaces))
	for i, w := range workspaces {
		marks[i] = "?"
		args[i] = w
	}
	return "(owner = '' OR owner IN (" + strings.Join(marks, ",") + "))", args
}

// GetCatalog retrieves one catalog document by path.
func (s *CatalogStore) GetCatalog(ctx context.Context, path string, workspaces []string) (map[string]any, error) {
	clause, args := visibleClause(workspaces)
	row := s.db.QueryRowContext(ctx,
		"SELECT doc FROM catalogs WHERE path = ? AND "+clause, append([]any{path}, args...)...)
	return scanDoc(row)
}

// ListCatalogs returns all catalog documents visible to the caller.
func (s *CatalogStore) ListCatalogs(ctx context.Context, workspaces []string) ([]catalogRow, error) {
	clause, args := visibleClause(workspaces)
	rows, err := s.db.QueryContext(ctx,
		"SELECT path, owner, doc FROM catalogs WHERE "+clause+" ORDER BY path", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalogRow
	for rows.Next() {
		var r catalogRow
		var raw string
		if err := rows.Scan(&r.Path, &r.Owner, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &r.Doc); err != nil {
			return nil, fmt.Errorf("decode catalog %s: %w", r.Path, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CreateCatalog stores a new catalog document. It fails when the path
// is already taken.
func (s *CatalogStore) CreateCatalog(ctx context.Context, path, owner string, doc map[string]any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO catalogs (path, owner, doc) VALUES (?, ?, ?)", path, owner, string(raw))
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return fmt.Errorf("catalog %s already exists", path)
	}
	return err
}

// UpdateCatalog replaces an existing catalog document.
func (s *CatalogStore) UpdateCatalog(ctx context.Context, path string, doc map[string]any, workspaces []string) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	clause, args := visibleClause(workspaces)
	res, err := s.db.ExecContext(ctx,
		"UPDATE catalogs SET doc = ?, updated_at = ? WHERE path = ? AND "+clause,
		append([]any{string(raw), time.Now().UTC(), path}, args...)...)
	if err != nil {
		return err
	}
	return affected(res)
}

// DeleteCatalog removes a catalog; collections and items cascade.
func (s *CatalogStore) DeleteCatalog(ctx context.Context, path string, workspaces []string) error {
	clause, args := visibleClause(workspaces)
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM catalogs WHERE path = ? AND "+clause, append([]any{path}, args...)...)
	if err != nil {
		return err
	}
	return affected(res)
}

// GetCollection retrieves one collection document.
func (s *CatalogStore) GetCollection(ctx context.Context, catalogPath, id string, workspaces []string) (map[string]any, error) {
	if _, err := s.GetCatalog(ctx, catalogPath, workspaces); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		"SELECT doc FROM collections WHERE catalog_path = ? AND id = ?", catalogPath, id)
	return scanDoc(row)
}

// ListCollections returns the collection documents of one catalog.
func (s *CatalogStore) ListCollections(ctx context.Context, catalogPath string, workspaces []string) ([]map[string]any, error) {
	if _, err := s.GetCatalog(ctx, catalogPath, workspaces); err != nil {
		return nil, err
	}
	return s.scanDocs(ctx,
		"SELECT doc FROM collections WHERE catalog_path = ? ORDER BY id", catalogPath)
}

// AllCollections returns every collection document visible to the
// caller, tagged with its catalog path.
func (s *CatalogStore) AllCollections(ctx context.Context, workspaces []string) ([]map[string]any, []string, error) {
	clause, args := visibleClause(workspaces)
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.catalog_path, c.doc
		FROM collections c JOIN catalogs k ON k.path = c.catalog_path
		WHERE `+clause+`
		ORDER BY c.catalog_path, c.id`, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var docs []map[string]any
	var paths []string
	for rows.Next() {
		var path, raw string
		if err := rows.Scan(&path, &raw); err != nil {
			return nil, nil, err
		}
		var doc map[string]any
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, nil, fmt.Errorf("decode collection: %w", err)
		}
		docs = append(docs, doc)
		paths = append(paths, path)
	}
	return docs, paths, rows.Err()
}

// CreateCollection stores a new collection document.
func (s *CatalogStore) CreateCollection(ctx context.Context, catalogPath, id string, doc map[string]any, workspaces []string) error {
	if _, err := s.GetCatalog(ctx, catalogPath, workspaces); err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode collection: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO collections (catalog_path, id, doc) VALUES (?, ?, ?)", catalogPath, id, string(raw))
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return fmt.Errorf("collection %s already exists", id)
	}
	return err
}

// UpdateCollection replaces an existing collection document.
func (s *CatalogStore) UpdateCollection(ctx context.Context, catalogPath, id string, doc map[string]any, workspaces []string) error {
	if _, err := s.GetCatalog(ctx, catalogPath, workspaces); err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode collection: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE collections SET doc = ?, updated_at = ? WHERE catalog_path = ? AND id = ?",
		string(raw), time.Now().UTC(), catalogPath, id)
	if err != nil {
		return err
	}
	return affected(res)
}

// DeleteCollection removes a collection; items cascade.
func (s *CatalogStore) DeleteCollection(ctx context.Context, catalogPath, id string, workspaces []string) error {
	if _, err := s.GetCatalog(ctx, catalogPath, workspaces); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM collections WHERE catalog_path = ? AND id = ?", catalogPath, id)
	if err != nil {
		return err
	}
	return affected(res)
}

// GetItem retrieves one item document.
func (s *CatalogStore) GetItem(ctx context.Context, catalogPath, collectionID, id string, workspaces []string) (map[string]any, error) {
	if _, err := s.GetCatalog(ctx, catalogPath, workspaces); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		"SELECT doc FROM items WHERE catalog_path = ? AND collection_id = ? AND id = ?",
		catalogPath, collectionID, id)
	return scanDoc(row)
}

// ListItems returns up to limit item documents of one collection.
func (s *CatalogStore) ListItems(ctx context.Context, catalogPath, collectionID string, limit int, workspaces []string) ([]map[string]any, error) {
	if _, err := s.GetCollection(ctx, catalogPath, collectionID, workspaces); err != nil {
		return nil, err
	}
	return s.scanDocs(ctx,
		"SELECT doc FROM items WHERE catalog_path = ? AND collection_id = ? ORDER BY id LIMIT ?",
		catalogPath, collectionID, limit)
}

// CreateItem stores a new item document. Collection existence is the
// caller's concern.
func (s *CatalogStore) CreateItem(ctx context.Context, catalogPath, collectionID, id string, doc map[string]any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode item: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO items (catalog_path, collection_id, id, doc) VALUES (?, ?, ?, ?)",
		catalogPath, collectionID, id, string(raw))
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return fmt.Errorf("item %s already exists", id)
	}
	return err
}

// UpdateItem replaces an existing item document.
func (s *CatalogStore) UpdateItem(ctx context.Context, catalogPath, collectionID, id string, doc map[string]any, workspaces []string) error {
	if _, err := s.GetCatalog(ctx, catalogPath, workspaces); err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode item: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE items SET doc = ?, updated_at = ? WHERE catalog_path = ? AND collection_id = ? AND id = ?",
		string(raw), time.Now().UTC(), catalogPath, collectionID, id)
	if err != nil {
		return err
	}
	return affected(res)
}

// DeleteItem removes an item.
func (s *CatalogStore) DeleteItem(ctx context.Context, catalogPath, collectionID, id string, workspaces []string) error {
	if _, err := s.GetCatalog(ctx, catalogPath, workspaces); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM items WHERE catalog_path = ? AND collection_id = ? AND id = ?",
		catalogPath, collectionID, id)
	if err != nil {
		return err
	}
	return affected(res)
}

// itemRow tags an item document with its location.
type itemRow struct {
	CatalogPath  string
	CollectionID string
	Doc          map[string]any
}

// ScanItems returns item rows across the visible catalogs, optionally
// narrowed to given catalog paths.
func (s *CatalogStore) ScanItems(ctx context.Context, catalogPaths []string, limit int, workspaces []string) ([]itemRow, error) {
	clause, args := visibleClause(workspaces)
	q := `
		SELECT i.catalog_path, i.collection_id, i.doc
		FROM items i JOIN catalogs k ON k.path = i.catalog_path
		WHERE ` + clause
	if len(catalogPaths) > 0 {
		marks := make([]string, len(catalogPaths))
		for j, p := range catalogPaths {
			marks[j] = "?"
			args = append(args, p)
		}
		q += " AND i.catalog_path IN (" + strings.Join(marks, ",") + ")"
	}
	q += " ORDER BY i.catalog_path, i.collection_id, i.id LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []itemRow
	for rows.Next() {
		var r itemRow
		var raw string
		if err := rows.Scan(&r.CatalogPath, &r.CollectionID, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &r.Doc); err != nil {
			return nil, fmt.Errorf("decode item: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *CatalogStore) scanDocs(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var doc map[string]any
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func scanDoc(row *sql.Row) (map[string]any, error) {
	var raw string
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}
