// Package graphstore persists unified graphs in SQLite so the API can
// list and serve them across restarts.
package graphstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/calkg/calkg/internal/graph"
)

// GraphInfo is one row of the graph listing.
type GraphInfo struct {
	DocID      string    `json:"doc_id"`
	Title      string    `json:"title"`
	TotalNodes int       `json:"total_nodes"`
	TotalEdges int       `json:"total_edges"`
	CreatedAt  time.Time `json:"created_at"`
}

// ErrNotFound is returned when no graph exists for the requested doc ID.
var ErrNotFound = errors.New("graph not found")

// Store manages the graphs SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at dbPath, creating the schema if
// it does not exist.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS graphs (
			doc_id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			statistics TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS nodes (
			doc_id TEXT NOT NULL REFERENCES graphs(doc_id) ON DELETE CASCADE,
			id TEXT NOT NULL,
			node_type TEXT NOT NULL,
			section_num TEXT,
			data TEXT NOT NULL,
			PRIMARY KEY (doc_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS edges (
			doc_id TEXT NOT NULL REFERENCES graphs(doc_id) ON DELETE CASCADE,
			source_id TEXT NOT NULL,
			target_id TEXT NOT NULL,
			relationship TEXT NOT NULL,
			data TEXT NOT NULL,
			PRIMARY KEY (doc_id, source_id, target_id, relationship)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_type ON nodes(doc_id, node_type)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Put stores a unified graph under docID, replacing any previous graph
// with the same id.
func (s *Store) Put(ctx context.Context, docID string, g *graph.UnifiedGraph) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"edges", "nodes", "graphs"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE doc_id = ?`, docID); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	statsJSON, err := json.Marshal(g.Statistics)
	if err != nil {
		return fmt.Errorf("marshal statistics: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO graphs (doc_id, title, statistics, created_at) VALUES (?, ?, ?, ?)`,
		docID, g.Title, string(statsJSON), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting graph: %w", err)
	}

	nodeStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO nodes (doc_id, id, node_type, section_num, data) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing node insert: %w", err)
	}
	defer nodeStmt.Close()
	for _, n := range g.Nodes {
		data, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("marshal node %s: %w", n.ID, err)
		}
		if _, err := nodeStmt.ExecContext(ctx, docID, n.ID, string(n.Type), n.SectionNum, string(data)); err != nil {
			return fmt.Errorf("inserting node %s: %w", n.ID, err)
		}
	}

	edgeStmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO edges (doc_id, source_id, target_id, relationship, data) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing edge insert: %w", err)
	}
	defer edgeStmt.Close()
	for _, e := range g.Edges {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal edge %s->%s: %w", e.SourceID, e.TargetID, err)
		}
		if _, err := edgeStmt.ExecContext(ctx, docID, e.SourceID, e.TargetID, e.Relationship, string(data)); err != nil {
			return fmt.Errorf("inserting edge %s->%s: %w", e.SourceID, e.TargetID, err)
		}
	}

	return tx.Commit()
}

// Get loads the graph stored under docID.
func (s *Store) Get(ctx context.Context, docID string) (*graph.UnifiedGraph, error) {
	var title, statsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT title, statistics FROM graphs WHERE doc_id = ?`, docID,
	).Scan(&title, &statsJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("graph %s: %w", docID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading graph %s: %w", docID, err)
	}

	g := &graph.UnifiedGraph{Title: title}
	if err := json.Unmarshal([]byte(statsJSON), &g.Statistics); err != nil {
		return nil, fmt.Errorf("parse statistics: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM nodes WHERE doc_id = ? ORDER BY rowid`, docID)
	if err != nil {
		return nil, fmt.Errorf("loading nodes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning node: %w", err)
		}
		var n graph.Node
		if err := json.Unmarshal([]byte(data), &n); err != nil {
			return nil, fmt.Errorf("parse node: %w", err)
		}
		g.Nodes = append(g.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating nodes: %w", err)
	}

	edgeRows, err := s.db.QueryContext(ctx,
		`SELECT data FROM edges WHERE doc_id = ? ORDER BY rowid`, docID)
	if err != nil {
		return nil, fmt.Errorf("loading edges: %w", err)
	}
	defer edgeRows.Close()
	for edgeRows.Next() {
		var data string
		if err := edgeRows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}
		var e graph.Edge
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			return nil, fmt.Errorf("parse edge: %w", err)
		}
		g.Edges = append(g.Edges, e)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating edges: %w", err)
	}

	return g, nil
}

// List returns summaries of all stored graphs, newest first.
func (s *Store) List(ctx context.Context) ([]GraphInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc_id, title, statistics, created_at FROM graphs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing graphs: %w", err)
	}
	defer rows.Close()

	var infos []GraphInfo
	for rows.Next() {
		var info GraphInfo
		var statsJSON, createdAt string
		if err := rows.Scan(&info.DocID, &info.Title, &statsJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning graph row: %w", err)
		}
		var stats graph.Statistics
		if err := json.Unmarshal([]byte(statsJSON), &stats); err == nil {
			info.TotalNodes = stats.TotalNodes
			info.TotalEdges = stats.TotalEdges
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			info.CreatedAt = t
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Delete removes the graph stored under docID.
func (s *Store) Delete(ctx context.Context, docID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM graphs WHERE doc_id = ?`, docID)
	if err != nil {
		return fmt.Errorf("deleting graph %s: %w", docID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("graph %s: %w", docID, ErrNotFound)
	}
	return nil
}
