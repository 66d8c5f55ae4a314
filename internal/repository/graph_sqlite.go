package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-sync/internal/graph"
)

type sqliteGraph struct {
	conn *sql.DB
	hub  *graph.Hub
}

// NewSQLiteGraph - durable single-process graph.Backend. Expects the nodes table created by storage.SQLiteStorage.Init.
func NewSQLiteGraph(conn *sql.DB) graph.Backend {
	return &sqliteGraph{
		conn: conn,
		hub:  graph.NewHub(),
	}
}

func (that *sqliteGraph) Merge(ctx context.Context, soul string, node graph.Node) (bool, error) {
	query := `INSERT INTO nodes (soul, key, value, state, writer) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (soul, key) DO UPDATE SET value = excluded.value, state = excluded.state, writer = excluded.writer
		WHERE excluded.state > nodes.state OR (excluded.state = nodes.state AND excluded.writer > nodes.writer)`

	var value any
	if !node.IsTombstone() {
		value = []byte(node.Value)
	}

	result, err := that.conn.ExecContext(ctx, query, soul, node.Key, value, node.State, node.Writer)
	if err != nil {
		return false, fmt.Errorf("can't merge node: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("can't read merge result: %w", err)
	}

	if affected == 0 {
		return false, nil
	}

	that.hub.Publish(soul, node)

	return true, nil
}

func (that *sqliteGraph) Get(ctx context.Context, soul, key string) (graph.Node, bool, error) {
	query := `SELECT key, value, state, writer FROM nodes WHERE soul = ? AND key = ?`

	node, err := scanNode(that.conn.QueryRowContext(ctx, query, soul, key))
	if errors.Is(err, sql.ErrNoRows) {
		return graph.Node{}, false, nil
	}
	if err != nil {
		return graph.Node{}, false, fmt.Errorf("can't get node: %w", err)
	}

	return node, true, nil
}

func (that *sqliteGraph) Snapshot(ctx context.Context, soul string) ([]graph.Node, error) {
	query := `SELECT key, value, state, writer FROM nodes WHERE soul = ? ORDER BY key`

	rows, err := that.conn.QueryContext(ctx, query, soul)
	if err != nil {
		return nil, fmt.Errorf("can't query soul: %w", err)
	}
	defer rows.Close()

	nodes := make([]graph.Node, 0)
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("can't scan node: %w", err)
		}
		nodes = append(nodes, node)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't iterate soul: %w", err)
	}

	return nodes, nil
}

func (that *sqliteGraph) Subscribe(ctx context.Context, soul string, fn func(graph.Node)) error {
	that.hub.Subscribe(ctx, soul, fn)

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanNode - NULL values are tombstones.
func scanNode(row scanner) (graph.Node, error) {
	var (
		node  graph.Node
		value []byte
	)

	if err := row.Scan(&node.Key, &value, &node.State, &node.Writer); err != nil {
		return graph.Node{}, err
	}

	node.Value = value

	return node, nil
}
