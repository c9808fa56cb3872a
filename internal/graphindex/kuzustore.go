//go:build cgo

package graphindex

import (
	"context"
	"fmt"

	kuzu "github.com/kuzudb/go-kuzu"

	"github.com/dusk-indust/stepgraph/internal/workflow"
)

// KuzuStore implements the Store interface using KuzuDB as the graph backend.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(":memory:", cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

func openKuzu() (Store, error) {
	return NewKuzuStore()
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema setup ----------

// Edges whose target is missing cannot be stored as relationships, so they
// get a node table of their own.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Step(
		id INT64,
		pos INT64,
		step_text STRING,
		step_type STRING,
		approval BOOLEAN,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS DanglingEdge(
		edge_key STRING,
		src INT64,
		dst INT64,
		branch STRING,
		PRIMARY KEY(edge_key)
	)`,
	`CREATE REL TABLE IF NOT EXISTS LINKS(FROM Step TO Step, branch STRING)`,
}

// InitSchema creates all node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// ---------- Write operations ----------

// Load replaces the store contents with w.
func (s *KuzuStore) Load(ctx context.Context, w *workflow.Workflow) error {
	for _, stmt := range []string{
		"MATCH (s:Step) DETACH DELETE s",
		"MATCH (d:DanglingEdge) DELETE d",
	} {
		if err := s.exec(stmt, nil); err != nil {
			return err
		}
	}

	steps := dedupe(w)
	known := make(map[int]bool, len(steps))
	for i, st := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.exec(
			"CREATE (s:Step {id: $id, pos: $pos, step_text: $stepText, step_type: $stepType, approval: $approval})",
			map[string]any{
				"id":       int64(st.ID),
				"pos":      int64(i),
				"stepText": st.Text,
				"stepType": string(st.Type),
				"approval": st.Approval,
			},
		)
		if err != nil {
			return err
		}
		known[st.ID] = true
	}

	for _, st := range steps {
		for _, e := range st.Edges() {
			if err := s.addEdge(e, known[e.To]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *KuzuStore) addEdge(e workflow.Edge, resolved bool) error {
	if resolved {
		return s.exec(
			`MATCH (a:Step {id: $src}), (b:Step {id: $dst})
			 CREATE (a)-[:LINKS {branch: $branch}]->(b)`,
			map[string]any{
				"src":    int64(e.From),
				"dst":    int64(e.To),
				"branch": e.Label,
			},
		)
	}
	return s.exec(
		"CREATE (d:DanglingEdge {edge_key: $edgeKey, src: $src, dst: $dst, branch: $branch})",
		map[string]any{
			"edgeKey": fmt.Sprintf("%d:%s", e.From, e.Label),
			"src":     int64(e.From),
			"dst":     int64(e.To),
			"branch":  e.Label,
		},
	)
}

// ---------- Read operations ----------

// Dangling returns edges whose target names no step.
func (s *KuzuStore) Dangling(_ context.Context) ([]workflow.Edge, error) {
	rows, err := s.query("MATCH (d:DanglingEdge) RETURN d.src, d.dst, d.branch", nil)
	if err != nil {
		return nil, err
	}
	out := rowsToEdges(rows)
	sortEdges(out)
	return out, nil
}

// Successors returns the resolved outgoing edges of step id.
func (s *KuzuStore) Successors(_ context.Context, id int) ([]workflow.Edge, error) {
	rows, err := s.query(
		"MATCH (a:Step {id: $id})-[r:LINKS]->(b:Step) RETURN a.id, b.id, r.branch",
		map[string]any{"id": int64(id)},
	)
	if err != nil {
		return nil, err
	}
	out := rowsToEdges(rows)
	sortEdges(out)
	return out, nil
}

// Unreachable walks LINKS edges from the roots and returns the ids never
// visited, in display order.
func (s *KuzuStore) Unreachable(ctx context.Context) ([]int, error) {
	rows, err := s.query("MATCH (s:Step) RETURN s.id ORDER BY s.pos", nil)
	if err != nil {
		return nil, err
	}
	order := make([]int, 0, len(rows))
	for _, r := range rows {
		order = append(order, stepID(r[0]))
	}

	rows, err = s.query("MATCH (:Step)-[:LINKS]->(b:Step) RETURN DISTINCT b.id", nil)
	if err != nil {
		return nil, err
	}
	incoming := make(map[int]bool, len(rows))
	for _, r := range rows {
		incoming[stepID(r[0])] = true
	}

	return unreachable(order, incoming, func(id int) ([]int, error) {
		edges, err := s.Successors(ctx, id)
		if err != nil {
			return nil, err
		}
		ids := make([]int, 0, len(edges))
		for _, e := range edges {
			ids = append(ids, e.To)
		}
		return ids, nil
	})
}

// ---------- Stats ----------

// Stats returns node and edge counts.
func (s *KuzuStore) Stats(_ context.Context) (*Stats, error) {
	st := &Stats{}
	counts := []struct {
		cypher string
		dst    *int
	}{
		{"MATCH (s:Step) RETURN count(s)", &st.Steps},
		{"MATCH (s:Step) WHERE s.step_type = 'decision' RETURN count(s)", &st.Decisions},
		{"MATCH (s:Step) WHERE s.approval = true RETURN count(s)", &st.Approvals},
		{"MATCH ()-[r:LINKS]->() RETURN count(r)", &st.Edges},
		{"MATCH (d:DanglingEdge) RETURN count(d)", &st.Dangling},
	}
	for _, c := range counts {
		n, err := s.count(c.cypher)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}
	return st, nil
}

// run sends one Cypher statement, preparing it when params are bound. The
// caller closes the returned result.
func (s *KuzuStore) run(cypher string, params map[string]any) (*kuzu.QueryResult, error) {
	if len(params) == 0 {
		res, err := s.conn.Query(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: run: %w", err)
		}
		return res, nil
	}

	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return nil, fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return nil, fmt.Errorf("kuzu: run: %w", err)
	}
	return res, nil
}

// exec is run for statements whose rows are not needed.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	res, err := s.run(cypher, params)
	if err != nil {
		return err
	}
	res.Close()
	return nil
}

// query returns every row of the statement's result, columns in RETURN order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	res, err := s.run(cypher, params)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next row: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// count runs a single-value count query.
func (s *KuzuStore) count(cypher string) (int, error) {
	rows, err := s.query(cypher, nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	n, _ := rows[0][0].(int64)
	return int(n), nil
}

// rowsToEdges converts (src, dst, label) rows into edges.
func rowsToEdges(rows [][]any) []workflow.Edge {
	out := make([]workflow.Edge, 0, len(rows))
	for _, r := range rows {
		out = append(out, workflow.Edge{
			From:  stepID(r[0]),
			To:    stepID(r[1]),
			Label: branchLabel(r[2]),
		})
	}
	return out
}

// stepID reads an id column. Unexpected values read as 0, never a valid id.
func stepID(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int32:
		return int(n)
	case int:
		return n
	}
	return 0
}

// branchLabel reads the STRING branch column; NULL reads as no label.
func branchLabel(v any) string {
	s, _ := v.(string)
	return s
}
