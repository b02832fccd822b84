package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/WessleyAI/daytrip-loader/engine/domain"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// CypherResult is the part of a neo4j result the store reads.
type CypherResult interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
}

// CypherRunner runs a single statement.
type CypherRunner interface {
	Run(ctx context.Context, cypher string, params map[string]any) (CypherResult, error)
}

// CypherSession is the part of a neo4j session the store needs.
type CypherSession interface {
	CypherRunner
	ExecuteWrite(ctx context.Context, work func(tx CypherRunner) (any, error)) (any, error)
	Close(ctx context.Context) error
}

// SessionOpener opens sessions; tests replace it with fakes.
type SessionOpener interface {
	OpenSession(ctx context.Context) CypherSession
}

type driverOpener struct {
	driver   neo4j.DriverWithContext
	database string
}

func (o *driverOpener) OpenSession(ctx context.Context) CypherSession {
	return &sessionAdapter{sess: o.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: o.database})}
}

type sessionAdapter struct {
	sess neo4j.SessionWithContext
}

func (a *sessionAdapter) Run(ctx context.Context, cypher string, params map[string]any) (CypherResult, error) {
	return a.sess.Run(ctx, cypher, params)
}

func (a *sessionAdapter) ExecuteWrite(ctx context.Context, work func(tx CypherRunner) (any, error)) (any, error) {
	return a.sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return work(&txAdapter{tx: tx})
	})
}

func (a *sessionAdapter) Close(ctx context.Context) error { return a.sess.Close(ctx) }

type txAdapter struct {
	tx neo4j.ManagedTransaction
}

func (t *txAdapter) Run(ctx context.Context, cypher string, params map[string]any) (CypherResult, error) {
	return t.tx.Run(ctx, cypher, params)
}

// Neo4jStore implements Store on Neo4j. Vertex collections are backed by a
// uniqueness constraint on n.key, edge collections by a property index on
// r.key; both are named "<collection>_key".
type Neo4jStore struct {
	opener SessionOpener
}

// NewNeo4j creates a store on an open driver. An empty database selects the
// server default.
func NewNeo4j(driver neo4j.DriverWithContext, database string) *Neo4jStore {
	return &Neo4jStore{opener: &driverOpener{driver: driver, database: database}}
}

// NewWithOpener creates a store on a custom session opener.
func NewWithOpener(opener SessionOpener) *Neo4jStore {
	return &Neo4jStore{opener: opener}
}

var _ Store = (*Neo4jStore)(nil)

func schemaName(name domain.Collection) string { return string(name) + "_key" }

// HasCollection reports whether the collection's key constraint or index
// exists.
func (s *Neo4jStore) HasCollection(ctx context.Context, name domain.Collection) (bool, error) {
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	res, err := sess.Run(ctx,
		`SHOW INDEXES YIELD name WHERE name = $name RETURN count(*) AS n`,
		map[string]any{"name": schemaName(name)})
	if err != nil {
		return false, err
	}
	if !res.Next(ctx) {
		return false, nil
	}
	n, _, err := neo4j.GetRecordValue[int64](res.Record(), "n")
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateCollection creates the key constraint (vertices) or key index
// (edges). It is a no-op when it already exists.
func (s *Neo4jStore) CreateCollection(ctx context.Context, name domain.Collection, edge bool) error {
	spec, err := lookup(name, edge)
	if err != nil {
		return err
	}
	label := sanitizeIdent(spec.Label)

	var cypher string
	if edge {
		cypher = fmt.Sprintf(`CREATE INDEX %s IF NOT EXISTS FOR ()-[r:%s]-() ON (r.key)`, schemaName(name), label)
	} else {
		cypher = fmt.Sprintf(`CREATE CONSTRAINT %s IF NOT EXISTS FOR (n:%s) REQUIRE n.key IS UNIQUE`, schemaName(name), label)
	}

	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)
	_, err = sess.Run(ctx, cypher, nil)
	return err
}

// UpsertVertex merges a node on its key and overwrites its properties.
func (s *Neo4jStore) UpsertVertex(ctx context.Context, v domain.Vertex) (string, error) {
	spec, err := lookup(v.Collection(), false)
	if err != nil {
		return "", err
	}
	cypher := fmt.Sprintf(`MERGE (n:%s {key: $key}) SET n += $props RETURN n.key AS key`, sanitizeIdent(spec.Label))
	return s.write(ctx, cypher, map[string]any{"key": v.Key(), "props": v.Properties()})
}

// UpsertEdge merges a relationship on its key between two existing nodes.
// It fails with ErrEndpointMissing when either node is absent.
func (s *Neo4jStore) UpsertEdge(ctx context.Context, e domain.Edge) (string, error) {
	spec, err := lookup(e.Kind, true)
	if err != nil {
		return "", err
	}
	cypher := fmt.Sprintf(
		`MATCH (a:%s {key: $from})
		 MATCH (b:%s {key: $to})
		 MERGE (a)-[r:%s {key: $key}]->(b)
		 SET r += $props
		 RETURN r.key AS key`,
		sanitizeIdent(spec.From.Spec().Label),
		sanitizeIdent(spec.To.Spec().Label),
		sanitizeRelType(spec.Label),
	)
	key, err := s.write(ctx, cypher, map[string]any{
		"from":  e.From,
		"to":    e.To,
		"key":   e.Key(),
		"props": e.Properties(),
	})
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", fmt.Errorf("%w: %s %s -> %s", ErrEndpointMissing, e.Kind, e.From, e.To)
	}
	return key, nil
}

// write runs one statement in a write transaction and returns the "key"
// column of the first row, or "" when no row came back.
func (s *Neo4jStore) write(ctx context.Context, cypher string, params map[string]any) (string, error) {
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	out, err := sess.ExecuteWrite(ctx, func(tx CypherRunner) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return "", nil
		}
		key, _, err := neo4j.GetRecordValue[string](res.Record(), "key")
		return key, err
	})
	if err != nil {
		return "", err
	}
	key, _ := out.(string)
	return key, nil
}

// Query returns the properties of matching records, ordered by key.
func (s *Neo4jStore) Query(ctx context.Context, name domain.Collection, f Filter) ([]map[string]any, error) {
	spec, err := domain.LookupCollection(string(name))
	if err != nil {
		return nil, err
	}
	fields, err := f.fields()
	if err != nil {
		return nil, err
	}

	pattern := fmt.Sprintf("(x:%s)", sanitizeIdent(spec.Label))
	if spec.Edge {
		pattern = fmt.Sprintf("()-[x:%s]->()", sanitizeRelType(spec.Label))
	}
	params := map[string]any{"limit": f.limit()}
	conds := make([]string, len(fields))
	for i, k := range fields {
		p := fmt.Sprintf("p%d", i)
		conds[i] = fmt.Sprintf("x.%s = $%s", k, p)
		params[p] = f.Where[k]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "MATCH %s", pattern)
	if len(conds) > 0 {
		fmt.Fprintf(&b, " WHERE %s", strings.Join(conds, " AND "))
	}
	b.WriteString(" RETURN properties(x) AS props ORDER BY x.key LIMIT $limit")

	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	res, err := sess.Run(ctx, b.String(), params)
	if err != nil {
		return nil, err
	}
	var rows []map[string]any
	for res.Next(ctx) {
		props, _, err := neo4j.GetRecordValue[map[string]any](res.Record(), "props")
		if err != nil {
			return nil, err
		}
		rows = append(rows, props)
	}
	return rows, nil
}

// sanitizeIdent strips everything but letters, digits and underscores.
func sanitizeIdent(s string) string {
	safe := make([]byte, 0, len(s))
	for i := range s {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			safe = append(safe, c)
		}
	}
	return string(safe)
}

// sanitizeRelType ensures the relationship type is a valid upper-case Cypher
// identifier.
func sanitizeRelType(t string) string {
	safe := sanitizeIdent(t)
	if safe == "" {
		return "RELATED_TO"
	}
	return strings.ToUpper(safe)
}
