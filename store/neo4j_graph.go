package store

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sirupsen/logrus"

	"github.com/Flyns157/API-recommendation/apperr"
)

// Neo4jGraphStore implements GraphStore over the official Neo4j
// driver, grounded on the session-scoped ExecuteWrite/ExecuteRead pattern
// of db/repository/neo4j.go's Neo4jRepository.
type Neo4jGraphStore struct {
	driver neo4j.DriverWithContext
	ctx    context.Context
	log    *logrus.Entry
}

// NewNeo4jGraphStore opens a driver against uri and verifies connectivity.
func NewNeo4jGraphStore(ctx context.Context, uri, username, password string, log *logrus.Entry) (*Neo4jGraphStore, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStoreFault, "neo4j driver init", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, apperr.Wrap(apperr.KindStoreFault, "neo4j connectivity", err)
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Neo4jGraphStore{driver: driver, ctx: ctx, log: log.WithField("component", "neo4j_graph_store")}, nil
}

func (n *Neo4jGraphStore) Session(mode AccessMode) (GraphSession, error) {
	access := neo4j.AccessModeRead
	if mode == AccessWrite {
		access = neo4j.AccessModeWrite
	}
	sess := n.driver.NewSession(n.ctx, neo4j.SessionConfig{AccessMode: access})
	return &neo4jSession{ctx: n.ctx, session: sess, mode: mode}, nil
}

// EnsureConstraints creates the uniqueness constraints passed in:
// User.id, Post.id, Thread.id, Key.id, Interest.id per label, Role.name.
func (n *Neo4jGraphStore) EnsureConstraints(constraints []Constraint) error {
	sess := n.driver.NewSession(n.ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer sess.Close(n.ctx)
	for _, c := range constraints {
		name := fmt.Sprintf("constraint_%s_%s", c.Label, c.Property)
		query := fmt.Sprintf(
			"CREATE CONSTRAINT %s IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE",
			name, c.Label, c.Property,
		)
		_, err := sess.ExecuteWrite(n.ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			return tx.Run(n.ctx, query, nil)
		})
		if err != nil {
			return apperr.Wrap(apperr.KindStoreFault, "ensure_constraints "+name, err)
		}
	}
	return nil
}

func (n *Neo4jGraphStore) Close() error {
	return n.driver.Close(n.ctx)
}

type neo4jSession struct {
	ctx     context.Context
	session neo4j.SessionWithContext
	mode    AccessMode
}

func (s *neo4jSession) Run(query string, params map[string]any) (GraphResult, error) {
	runner := func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(s.ctx, query, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(s.ctx)
		if err != nil {
			return nil, err
		}
		return records, nil
	}

	var result any
	var err error
	if s.mode == AccessWrite {
		result, err = s.session.ExecuteWrite(s.ctx, runner)
	} else {
		result, err = s.session.ExecuteRead(s.ctx, runner)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStoreFault, "graph query failed", err)
	}
	records, _ := result.([]*neo4j.Record)
	return &neo4jResult{records: records, pos: -1}, nil
}

func (s *neo4jSession) Close() error {
	return s.session.Close(s.ctx)
}

type neo4jResult struct {
	records []*neo4j.Record
	pos     int
}

func (r *neo4jResult) Next() bool {
	r.pos++
	return r.pos < len(r.records)
}

func (r *neo4jResult) Get(field string) (any, bool) {
	if r.pos < 0 || r.pos >= len(r.records) {
		return nil, false
	}
	return r.records[r.pos].Get(field)
}

func (r *neo4jResult) Err() error { return nil }
