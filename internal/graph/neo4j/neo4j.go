package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/efebarandurmaz/aspiredoc/internal/graph"
	"github.com/efebarandurmaz/aspiredoc/internal/model"
)

// Neo4jRepository implements graph.Repository using Neo4j.
//
// Every node carries the orchestrator name so several solutions can share a
// database. Services and resources are both labelled :Component so that
// dependency edges can target either, or a bare :Component when the target
// was never declared. A name declared as both keeps one node with separate
// service and resource ordinals. Each raw dependency is its own DEPENDS_ON edge with an
// ordinal, so duplicates survive a round trip.
type Neo4jRepository struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4j creates a Neo4j-backed repository.
func NewNeo4j(ctx context.Context, uri, username, password, database string) (*Neo4jRepository, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	return &Neo4jRepository{driver: driver, database: database}, nil
}

type statement struct {
	cypher string
	params map[string]any
}

// storeStatements returns the writes that replace the stored copy of m.
func storeStatements(m *model.Model) []statement {
	orch := graph.Key(m)
	stmts := []statement{
		{"MATCH (n {orchestrator: $orch}) DETACH DELETE n", map[string]any{"orch": orch}},
		{"MERGE (o:Orchestrator {name: $orch}) SET o.orchestrator = $orch", map[string]any{"orch": orch}},
	}

	for i, s := range m.Services {
		stmts = append(stmts, statement{
			"MERGE (c:Component {name: $name, orchestrator: $orch}) " +
				"SET c:Service, c.class = $class, c.service_ordinal = $ordinal " +
				"WITH c MATCH (o:Orchestrator {name: $orch}) " +
				"MERGE (o)-[:ORCHESTRATES]->(c)",
			map[string]any{"orch": orch, "name": s.Name, "class": s.Class, "ordinal": i},
		})
	}
	for i, r := range m.Resources {
		stmts = append(stmts, statement{
			"MERGE (c:Component {name: $name, orchestrator: $orch}) " +
				"SET c:Resource, c.kind = $kind, c.resource_ordinal = $ordinal " +
				"WITH c MATCH (o:Orchestrator {name: $orch}) " +
				"MERGE (o)-[:MANAGES]->(c)",
			map[string]any{"orch": orch, "name": r.Name, "kind": r.Kind, "ordinal": i},
		})
	}
	for i, d := range m.Dependencies {
		stmts = append(stmts, statement{
			"MERGE (a:Component {name: $from, orchestrator: $orch}) " +
				"MERGE (b:Component {name: $to, orchestrator: $orch}) " +
				"CREATE (a)-[:DEPENDS_ON {ordinal: $ordinal}]->(b)",
			map[string]any{"orch": orch, "from": d.From, "to": d.To, "ordinal": i},
		})
	}
	for i, e := range m.Endpoints {
		stmts = append(stmts, statement{
			"CREATE (e:Endpoint {method: $method, path: $path, file: $file, ordinal: $ordinal, orchestrator: $orch}) " +
				"WITH e MATCH (o:Orchestrator {name: $orch}) " +
				"MERGE (o)-[:EXPOSES]->(e)",
			map[string]any{"orch": orch, "method": e.Method, "path": e.Path, "file": e.File, "ordinal": i},
		})
	}
	return stmts
}

func (r *Neo4jRepository) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: r.database})
}

func (r *Neo4jRepository) StoreModel(ctx context.Context, m *model.Model) error {
	session := r.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, st := range storeStatements(m) {
			if _, err := tx.Run(ctx, st.cypher, st.params); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("store model %s: %w", graph.Key(m), err)
	}
	return nil
}

func (r *Neo4jRepository) LoadModel(ctx context.Context, orchestrator string) (*model.Model, error) {
	session := r.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		params := map[string]any{"orch": orchestrator}

		found, err := tx.Run(ctx, "MATCH (o:Orchestrator {name: $orch}) RETURN o.name AS name", params)
		if err != nil {
			return nil, err
		}
		if !found.Next(ctx) {
			return nil, graph.ErrNotFound
		}

		m := model.New()
		m.Orchestrator = orchestrator

		rows, err := collect(ctx, tx,
			"MATCH (c:Service {orchestrator: $orch}) RETURN c.class AS class, c.name AS name ORDER BY c.service_ordinal",
			params, "class", "name")
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			m.Services = append(m.Services, model.Service{Class: row[0], Name: row[1]})
		}

		rows, err = collect(ctx, tx,
			"MATCH (c:Resource {orchestrator: $orch}) RETURN c.kind AS kind, c.name AS name ORDER BY c.resource_ordinal",
			params, "kind", "name")
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			m.Resources = append(m.Resources, model.Resource{Kind: row[0], Name: row[1]})
		}

		rows, err = collect(ctx, tx,
			"MATCH (a:Component {orchestrator: $orch})-[d:DEPENDS_ON]->(b:Component) "+
				"RETURN a.name AS from, b.name AS to ORDER BY d.ordinal",
			params, "from", "to")
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			m.Dependencies = append(m.Dependencies, model.Dependency{From: row[0], To: row[1]})
		}

		rows, err = collect(ctx, tx,
			"MATCH (e:Endpoint {orchestrator: $orch}) RETURN e.method AS method, e.path AS path, e.file AS file ORDER BY e.ordinal",
			params, "method", "path", "file")
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			m.Endpoints = append(m.Endpoints, model.Endpoint{Method: row[0], Path: row[1], File: row[2]})
		}
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*model.Model), nil
}

func (r *Neo4jRepository) QueryDependents(ctx context.Context, orchestrator, name string) ([]string, error) {
	session := r.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		found, err := tx.Run(ctx, "MATCH (o:Orchestrator {name: $orch}) RETURN o.name AS name", map[string]any{"orch": orchestrator})
		if err != nil {
			return nil, err
		}
		if !found.Next(ctx) {
			return nil, graph.ErrNotFound
		}

		rows, err := collect(ctx, tx,
			"MATCH (a:Component {orchestrator: $orch})-[:DEPENDS_ON]->(:Component {name: $name, orchestrator: $orch}) "+
				"RETURN DISTINCT a.name AS name ORDER BY name",
			map[string]any{"orch": orchestrator, "name": name}, "name")
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(rows))
		for _, row := range rows {
			names = append(names, row[0])
		}
		return names, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

func (r *Neo4jRepository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

// collect runs a read query and returns the named string columns of every row.
func collect(ctx context.Context, tx neo4j.ManagedTransaction, cypher string, params map[string]any, keys ...string) ([][]string, error) {
	records, err := tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	var rows [][]string
	for records.Next(ctx) {
		rec := records.Record()
		row := make([]string, len(keys))
		for i, k := range keys {
			v, _ := rec.Get(k)
			row[i], _ = v.(string)
		}
		rows = append(rows, row)
	}
	return rows, records.Err()
}

var _ graph.Repository = (*Neo4jRepository)(nil)
