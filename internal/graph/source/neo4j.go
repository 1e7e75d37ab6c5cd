package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"podcast-insights-go/internal/graph"
	"podcast-insights-go/internal/logger"
)

// ErrNeo4jNotConfigured is returned when no URI is set.
var ErrNeo4jNotConfigured = errors.New("neo4j uri not set")

const defaultNeo4jLimit = 5000

type Neo4jConfig struct {
	URI      string
	User     string
	Password string
	Database string
	Timeout  time.Duration
	MaxPool  int
	// Limit caps the nodes and relationships read per query.
	Limit int
}

// Neo4jConfigFromEnv reads NEO4J_* variables on top of base. Env wins.
func Neo4jConfigFromEnv(base Neo4jConfig) Neo4jConfig {
	cfg := base
	if v := strings.TrimSpace(os.Getenv("NEO4J_URI")); v != "" {
		cfg.URI = v
	}
	if v := strings.TrimSpace(os.Getenv("NEO4J_USER")); v != "" {
		cfg.User = v
	}
	if v := strings.TrimSpace(os.Getenv("NEO4J_PASSWORD")); v != "" {
		cfg.Password = v
	}
	if v := strings.TrimSpace(os.Getenv("NEO4J_DATABASE")); v != "" {
		cfg.Database = v
	}
	if v := strings.TrimSpace(os.Getenv("NEO4J_TIMEOUT_SECONDS")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			cfg.Timeout = time.Duration(parsed) * time.Second
		}
	}
	if v := strings.TrimSpace(os.Getenv("NEO4J_MAX_POOL_SIZE")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			cfg.MaxPool = parsed
		}
	}
	return cfg.withDefaults()
}

func (c Neo4jConfig) withDefaults() Neo4jConfig {
	if c.User == "" {
		c.User = "neo4j"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MaxPool <= 0 {
		c.MaxPool = 50
	}
	if c.Limit <= 0 {
		c.Limit = defaultNeo4jLimit
	}
	return c
}

// Neo4j reads the stored knowledge graph back as a single document.
type Neo4j struct {
	Driver   neo4j.DriverWithContext
	Database string
	limit    int
	log      *logger.Logger
}

func NewNeo4j(ctx context.Context, cfg Neo4jConfig, log *logger.Logger) (*Neo4j, error) {
	cfg = cfg.withDefaults()
	if strings.TrimSpace(cfg.URI) == "" {
		return nil, ErrNeo4jNotConfigured
	}
	if log == nil {
		log = logger.Discard()
	}
	auth := neo4j.BasicAuth(cfg.User, cfg.Password, "")
	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth, func(c *neo4j.Config) {
		c.MaxConnectionPoolSize = cfg.MaxPool
		c.SocketConnectTimeout = cfg.Timeout
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j: init driver: %w", err)
	}

	vctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(vctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j: verify connectivity: %w", err)
	}
	return &Neo4j{
		Driver:   driver,
		Database: cfg.Database,
		limit:    cfg.Limit,
		log:      log.Component("graph.neo4j"),
	}, nil
}

func (n *Neo4j) Close(ctx context.Context) error {
	if n == nil || n.Driver == nil {
		return nil
	}
	err := n.Driver.Close(ctx)
	n.Driver = nil
	return err
}

const (
	nodesQuery = `MATCH (n) RETURN n LIMIT $limit`
	relsQuery  = `MATCH ()-[r]->() RETURN r LIMIT $limit`
)

func (n *Neo4j) Load(ctx context.Context) ([]graph.Document, error) {
	if n == nil || n.Driver == nil {
		return nil, ErrNeo4jNotConfigured
	}
	session := n.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: n.Database,
	})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		var nodes []neo4j.Node
		var rels []neo4j.Relationship

		res, err := tx.Run(ctx, nodesQuery, map[string]any{"limit": n.limit})
		if err != nil {
			return nil, err
		}
		for res.Next(ctx) {
			v, _ := res.Record().Get("n")
			if node, ok := v.(neo4j.Node); ok {
				nodes = append(nodes, node)
			}
		}
		if err := res.Err(); err != nil {
			return nil, err
		}

		res, err = tx.Run(ctx, relsQuery, map[string]any{"limit": n.limit})
		if err != nil {
			return nil, err
		}
		for res.Next(ctx) {
			v, _ := res.Record().Get("r")
			if rel, ok := v.(neo4j.Relationship); ok {
				rels = append(rels, rel)
			}
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return assembleDocument(nodes, rels), nil
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j: read graph: %w", err)
	}
	doc := out.(graph.Document)
	n.log.WithField("nodes", len(doc.Nodes)).WithField("relationships", len(doc.Relationships)).Info("graph read from neo4j")
	return []graph.Document{doc}, nil
}

// assembleDocument maps relationship endpoints onto the ids of the loaded
// nodes. Endpoints the nodes query did not return keep their element id.
func assembleDocument(nodes []neo4j.Node, rels []neo4j.Relationship) graph.Document {
	var doc graph.Document
	ids := make(map[string]string, len(nodes))
	for _, node := range nodes {
		gn := fromNeo4jNode(node)
		ids[node.ElementId] = gn.ID
		doc.Nodes = append(doc.Nodes, gn)
	}
	for _, r := range rels {
		doc.Relationships = append(doc.Relationships, fromNeo4jRelationship(r, ids))
	}
	return doc
}

// nodeID prefers an "id" property, then "name", then the database element id.
func nodeID(n neo4j.Node) string {
	for _, key := range []string{"id", "name"} {
		if v, ok := n.Props[key]; ok {
			if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
				return s
			}
		}
	}
	return n.ElementId
}

func fromNeo4jNode(n neo4j.Node) graph.Node {
	typ := ""
	if len(n.Labels) > 0 {
		typ = n.Labels[0]
	}
	var props map[string]any
	for k, v := range n.Props {
		if k == "id" {
			continue
		}
		if props == nil {
			props = map[string]any{}
		}
		props[k] = v
	}
	return graph.Node{ID: nodeID(n), Type: typ, Properties: props}
}

// fromNeo4jRelationship resolves endpoints through ids. An endpoint missing
// from ids keeps its element id and is dropped later as dangling.
func fromNeo4jRelationship(r neo4j.Relationship, ids map[string]string) graph.Relationship {
	resolve := func(elementID string) string {
		if id, ok := ids[elementID]; ok {
			return id
		}
		return elementID
	}
	var props map[string]any
	if len(r.Props) > 0 {
		props = r.Props
	}
	return graph.Relationship{
		Source:     graph.NodeRef{ID: resolve(r.StartElementId)},
		Target:     graph.NodeRef{ID: resolve(r.EndElementId)},
		Type:       r.Type,
		Properties: props,
	}
}
