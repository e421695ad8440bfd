package knowledge

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// RunCypher executes an arbitrary parameterized Cypher query against the
// underlying database and returns every record serialized into plain,
// JSON-safe maps (see SerializeRecord). This is the escape hatch the
// retrieval pipeline uses to run a configured template string that the
// fixed CreateEntity/GetEntity/etc. methods above have no shape for;
// parameters must always be bound, never interpolated into cypher.
func (kg *KnowledgeGraph) RunCypher(ctx context.Context, cypher string, params map[string]interface{}) ([]map[string]interface{}, error) {
	result, err := kg.neo4jClient.ExecuteRead(ctx, kg.database, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		serialized := make([]map[string]interface{}, len(records))
		for i, record := range records {
			serialized[i] = SerializeRecord(record)
		}
		return serialized, nil
	})
	if err != nil {
		return nil, fmt.Errorf("run cypher: %w", err)
	}

	records, ok := result.([]map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("run cypher: unexpected result type %T", result)
	}
	return records, nil
}

// RunCypherWrite executes an arbitrary parameterized Cypher write (CREATE,
// MERGE, SET, DELETE) and returns the resulting records serialized the same
// way as RunCypher. Callers outside this package that need to persist
// anything the fixed StoreEntity/CreateRelationship methods don't shape for
// use this instead of RunCypher, which only opens a read transaction.
func (kg *KnowledgeGraph) RunCypherWrite(ctx context.Context, cypher string, params map[string]interface{}) ([]map[string]interface{}, error) {
	result, err := kg.neo4jClient.ExecuteWrite(ctx, kg.database, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		serialized := make([]map[string]interface{}, len(records))
		for i, record := range records {
			serialized[i] = SerializeRecord(record)
		}
		return serialized, nil
	})
	if err != nil {
		return nil, fmt.Errorf("run cypher write: %w", err)
	}

	records, ok := result.([]map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("run cypher write: unexpected result type %T", result)
	}
	return records, nil
}
