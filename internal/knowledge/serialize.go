package knowledge

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// SerializedNode is the plain, JSON-safe projection of a neo4j.Node. It
// never leaves the retrieval boundary carrying the live driver type.
type SerializedNode struct {
	Kind       string                 `json:"kind"`
	ElementID  string                 `json:"element_id"`
	Labels     []string               `json:"labels"`
	Properties map[string]interface{} `json:"properties"`
}

// SerializedRelationship is the plain projection of a neo4j.Relationship.
type SerializedRelationship struct {
	Kind            string                 `json:"kind"`
	ElementID       string                 `json:"element_id"`
	Type            string                 `json:"type"`
	StartElementID  string                 `json:"start_element_id"`
	EndElementID    string                 `json:"end_element_id"`
	Properties      map[string]interface{} `json:"properties"`
}

// SerializeValue converts one value out of a neo4j.Record into a
// JSON-safe shape. Node and Relationship are matched by their driver
// type, not by probing for well-known property names, so a node that
// happens to have a "type" property is never mistaken for a relationship.
// Paths and lists are walked recursively; every other value (string,
// number, bool, nil, map, time.Time) passes through unchanged since the
// driver already returns those as plain Go values.
func SerializeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case neo4j.Node:
		return SerializedNode{
			Kind:       "node",
			ElementID:  val.ElementId,
			Labels:     val.Labels,
			Properties: val.Props,
		}
	case neo4j.Relationship:
		return SerializedRelationship{
			Kind:           "relationship",
			ElementID:      val.ElementId,
			Type:           val.Type,
			StartElementID: val.StartElementId,
			EndElementID:   val.EndElementId,
			Properties:     val.Props,
		}
	case neo4j.Path:
		nodes := make([]SerializedNode, len(val.Nodes))
		for i, n := range val.Nodes {
			nodes[i] = SerializeValue(n).(SerializedNode)
		}
		rels := make([]SerializedRelationship, len(val.Relationships))
		for i, r := range val.Relationships {
			rels[i] = SerializeValue(r).(SerializedRelationship)
		}
		return map[string]interface{}{
			"kind":          "path",
			"nodes":         nodes,
			"relationships": rels,
		}
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = SerializeValue(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = SerializeValue(item)
		}
		return out
	default:
		return val
	}
}

// SerializeRecord converts every column of a neo4j.Record into a plain
// map keyed by the record's own field names.
func SerializeRecord(record *neo4j.Record) map[string]interface{} {
	out := make(map[string]interface{}, len(record.Keys))
	for i, key := range record.Keys {
		out[key] = SerializeValue(record.Values[i])
	}
	return out
}
