package knowledge

import (
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func TestSerializeValue_Node(t *testing.T) {
	node := neo4j.Node{
		ElementId: "4:abc:1",
		Labels:    []string{"Method"},
		Props:     map[string]interface{}{"name": "RLHF"},
	}

	got, ok := SerializeValue(node).(SerializedNode)
	if !ok {
		t.Fatalf("expected SerializedNode, got %T", got)
	}
	if got.Kind != "node" {
		t.Errorf("Kind = %q, want node", got.Kind)
	}
	if len(got.Labels) != 1 || got.Labels[0] != "Method" {
		t.Errorf("Labels = %v, want [Method]", got.Labels)
	}
	if got.Properties["name"] != "RLHF" {
		t.Errorf("Properties[name] = %v, want RLHF", got.Properties["name"])
	}
}

func TestSerializeValue_Relationship(t *testing.T) {
	rel := neo4j.Relationship{
		ElementId:      "5:abc:1",
		Type:           "ADDRESSES",
		StartElementId: "4:abc:1",
		EndElementId:   "4:abc:2",
		Props:          map[string]interface{}{"strength": 0.9},
	}

	got, ok := SerializeValue(rel).(SerializedRelationship)
	if !ok {
		t.Fatalf("expected SerializedRelationship, got %T", got)
	}
	if got.Type != "ADDRESSES" {
		t.Errorf("Type = %q, want ADDRESSES", got.Type)
	}
	if got.Properties["strength"] != 0.9 {
		t.Errorf("Properties[strength] = %v, want 0.9", got.Properties["strength"])
	}
}

func TestSerializeValue_PassesThroughScalars(t *testing.T) {
	if got := SerializeValue("hello"); got != "hello" {
		t.Errorf("SerializeValue(string) = %v, want hello", got)
	}
	if got := SerializeValue(int64(42)); got != int64(42) {
		t.Errorf("SerializeValue(int64) = %v, want 42", got)
	}
}

func TestSerializeValue_NestedList(t *testing.T) {
	node := neo4j.Node{ElementId: "1", Labels: []string{"Principle"}, Props: map[string]interface{}{"name": "Safety"}}
	list := []interface{}{node, "plain"}

	got, ok := SerializeValue(list).([]interface{})
	if !ok {
		t.Fatalf("expected []interface{}, got %T", got)
	}
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
	if _, ok := got[0].(SerializedNode); !ok {
		t.Errorf("got[0] = %T, want SerializedNode", got[0])
	}
	if got[1] != "plain" {
		t.Errorf("got[1] = %v, want plain", got[1])
	}
}
