package knowledge

// Domain node labels for the Agentic AI concepts graph, layered on top of
// the cognitive-entity labels already defined in schema.go. These are the
// labels the retrieval pipeline and the optimizer's own bookkeeping nodes
// actually query against.
const (
	EntityTypePrinciple       EntityType = "Principle"
	EntityTypeMethod          EntityType = "Method"
	EntityTypeImplementation  EntityType = "Implementation"
	EntityTypeStandard        EntityType = "Standard"
	EntityTypeStandardVersion EntityType = "StandardVersion"
	EntityTypeDocument        EntityType = "Document"
)

// Domain relationship types connecting the labels above.
const (
	RelationshipAddresses  RelationshipType = "ADDRESSES"
	RelationshipImplements RelationshipType = "IMPLEMENTS"
	RelationshipSupports   RelationshipType = "SUPPORTS"
	RelationshipDescribes  RelationshipType = "DESCRIBES"
	RelationshipVersionOf  RelationshipType = "VERSION_OF"
)

// Optimizer/critic bookkeeping relationships. These connect nodes that
// never appear in a domain answer but that the critic and the prompt
// registry persist as ordinary graph nodes, reusing the same Neo4j
// connection and Cypher execution helpers as the domain data.
const (
	RelationshipUsesCriteria RelationshipType = "USES_CRITERIA"
	RelationshipResolves     RelationshipType = "RESOLVES" // not written by any code path; optimizer.Registry links PromptVersion -> FailurePattern with ADDRESSES
)
