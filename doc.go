// Package schemabin serializes JSON-like value trees into a compact binary
// stream under a declared schema and reads them back.
//
// The pipeline has three parts, each usable on its own:
//
//   - parser: schema source text and value text into trees (also YAML)
//   - validate: structural checks of a value against a schema
//   - codec: the schema-routed little-endian wire format
//
// The root package wraps them in an Engine that carries logging and limits:
//
//	eng := schemabin.New(schemabin.WithLogger(logger))
//	defer eng.Close()
//
//	s, err := eng.LoadSchemaFile(ctx, "person.schema.json")
//	v, err := eng.ParseValue(ctx, `{"name": "Alice", "age": 30}`)
//	wire, err := eng.Serialize(ctx, s, v)
//	back, err := eng.Deserialize(ctx, s, wire)
//
// Errors are issue.Issues; branch on the failure kind with errors.Is:
//
//	if errors.Is(err, schemabin.KindSchemaViolation) { ... }
package schemabin
