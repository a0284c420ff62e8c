package pipeline

import "github.com/invopop/jsonschema"

// DefinitionSchema returns the JSON schema of the YAML definition format.
func DefinitionSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		FieldNameTag:              "yaml",
	}
	schema := reflector.Reflect(&yamlDefinition{})
	schema.Title = "Pipeline definition"
	return schema
}
