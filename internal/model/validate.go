package model

import (
	"fmt"
	"path/filepath"

	"github.com/xeipuuv/gojsonschema"
)

// SchemaDir locates the JSON schema files. Relative to the working
// directory by default; tests and deployments may point it elsewhere.
var SchemaDir = "templates"

// ValidateResumePayload validates a resume create/update payload against
// the resume.schema.json file.
func ValidateResumePayload(m map[string]interface{}) error {
	return validateWithSchema(filepath.Join(SchemaDir, "resume.schema.json"), m)
}

func validateWithSchema(schemaFile string, m map[string]interface{}) error {
	// Use absolute canonical file:// path for the schema so loaders on all
	// platforms resolve file references correctly.
	abs, err := filepath.Abs(schemaFile)
	if err != nil {
		return err
	}
	schemaLoader := gojsonschema.NewReferenceLoader("file://" + filepath.ToSlash(abs))
	docLoader := gojsonschema.NewGoLoader(m)

	res, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return err
	}
	if res.Valid() {
		return nil
	}
	msgs := ""
	for _, e := range res.Errors() {
		msgs += fmt.Sprintf("%s; ", e.String())
	}
	return fmt.Errorf("schema validation failed: %s", msgs)
}
