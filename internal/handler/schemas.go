package handler

import (
	"embed"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFiles embed.FS

var (
	createCommentSchema = mustCompileSchema("comment_create.schema.json")
	deleteCommentSchema = mustCompileSchema("comment_delete.schema.json")
)

func mustCompileSchema(name string) *jsonschema.Schema {
	raw, err := schemaFiles.ReadFile("schemas/" + name)
	if err != nil {
		panic(err)
	}
	return jsonschema.MustCompileString("mem://comments/schemas/"+name, string(raw))
}
