package gemini

import _ "embed"

//go:embed prompts/explain.md
var explainTemplate string

//go:embed prompts/structure.md
var structureTemplate string
