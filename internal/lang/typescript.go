package lang

import (
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

func init() {
	Languages["typescript"] = &Language{
		Name:       "typescript",
		Extensions: []string{".ts", ".mts", ".cts"},
		Typed:      true,
		lang:       typescript.GetLanguage(),
		queryFile:  "ecmascript",
	}
	Languages["tsx"] = &Language{
		Name:       "tsx",
		Extensions: []string{".tsx"},
		Typed:      true,
		lang:       tsx.GetLanguage(),
		queryFile:  "ecmascript",
	}
}
