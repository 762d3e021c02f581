package blocks

import "strings"

// PlainText is the code language used when a fence has no usable tag.
const PlainText = "plain text"

var languageAliases = map[string]string{
	"js":         "javascript",
	"jsx":        "javascript",
	"ts":         "typescript",
	"tsx":        "typescript",
	"py":         "python",
	"python3":    "python",
	"golang":     "go",
	"sh":         "shell",
	"zsh":        "shell",
	"console":    "shell",
	"yml":        "yaml",
	"rb":         "ruby",
	"rs":         "rust",
	"kt":         "kotlin",
	"cs":         "c#",
	"csharp":     "c#",
	"cpp":        "c++",
	"text":       PlainText,
	"txt":        PlainText,
	"plaintext":  PlainText,
	"md":         "markdown",
	"dockerfile": "docker",
}

// languages accepted by the page content API for code blocks.
var languages = map[string]struct{}{
	"bash": {}, "c": {}, "c#": {}, "c++": {}, "css": {}, "dart": {}, "docker": {},
	"elixir": {}, "go": {}, "graphql": {}, "haskell": {}, "html": {}, "java": {},
	"javascript": {}, "json": {}, "kotlin": {}, "lua": {}, "makefile": {},
	"markdown": {}, "mermaid": {}, "php": {}, PlainText: {}, "powershell": {},
	"python": {}, "r": {}, "ruby": {}, "rust": {}, "scala": {}, "shell": {},
	"sql": {}, "swift": {}, "typescript": {}, "xml": {}, "yaml": {},
}

func normalizeLanguage(tag string) string {
	fields := strings.Fields(strings.ToLower(tag))
	if len(fields) == 0 {
		return PlainText
	}
	lang := fields[0]
	if alias, ok := languageAliases[lang]; ok {
		lang = alias
	}
	if _, ok := languages[lang]; !ok {
		return PlainText
	}
	return lang
}
