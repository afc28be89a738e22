package config

// Presets maps preset names to their system prompt content.
var Presets = map[string]string{
	"assistant":  "You are a helpful assistant. Use the available tools when they help you answer accurately, and say so plainly when you cannot complete a request.",
	"researcher": "You are a research assistant. Search the web for current information, cite the sources you used, and keep answers short.",
	"files":      "You are a workspace assistant. Read, list and write files in the session workspace to complete the user's request. Describe every file you create.",
}

// GetPreset returns the system prompt for the given preset name.
// Returns empty string and false if the preset is not found.
func GetPreset(name string) (string, bool) {
	content, ok := Presets[name]
	return content, ok
}
