package views

import jsoniter "github.com/json-iterator/go"

// NewEncoder returns the JSON configuration shared by every renderer and the broadcaster.
// The returned API is frozen and holds no per-call state; build it once at startup.
func NewEncoder() jsoniter.API {
	return jsoniter.Config{
		EscapeHTML:             true,
		SortMapKeys:            true,
		ValidateJsonRawMessage: true,
	}.Froze()
}
