package server

import (
	"errors"

	"webchat/services/chat"

	"github.com/gofiber/template/html/v2"
)

// addTemplateFunctions adds custom functions to the template engine
func addTemplateFunctions(engine *html.Engine) {
	// dict builds a map for passing several values to a partial
	engine.AddFunc("dict", func(values ...any) (map[string]any, error) {
		if len(values)%2 != 0 {
			return nil, errors.New("invalid dict call")
		}
		dict := make(map[string]any, len(values)/2)
		for i := 0; i < len(values); i += 2 {
			key, ok := values[i].(string)
			if !ok {
				return nil, errors.New("dict keys must be strings")
			}
			dict[key] = values[i+1]
		}
		return dict, nil
	})

	engine.AddFunc("default", func(value, defaultValue any) any {
		if value == nil || value == "" {
			return defaultValue
		}
		return value
	})

	// isActive marks the selected contact in the panel
	engine.AddFunc("isActive", func(active chat.Conversation, id int64, kind string) bool {
		return active.Set && int64(active.ID) == id && string(active.Kind) == kind
	})

	// tabName maps a conversation kind onto its contact tab
	engine.AddFunc("tabName", func(kind string) string {
		if kind == string(chat.KindGroup) {
			return "群聊"
		}
		return "私聊"
	})
}
