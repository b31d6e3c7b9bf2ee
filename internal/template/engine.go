// Package template renders merge fields in campaign content with Liquid
// ({{ first_name }}, {{ city | default: "your city" }}) before link
// rewriting. Rendering is best-effort: a broken template falls back to
// the raw content so a send is never blocked by a typo in a tag.
package template

import (
	"fmt"
	"sync"

	"github.com/osteele/liquid"
)

// Engine renders Liquid templates with per-campaign compile caching.
type Engine struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// NewEngine creates a template engine with the default filter set.
func NewEngine() *Engine {
	e := &Engine{engine: liquid.NewEngine()}

	// {{ first_name | default: "Friend" }}
	e.engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		if s := fmt.Sprintf("%v", value); s == "" || s == "<nil>" {
			return defaultVal
		}
		return value
	})

	return e
}

// Render substitutes fields into content. cacheKey (the campaign id)
// avoids recompiling the same template once per recipient; pass "" to
// skip caching.
func (e *Engine) Render(cacheKey, content string, fields map[string]string) (string, error) {
	binding := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		binding[k] = v
	}

	if cacheKey != "" {
		if cached, ok := e.cache.Load(cacheKey); ok {
			return cached.(*liquid.Template).RenderString(binding)
		}
	}

	tpl, err := e.engine.ParseString(content)
	if err != nil {
		return content, err
	}
	if cacheKey != "" {
		e.cache.Store(cacheKey, tpl)
	}

	out, err := tpl.RenderString(binding)
	if err != nil {
		return content, err
	}
	return out, nil
}
