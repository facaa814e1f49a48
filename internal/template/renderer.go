// Package template renders a campaign message for one recipient: merge
// fields first, spintax second. Rendering is total; a broken template
// falls back to the raw text so the send still goes out.
package template

import (
	"math/rand"
	"regexp"

	"github.com/osteele/liquid"
	"github.com/rs/zerolog"

	"github.com/textloop/campaign-dispatch/internal/model"
)

// Context exposes the merge-field namespaces a template can reference,
// e.g. {{ contact.name }} or {{ inbox.name }}. Nil members render as
// empty values.
type Context struct {
	Contact *model.Contact
	Agent   *model.User
	Inbox   *model.Inbox
	Account *model.Account
}

func (c Context) bindings() map[string]interface{} {
	b := map[string]interface{}{}
	if c.Contact != nil {
		b["contact"] = map[string]interface{}{
			"name":         c.Contact.Name,
			"email":        c.Contact.Email,
			"phone_number": c.Contact.PhoneNumber,
		}
	}
	if c.Agent != nil {
		b["agent"] = map[string]interface{}{
			"name":  c.Agent.Name,
			"email": c.Agent.Email,
		}
	}
	if c.Inbox != nil {
		b["inbox"] = map[string]interface{}{
			"name": c.Inbox.Name,
		}
	}
	if c.Account != nil {
		b["account"] = map[string]interface{}{
			"name": c.Account.Name,
		}
	}
	return b
}

// Backtick spans are treated as code: merge-field syntax inside them is
// wrapped in raw tags so liquid leaves it alone.
var backtickSpan = regexp.MustCompile("(?s)`(.*?)`")

type Renderer struct {
	engine *liquid.Engine
	log    zerolog.Logger
	pick   func(n int) int
}

func NewRenderer(log zerolog.Logger) *Renderer {
	return &Renderer{
		engine: liquid.NewEngine(),
		log:    log,
		pick:   rand.Intn,
	}
}

// Render substitutes merge fields and expands spintax groups. On a
// template error the original message is returned unchanged.
func (r *Renderer) Render(message string, ctx Context) string {
	escaped := backtickSpan.ReplaceAllString(message, "{% raw %}`$1`{% endraw %}")
	rendered, err := r.engine.ParseAndRenderString(escaped, ctx.bindings())
	if err != nil {
		r.log.Warn().Err(err).Msg("template render failed, falling back to raw message")
		return message
	}
	return ExpandSpintax(rendered, r.pick)
}
