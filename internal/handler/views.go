package handler

import (
	"sort"

	"github.com/go-faster/jx"

	"github.com/xenking/catalog-admin/internal/apierror"
	"github.com/xenking/catalog-admin/internal/catalog"
)

func listStatus(n int) string {
	if n == 0 {
		return "empty"
	}
	return "ok"
}

func encodeClassification(e *jx.Encoder, c apierror.Classification) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("kind", func(e *jx.Encoder) { e.Str(string(c.Kind)) })
		e.Field("message", func(e *jx.Encoder) { e.Str(c.Message) })
		e.Field("action", func(e *jx.Encoder) { e.Str(string(c.Action)) })
	})
}

func encodeNotifications(e *jx.Encoder, notes []catalog.Notification) {
	e.Arr(func(e *jx.Encoder) {
		for _, n := range notes {
			e.Obj(func(e *jx.Encoder) {
				e.Field("level", func(e *jx.Encoder) { e.Str(string(n.Level)) })
				e.Field("message", func(e *jx.Encoder) { e.Str(n.Message) })
			})
		}
	})
}

// encodeFields writes the field errors in name order.
func encodeFields(e *jx.Encoder, fields map[string]string) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	e.Obj(func(e *jx.Encoder) {
		for _, name := range names {
			e.Field(name, func(e *jx.Encoder) { e.Str(fields[name]) })
		}
	})
}
