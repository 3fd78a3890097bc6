// Package templates holds the dashboard page and the fragments patched into
// it over SSE. Markup lives in the .templ files; run templ generate after
// editing them.
package templates

import (
	"context"
	"strings"

	"github.com/a-h/templ"
)

// RenderString renders c into a string for SSE patches.
func RenderString(ctx context.Context, c templ.Component) (string, error) {
	var sb strings.Builder
	if err := c.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}
