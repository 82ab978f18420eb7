package cache

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// RenderFunc lays out DOT source and returns SVG bytes. It has the shape of
// board.Renderer.
type RenderFunc = func(ctx context.Context, dot string) ([]byte, error)

// WrapRenderer returns a RenderFunc that serves repeated DOT documents from
// c and stores fresh renders with the given ttl. Cache errors are logged
// and fall through to render; they never fail a render.
func WrapRenderer(c Cache, ttl time.Duration, render RenderFunc) RenderFunc {
	return func(ctx context.Context, dot string) ([]byte, error) {
		key := RenderKey(dot)
		if data, ok, err := c.Get(ctx, key); err != nil {
			log.Debug("render cache read failed", "err", err)
		} else if ok {
			return data, nil
		}

		svg, err := render(ctx, dot)
		if err != nil {
			return nil, err
		}
		if err := c.Set(ctx, key, svg, ttl); err != nil {
			log.Debug("render cache write failed", "err", err)
		}
		return svg, nil
	}
}
