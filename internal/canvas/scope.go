package canvas

import "errors"

// Draw runs fn inside a draw scope with m composed onto the current
// transform. The scope is always closed when fn returns or panics, and any
// scopes fn opened without closing are closed with it, so the stack depth
// after Draw equals the depth before it.
func (c *VectorCanvas) Draw(m Matrix, fn func() error) (err error) {
	c.mu.Lock()
	if ok, stateErr := c.inFrame("draw"); !ok {
		c.mu.Unlock()
		return stateErr
	}
	depth := len(c.stack)
	c.pushUnlocked(m)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.state != StateInFrame {
			// The frame was ended or the context destroyed inside fn.
			return
		}
		switch open := len(c.stack) - depth; {
		case open <= 0:
			scopeErr := &ScopeError{Op: "draw", Depth: -1}
			if c.opts.strict {
				err = errors.Join(err, scopeErr)
			} else {
				c.log.Warn("draw scope closed by callee")
			}
		case open > 1:
			c.log.Debug("closing nested draw scopes left open", "open", open-1)
			fallthrough
		default:
			c.restoreToUnlocked(depth)
		}
	}()

	return fn()
}

// Frame runs fn between BeginFrame and EndFrame. EndFrame runs even if fn
// fails or panics; both errors are returned.
func (c *VectorCanvas) Frame(fn func() error) (err error) {
	if err := c.BeginFrame(); err != nil {
		return err
	}
	defer func() {
		if c.State() != StateInFrame {
			return
		}
		err = errors.Join(err, c.EndFrame())
	}()
	return fn()
}
