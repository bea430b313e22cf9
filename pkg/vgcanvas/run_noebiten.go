//go:build noebiten

package vgcanvas

import (
	"context"
	"fmt"
)

// Run is unavailable in noebiten builds.
func (p *playerImpl) Run(ctx context.Context) error {
	if !p.loaded.Load() {
		return ErrNotLoaded
	}
	return NewCategorizedError(fmt.Errorf("%s: %w", p.cfg.Backend.Name, ErrNoWindow), ErrorCategoryBackend, SeverityError)
}
