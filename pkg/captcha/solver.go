// Package captcha detects captcha walls on live pages and solves them
// through a 2captcha-compatible solving service.
package captcha

import (
	"context"

	"github.com/playwright-community/playwright-go"
)

// Solver resolves a captcha wall blocking an open page. Implementations
// report whether the caller should reload the page afterwards and whether
// the captcha was actually solved.
type Solver interface {
	Solve(ctx context.Context, page playwright.Page) (refresh bool, solved bool, err error)
}

// SolverFunc adapts a plain function to the Solver interface.
type SolverFunc func(ctx context.Context, page playwright.Page) (refresh bool, solved bool, err error)

// Solve implements Solver.
func (f SolverFunc) Solve(ctx context.Context, page playwright.Page) (bool, bool, error) {
	return f(ctx, page)
}
