package browser

import (
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// blockRoutes installs a catch-all route handler that aborts requests for
// the given resource types and lets everything else through. The handler
// runs on the driver's dispatch loop, so failures are logged instead of
// returned.
func blockRoutes(page playwright.Page, types []string, logger *zap.Logger) error {
	blocked := make(map[string]struct{}, len(types))
	for _, t := range types {
		blocked[t] = struct{}{}
	}
	return page.Route("**/*", func(route playwright.Route) {
		if _, ok := blocked[route.Request().ResourceType()]; ok {
			if err := route.Abort(); err != nil && logger != nil {
				logger.Debug("failed to abort blocked request",
					zap.String("url", route.Request().URL()),
					zap.Error(err))
			}
			return
		}
		if err := route.Continue(); err != nil && logger != nil {
			logger.Debug("failed to continue request",
				zap.String("url", route.Request().URL()),
				zap.Error(err))
		}
	})
}
