// Package browser provides convenience helpers for opening and driving
// Playwright browser sessions.
//
// The package wraps playwright-go page and context creation behind a small
// set of opinionated defaults aimed at scraping and scripted web
// interactions: headless launches, download acceptance, an anti-webdriver
// init script, cookie preloading, and route-level blocking of heavyweight
// resource types.
//
// # Architecture
//
// The package is built around four core concepts:
//
//  1. Launcher: owns the Playwright driver process and opens sessions
//  2. Session: one browser + context + page triple with its lifecycle
//  3. Manager: a named registry of sessions with caps and idle cleanup
//  4. Action/Middleware: composable page functions replacing ad-hoc glue
//
// # Session Lifecycle
//
// Sessions follow this lifecycle:
//
//  1. Start the launcher once per process (installs and runs the driver)
//  2. Open sessions directly (NewSession) or through a Manager
//  3. Close sessions explicitly, or rely on Manager idle cleanup
//  4. Stop the launcher on shutdown
//
// # Composition
//
// An Action is any func(page) error. Middleware wraps an Action with
// behavior that runs around it, such as a randomized settle wait or a
// loaded-marker visibility check:
//
//	run := browser.Chain(
//	    browser.WaitAfter(browser.DefaultWaitMs, true),
//	    browser.LoadedMarker("content-loaded", browser.MarkerOptions{}),
//	)(scrape)
//	err := launcher.WithPage(browser.PageOptions{}, run)
//
// WithPage opens a fresh session around the action and always releases it,
// mirroring the lifetime of a one-shot scraping call.
package browser
