package browser

import "github.com/playwright-community/playwright-go"

// stealthInitScript masks the automation flag most bot checks probe first.
// It runs in every new document before any page script.
const stealthInitScript = `
navigator.webdriver = false;
Object.defineProperty(navigator, 'webdriver', { get: () => false });
`

func applyStealth(context playwright.BrowserContext) error {
	return context.AddInitScript(playwright.Script{
		Content: playwright.String(stealthInitScript),
	})
}
