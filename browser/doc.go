// Package browser implements core.BrowserDriver on top of a Chromium instance
// driven through go-rod. Each run is a bounded plan/act loop: the completion
// capability picks one action per step (navigate, extract, screenshot,
// finish) as strict JSON, the driver executes it against the live page and
// feeds the observation back into the next planning round. Screenshots are
// always written to disk and surfaced as attachment paths.
package browser
