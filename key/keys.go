// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Harvest Pipeline - these keys govern concurrency, quality preference and resume behaviour.
const (
	HarvestTabs      = "harvest.tabs"
	HarvestQualities = "harvest.qualities"
	HarvestSite      = "harvest.site"
	HarvestResume    = "harvest.resume"
)

// Headless Browser - these keys configure the shared browser backing every page session.
const (
	BrowserHeadless = "browser.headless"
	BrowserBin      = "browser.bin"
	BrowserTimeout  = "browser.timeout"
)

// Downstream Hand-off - these keys configure the external download-manager trigger.
const (
	DownloaderCommand = "downloader.command"
	DownloaderAuto    = "downloader.auto"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these settings govern the terminal output.
const (
	CliColored = "cli.colored"
)
