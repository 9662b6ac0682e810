// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// DefinedFieldsCount represents the total cardinality of the application configuration schema.
const DefinedFieldsCount = 32

// Streaming Engine - these keys select and tune the engine bound to the media surface.
const (
	EngineKind        = "engine.kind"
	EngineStartLevel  = "engine.start_level"
	EngineUserAgent   = "engine.user_agent"
	MediaRecoverRetry = "media.recover_max_retry"
)

// Manifest, level playlist and fragment loading policies.
const (
	ManifestTimeout    = "manifest.timeout"
	ManifestMaxRetry   = "manifest.max_retry"
	ManifestRetryDelay = "manifest.retry_delay"

	LevelTimeout    = "level.timeout"
	LevelMaxRetry   = "level.max_retry"
	LevelRetryDelay = "level.retry_delay"

	FragmentTimeout    = "fragment.timeout"
	FragmentMaxRetry   = "fragment.max_retry"
	FragmentRetryDelay = "fragment.retry_delay"
)

// Buffering - these keys bound how far ahead of the playhead the engine fetches.
const (
	BufferMaxLength     = "buffer.max_length"
	BufferMaxSize       = "buffer.max_size"
	BufferLiveSyncCount = "buffer.live_sync_count"
)

// Adaptive bitrate estimation.
const (
	ABRDefaultEstimate = "abr.default_estimate"
	ABRBandwidthFactor = "abr.bandwidth_factor"
)

// Media Playback - these keys configure the surface and the initial session.
const (
	PlayerSurface            = "player.surface"
	PlayerAutoplay           = "player.autoplay"
	PlayerVolume             = "player.volume"
	PlayerMuted              = "player.muted"
	PlayerControlsHideDelay  = "player.controls_hide_delay"
	PlayerControlsLeaveDelay = "player.controls_leave_delay"
)

// History Tracking - these keys configure the persistence of recently watched channels.
const (
	HistorySaveOnPlay = "history.save_on_play"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern the non-TUI application behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)

// Metrics exposition.
const (
	MetricsListen = "metrics.listen"
)
