package config

const (
	defaultRunsDir                   = "~/.local/share/takeoutsync/runs"
	defaultLogDir                    = "~/.local/share/takeoutsync/logs"
	defaultCacheDir                  = "~/.cache/takeoutsync"
	defaultDestinationClient         = ClientPhotos
	defaultOsascriptBinary           = "osascript"
	defaultChunkSize                 = 200
	defaultRestartEvery              = 2000
	defaultAlbumPrefix               = "Photos from "
	defaultCallTimeoutSeconds        = 600
	defaultExiftoolBinary            = "exiftool"
	defaultFFprobeBinary             = "ffprobe"
	defaultMetadataConcurrency       = 4
	defaultTimestampToleranceSeconds = 2
	defaultMode                      = ModeOrganize
	defaultLogFormat                 = "console"
	defaultLogLevel                  = "info"
	defaultLogRetentionDays          = 60
)

// Destination clients.
const (
	ClientPhotos = "photos"
	ClientNone   = "none"
)

// Reconcile modes.
const (
	ModeOrganize = "organize"
	ModeImport   = "import"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			RunsDir:  defaultRunsDir,
			LogDir:   defaultLogDir,
			CacheDir: defaultCacheDir,
		},
		Destination: Destination{
			Client:             defaultDestinationClient,
			OsascriptBinary:    defaultOsascriptBinary,
			ChunkSize:          defaultChunkSize,
			RestartEvery:       defaultRestartEvery,
			DefaultAlbumPrefix: defaultAlbumPrefix,
			CallTimeoutSeconds: defaultCallTimeoutSeconds,
		},
		Metadata: Metadata{
			ExiftoolBinary: defaultExiftoolBinary,
			FFprobeBinary:  defaultFFprobeBinary,
			Concurrency:    defaultMetadataConcurrency,
			CacheEnabled:   true,
			ExifFallback:   true,
		},
		Matching: Matching{
			TimestampToleranceSeconds: defaultTimestampToleranceSeconds,
			StrictManifestMatch:       true,
		},
		Reconcile: Reconcile{
			Mode:   defaultMode,
			WhatIf: true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
