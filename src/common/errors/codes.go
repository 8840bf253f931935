package errors

// Process exit statuses. Everything fatal exits 1 except a finished
// build whose artifact never appeared, which exits 33 so wrapper
// scripts can tell "build produced nothing" from "bad invocation".
const (
	ExitFailure          = 1
	ExitArtifactNotFound = 33
)

// Common error codes used across domains
const (
	CodeNotFound       Code = "not_found"
	CodeInvalidRequest Code = "invalid_request"
	CodeConflict       Code = "conflict"
	CodeInternal       Code = "internal_error"
)

// ============================================================================
// Configuration Errors
// ============================================================================

var (
	// ErrMissingArgumentValue is returned when a value-taking flag appears
	// without a value
	ErrMissingArgumentValue = New(DomainConfig, "missing_argument_value", ExitFailure,
		"Flag requires a value")

	// ErrNotABuildRoot is returned when the working folder is not a kernel
	// build-system root
	ErrNotABuildRoot = New(DomainConfig, "not_a_build_root", ExitFailure,
		"Folder is not a kernel build root")

	// ErrNoDefconfigSupplied is returned when no defconfig fragment was given
	ErrNoDefconfigSupplied = New(DomainConfig, "no_defconfig", ExitFailure,
		"No defconfig supplied")

	// ErrWarnPolicyConflict is returned when -Werror and -Wno-error are both set
	ErrWarnPolicyConflict = New(DomainConfig, CodeConflict, ExitFailure,
		"Conflicting warning policy flags")

	// ErrUnknownPreset is returned when --preset names a preset that is not
	// defined in the preset file
	ErrUnknownPreset = New(DomainConfig, "unknown_preset", ExitFailure,
		"Unknown device preset")

	// ErrInvalidConfigValue is returned when a configuration value fails validation
	ErrInvalidConfigValue = New(DomainConfig, CodeInvalidRequest, ExitFailure,
		"Invalid configuration value")
)

// ============================================================================
// Toolchain Errors
// ============================================================================

var (
	// ErrInvalidToolchainFolder is returned when a toolchain folder does not
	// exist as given or under the toolchain root
	ErrInvalidToolchainFolder = New(DomainToolchain, "invalid_folder", ExitFailure,
		"Toolchain folder does not exist")

	// ErrToolchainPrefixUnresolvable is returned when no gcc-suffixed binary
	// exists in a toolchain bin folder
	ErrToolchainPrefixUnresolvable = New(DomainToolchain, "prefix_unresolvable", ExitFailure,
		"Cannot resolve cross-compile prefix")

	// ErrMissingCompilerBinary is returned when the requested compiler binary
	// is absent from the resolved toolchain
	ErrMissingCompilerBinary = New(DomainToolchain, "missing_compiler", ExitFailure,
		"Compiler binary not found in toolchain")
)

// ============================================================================
// Build Errors
// ============================================================================

var (
	// ErrBuildArtifactNotFound is returned when the pipeline finished but no
	// kernel image matched any artifact pattern
	ErrBuildArtifactNotFound = New(DomainBuild, CodeNotFound, ExitArtifactNotFound,
		"No kernel image produced")

	// ErrBuilderUnavailable is returned when the external builder cannot be
	// spawned at all
	ErrBuilderUnavailable = New(DomainBuild, "builder_unavailable", ExitFailure,
		"Build tool cannot be executed")
)

// ============================================================================
// History Errors
// ============================================================================

var (
	// ErrHistoryOpen is returned when the history database cannot be opened
	ErrHistoryOpen = New(DomainHistory, "open_failed", ExitFailure,
		"Cannot open build history")

	// ErrHistoryQuery is returned when a history query fails
	ErrHistoryQuery = New(DomainHistory, "query_failed", ExitFailure,
		"Build history query failed")
)

// ============================================================================
// Archive Errors
// ============================================================================

var (
	// ErrArchiveCreate is returned when the flashable archive cannot be written
	ErrArchiveCreate = New(DomainArchive, "create_failed", ExitFailure,
		"Cannot create flashable archive")
)

// ============================================================================
// Internal Errors
// ============================================================================

var (
	// ErrInternal is a generic internal error
	ErrInternal = New(DomainInternal, CodeInternal, ExitFailure,
		"Internal error")
)
