package gdsmerge

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "Merge GDS files with automatic renaming of duplicate cells"
	MsgInspectShort    = "List the structures and references of stream files"
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"
	MsgManShort        = "Generate man pages"

	// Status messages
	MsgReportWritten = "Report written to [path]%s[/path] (%s)"
	MsgManWritten    = "Man pages written to [path]%s[/path]"
	MsgVersionFormat = "gdsmerge version %s\n  commit: %s\n  built:  %s\n"

	// Error messages
	MsgErrNoOutput = "an output file is required, use -o OUTPUT"
	MsgErrNoInputs = "at least one input file is required"

	// Flag descriptions
	MsgFlagVerbose      = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagOutput       = "Output stream file"
	MsgFlagReport       = "Write the rename mapping and output digest to this file"
	MsgFlagReportFormat = "Report encoding: toml, yaml, json, xml or cbor (default from the file extension)"
	MsgFlagLibraryName  = "LIBNAME of the output (default: LIBNAME of the first input)"
	MsgFlagFormat       = "Summary format: auto, term, text or json"
	MsgFlagConfig       = "Config file (TOML, or YAML with a .yaml extension)"
	MsgFlagManDir       = "Directory to write man pages to"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/root-example.txt
	msgRootExampleRaw string
	MsgRootExample    = strings.TrimRight(msgRootExampleRaw, "\n")

	//go:embed msgs/inspect-long.txt
	msgInspectLongRaw string
	MsgInspectLong    = strings.TrimSpace(msgInspectLongRaw)

	//go:embed msgs/inspect-example.txt
	msgInspectExampleRaw string
	MsgInspectExample    = strings.TrimRight(msgInspectExampleRaw, "\n")

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)
)
