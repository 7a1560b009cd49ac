// Package config loads textcore settings from TOML files and keeps them
// current while the file changes.
//
// A configuration file has three sections:
//
//	[engine]
//	max_undo_entries = 500
//	read_only = false
//	verify_invariants = true
//
//	[log]
//	level = "debug"
//	file = "/tmp/textcore.log"
//
//	[script]
//	path = "report.lua"
//	call_stack_size = 256
//	timeout = "2s"
//
// Missing keys keep their defaults. Unknown keys are errors. Environment
// variables TEXTCORE_LOG_LEVEL, TEXTCORE_READ_ONLY and TEXTCORE_SCRIPT
// override the file.
package config
