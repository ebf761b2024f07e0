// Package config provides configuration handling for importizer.
package config

// DefaultPath is the config file read when none is given on the command line.
const DefaultPath = "importizer.toml"

// Default extensions.
const (
	DefaultHdrExt             = ".hpp"
	DefaultSrcExt             = ".cpp"
	DefaultModuleInterfaceExt = ".ixx"
)

// DefaultTransitional returns the transitional settings used when the mode
// is enabled without overriding any key.
func DefaultTransitional() *Transitional {
	return &Transitional{
		Control:          "CPP_MODULES",
		ExportKeyword:    "EXPORT",
		ExportBlockBegin: "BEGIN_EXPORT",
		ExportBlockEnd:   "END_EXPORT",
		ExportMacrosPath: "Export.hpp",
	}
}
