// Package source produces class declarations for the hierarchy registry.
//
// Declarations come from two places:
//
//   - [LoadPackage] walks a Python package on disk and extracts its classes
//     statically (see package source/python). Modules that fail to parse are
//     reported in the [LoadReport] and skipped.
//   - [Manifest] files describe classes declaratively in JSON, TOML or YAML.
//     They are useful for fixtures and for hierarchies that do not come from
//     Python at all.
//
// [Stubs] supplies declarations for the standard-library classes user code
// most often inherits from (Exception, Enum, ABC, Generic and a few more), so
// that real packages resolve without UNRESOLVED_BASE failures.
//
// [Discover] lists the packages under a project directory.
package source
