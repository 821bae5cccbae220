// Package python extracts class declarations from Python source files.
//
// Parsing uses tree-sitter, so no Python interpreter is needed and nothing in
// the analyzed project is executed. The extractor is static: classes created
// dynamically, conditionally, or inside functions are not seen, and bases
// computed by calls are skipped.
package python
