// Package report renders scan reports.
//
// Render produces the plain one-line-per-port listing. The Writer
// implementations build on it:
//   - SimpleWriter: human-readable text for terminal display
//   - JSONWriter: structured JSON output for tool integration
//   - MarkdownWriter: Markdown with a port table and a state pie chart
//
// Writers only read the report; they never modify it.
package report
