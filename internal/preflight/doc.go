// Package preflight provides readiness checks for the codecs and directories
// a sitepix command depends on.
//
// These checks run in two contexts:
//   - Mutating commands call Codecs before touching any file and refuse to
//     start when a required codec cannot encode.
//   - The "sitepix doctor" command calls RunAll to display every check.
package preflight
