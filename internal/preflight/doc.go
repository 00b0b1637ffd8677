// Package preflight provides readiness checks for the external tools and
// filesystem paths beatframe depends on.
//
// The CLI "beatframe doctor" command runs RunAll and CheckSystemDeps and
// renders the results as a table. The export command calls
// CheckCreatableDirectory before launching ffmpeg so a read-only output
// location fails fast instead of after a long encode.
package preflight
