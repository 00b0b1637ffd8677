// Package main hosts the beatframe CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into calls on the
// internal packages: analyze and plan print beat timelines and slide plans,
// export renders a video through ffmpeg, preview serves the plan to a
// browser, and cache, doctor, and config cover maintenance. Configuration
// and logging are resolved once in commandContext so subcommands only wire
// flags to the project builder.
package main
