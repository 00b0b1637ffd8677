// Package project assembles a slideshow session from user inputs.
//
// Builder runs the pipeline shared by plan, preview, and export: collect and
// order images, inspect the audio with ffprobe, obtain a beat timeline
// (beat cache, MIDI import, or decode plus detection), apply latency offset,
// and build the slide plan. Sessions live in memory only.
package project
