// Package images collects and orders the pictures that make up a slideshow.
//
// Directories are scanned one level deep for JPEG, PNG, and GIF files and
// sorted naturally (frame2 before frame10). Explicit file arguments keep the
// order the user gave them. Each image is header-decoded so that unreadable
// files fail early with their path in the error, before any beat analysis.
package images
