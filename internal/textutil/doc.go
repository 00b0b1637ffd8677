// Package textutil provides filename sanitization for paths derived from
// slideshow titles.
package textutil
