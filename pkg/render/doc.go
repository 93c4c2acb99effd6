// Package render holds leaf renderers: futures that keep one element of a
// backend in sync with an observable value.
package render
