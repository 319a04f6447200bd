// Package listview provides a scrolling, keyboard-navigable list component
// for Bubble Tea models.
//
// Only the rows inside the viewport are rendered. Items carry a stable key so
// the selection follows the same item when the list is replaced with fresh
// data, which is what a list backed by a refetching query needs.
package listview
