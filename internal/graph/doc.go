// Package graph turns integer series into terminal strings: braille
// time-series graphs, percentage meters, bounded history buffers, and the
// binary-unit humanizer used for byte and bit counts.
//
// Graphs pack two samples into every terminal cell. Each cell is a braille
// glyph whose left and right dot columns encode a fill level from 0 to 4,
// so a graph of width w shows the last 2w samples. A graph keeps two row
// buffers offset by one sample and alternates between them on every Add,
// which lets a new value shift the output by half a cell without
// re-rendering the history.
//
// Multi-row graphs are emitted as one string: rows are separated by
// "cursor down one, cursor left width" so the caller only positions the
// top-left corner.
package graph
