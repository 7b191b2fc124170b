// Package io reads and writes task graphs and simulation results.
//
// # Graph Format
//
// Graphs are stored as two arrays. Tasks that appear in an edge need not be
// listed under "tasks"; listing them is only required for isolated tasks or
// to attach a duration:
//
//	{
//	  "tasks": [
//	    {"id": "fetch", "duration": 3},
//	    {"id": "lint"}
//	  ],
//	  "edges": [
//	    {"from": "fetch", "to": "build"},
//	    {"from": "build", "to": "test"}
//	  ]
//	}
//
// The same structure is accepted as YAML:
//
//	tasks:
//	  - id: fetch
//	    duration: 3
//	edges:
//	  - {from: fetch, to: build}
//
// Plain-text constraint files (".txt") are read with package parse.
//
// # Import and Export
//
// [ReadJSON] and [ReadYAML] decode from any io.Reader; [ImportFile] picks the
// codec from the file extension. [WriteJSON], [WriteYAML] and [ExportFile] are
// the inverse. Output lists tasks and edges sorted, so exporting the same
// graph twice yields identical bytes.
//
// Decoding failures are INVALID_FORMAT errors; an invalid identity or a
// self-edge is MALFORMED_EDGE. Cycles are accepted here and reported by the
// algorithms that cannot handle them.
//
// [WriteResultJSON] and [WriteResultYAML] encode a simulation result.
package io
