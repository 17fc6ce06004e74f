// Package harness runs end-to-end merge scenarios.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	remap: new
//	base:
//	  document:
//	    images: [{id: 1, file_name: a.jpg}]
//	    categories: [{id: 1, name: cat}]
//	    annotations: []
//	  files: [a.jpg]
//	add:
//	  document: { ... }
//	  files: [b.jpg]
//	expect:
//	  status: ok
//	assertions:
//	  - type: category
//	    name: dog
//	    id: 2
//
// # Assertion Types
//
//   - category: the unified document has a category with the given name and id
//   - annotation_category: an annotation references the given category
//   - remap: an add category id maps to the given unified id
//   - count: a container holds exactly N records
//   - image_file: a file exists in the unified image directory
//   - no_output: nothing was written
//
// # Deterministic Testing
//
// Every scenario runs in a fresh temporary directory with a step clock,
// sequential run ids and an in-memory run ledger, so its snapshot is
// byte-identical across runs. Snapshots contain no file system paths and are
// compared against testdata/golden/<name>.golden.
package harness
