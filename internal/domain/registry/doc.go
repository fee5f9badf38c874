// Package registry loads app manifests into the launcher registry.
//
// A manifest names an app kind from the apps catalog plus its launch policy
// and default window options. YAML (.yaml, .yml) and TOML (.toml) are
// accepted:
//
//	id: terminal
//	kind: terminal
//	name: Terminal
//	single_instance: true
//	multi_window: true
//	window:
//	  width: 650
//	  height: 416
//	  resizable: true
//	  grid: {cell_width: 8, cell_height: 16, header_height: 32, edge_padding: 10}
//
// The built-in manifests are embedded in the binary and registered by
// SeedDefaults. Seed walks a directory for additional manifests; a manifest
// that fails to parse, names an unknown kind or reuses a registered id is
// logged and counted, and seeding carries on.
package registry
