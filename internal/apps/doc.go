// Package apps contains the built-in app bundles and the catalog that maps
// manifest kinds to their factories.
//
// Each app only talks to the desktop through the capabilities in its
// types.AppEnv. Apps implement the optional menu, grid resize and quit
// policy interfaces where they need them.
package apps
