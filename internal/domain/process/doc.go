// Package process tracks running application instances.
//
// A Table owns every Process of a desktop session: which app it runs, which
// windows it owns and where it is in its Running, Terminating, Terminated
// lifecycle. Terminating a process closes its windows through the bound
// WindowCloser and runs the app's OnCleanup hook exactly once.
package process
