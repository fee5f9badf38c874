/*
Package launcher maps app ids to descriptors and starts apps.

Launch decides between reusing a running instance and starting a new
process:

  - single-instance apps with a live process bring their top window forward,
    restoring it from the dock if needed
  - a windowless single-instance process gets a new window unless its
    relaunch policy is stay_headless
  - ForceNew on a multi-window app attaches a window to the running process
  - everything else starts a new process

Starting a process is all-or-nothing: if the factory or the first window's
OnInitialize fails, the process and window are torn down and the caller gets
a *LaunchError matching ErrLaunchFailed. Each app has its own circuit
breaker, so an app that keeps failing is refused without running its factory.
*/
package launcher
