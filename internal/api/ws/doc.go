// Package ws streams session bus events to the rendering front end.
//
// Each connection gets its own bus subscription. The server sends a system
// greeting, then one {"type":"event","event":{...}} message per event; a slow
// client loses events (counted by the bus) instead of stalling the desktop.
package ws
