// Package events implements the progress bus: it decouples state-change
// production inside download workers from consumption by polling clients
// and registered observers.
package events
