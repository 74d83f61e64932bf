// Package source holds the decoded recording that the engine plays from and
// the millisecond ranges used to address windows of it.
//
// A Waveform is loaded once at startup and never written afterwards, so it is
// shared freely between the control loop and prefetch goroutines.
package source
