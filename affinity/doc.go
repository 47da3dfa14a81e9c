// Package affinity pins the calling OS thread to a logical CPU, for
// thread-pool workers that benefit from staying on one core. Platform
// implementations live in build-tagged siblings; unsupported platforms
// get a stub that always errors.
package affinity
