// Package version reports which build of the profile wizard is running.
// The values are set through -ldflags at build time and otherwise taken
// from the VCS settings the Go toolchain embeds.
package version
