// Package domain defines the trusted source model of the registry and the repository
// interfaces it is stored through.
//
// A TrustedSource names a package source, its optional service index and the signing
// certificates trusted for it. SettingsRepository is the narrow key/value boundary of the
// settings store, and TrustedSourceRepository is the registry built on top of it.
// Source names and fingerprints are compared ignoring case throughout.
package domain
