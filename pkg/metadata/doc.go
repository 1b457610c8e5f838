// Package metadata keeps the optional metadata.json append-log written
// next to downloaded media and reads it back for the renamer.
package metadata
