// Package rename restores original file names for downloaded audio.
//
// Downloads are stored as {messageId}.{ext}. When metadata recording was
// enabled, metadata.json remembers each document's original file name; a
// Plan pairs the audio files in a directory with those names and Apply
// copies them into an output directory under their original names.
package rename
