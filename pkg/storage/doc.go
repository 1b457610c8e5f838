// Package storage writes downloaded media to the job's output directory.
//
// Files are named {messageId}.{ext}. The output directory is created
// recursively on the first write, so a job that never finds any media
// leaves no directory behind. Every write goes through a temporary file
// and a rename, so a crash never leaves a truncated file under its final
// name.
//
// Usage:
//
//	files := storage.NewManager("/data/channel")
//	path, err := files.Save(storage.FileName(msg.ID, "jpg"), data)
//	if err != nil {
//	    log.Printf("Failed to save file: %v", err)
//	}
package storage
