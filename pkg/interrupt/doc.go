// Package interrupt turns SIGINT and SIGTERM into a cooperative stop
// request. While nothing is downloading a signal exits the process at
// once; during a download it only raises a flag that the download loop
// polls, so the current checkpoint can be committed first.
package interrupt
