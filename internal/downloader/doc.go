// Package downloader walks a chat's search results page by page and
// saves each media item, advancing the job cursor after every page.
//
// Messages are handled strictly in ascending id order so the stored
// offset always marks the last message that was fully processed.
package downloader
