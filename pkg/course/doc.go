// Package course walks a course on the portal and fetches its files.
//
// Locate finds the course link on the landing page, Walker follows it through
// Content and Print/Download to a Listing of topic Items, and Downloader
// resolves each item's preview frame to a file saved under the course folder.
package course
