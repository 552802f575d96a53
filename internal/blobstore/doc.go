// Package blobstore keeps the opaque content blobs of published packages under
// <root>/contents/<scope>/<name>/<version>.zip. Writes go through a temp file
// and a rename so a reader never observes a half-written blob, and an
// in-process lock per locator serialises concurrent writers of the same
// version. The ".zip" suffix is cosmetic: blobs are never opened as archives.
package blobstore
