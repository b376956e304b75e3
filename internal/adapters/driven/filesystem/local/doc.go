// Package local provides a driven.FileSystem rooted at a directory on the
// local disk. Writes, copy destinations and removals are confined to the
// root; sources for Copy and ReadFile may live anywhere readable.
//
// Source paths may be given as file:// URIs.
package local
