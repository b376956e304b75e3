// Package inbox ingests processed documents handed off by the AI pipeline.
//
// A hand-off is a JSON file holding one record in the persisted record
// shape, with imageUri pointing at the captured image. Relative image
// paths resolve against the hand-off file's directory. Successfully
// imported hand-offs are removed; failed ones stay in place for a retry.
package inbox
