// Package infer holds the execution core of the inference pipeline: the Item
// that travels between stages, its RGB pixel buffer, and the Skill envelope
// that gives every stage the same prepare/process lifecycle and the same
// {ready, extra} snapshot format.
//
// Highlights:
// - NewItem/Item.MarshalJSON/Item.UnmarshalJSON: the work item and its record
// - NewSkill: wrap a Stage; Prepare, then Process items
// - Skill.State/RestoreFromState: checkpoint any skill without knowing its type
//
// A failing transform is never returned from Process; it is recorded on the
// item as a failed Outcome so a driver can carry on with the next item.
package infer
