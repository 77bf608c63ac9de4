// Package matching links Reddit post titles to catalog entities.
//
// Every alias of every entity is scored with textutil.Similarity against the
// normalized post title. A score only counts when the title shares enough
// significant tokens with the entity (or one token no other entity uses), or
// when the score alone clears the high override. The best surviving score
// wins, ties keep the entity and alias seen first, and the post matches only
// when that score reaches the fuzzy threshold.
package matching
