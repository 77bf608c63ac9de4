// Package catalog loads AniList catalog snapshots and builds the alias index
// the title matcher scores against.
//
// Each catalog entry contributes its native, romaji and english titles as
// aliases. Aliases are deduplicated by their normalized form, their
// significant tokens are unioned into the entity token set, and a global
// usage table records how many entities share each token so the matcher can
// trust tokens unique to a single title.
package catalog
