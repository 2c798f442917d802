// Package repos understands vcstool-style ".repos" manifests and the URLs
// they are published under.
//
// A manifest lists named repositories, each pinned to a version:
//
//	repositories:
//	  core/autoware_msgs:
//	    type: git
//	    url: https://github.com/autowarefoundation/autoware_msgs.git
//	    version: 1.0.0
//
// [Parse] turns manifest text into an ordered slice of [Entry] values,
// rejecting anything that deviates from this shape with a [*ParseError].
//
// A [Deriver] maps an entry's (url, version) pair to the raw-content URL of
// that repository's own dependency manifest at that version:
//
//	d := repos.DefaultDeriver()
//	d.RawURL("https://github.com/org/dep.git", "v1.0")
//	// https://raw.githubusercontent.com/org/dep/v1.0/build_depends.repos
//
// Both are pure; fetching is left to package fetch and traversal to package
// crawl.
package repos
