// internal/tagid/doc.go

/*
Package tagid provides a structured, type-safe representation for rig tags,
the string keys builders use to find each other's outputs.

The grammar is parsed once by a small recursive-descent parser into a Tag:

	tag      = [ asset "#" ] path [ "::" path ] [ ":::children" ] [ "@" plug ]
	path     = segment { "." segment }
	segment  = one or more characters other than . # @ :

A segment containing '*', '?' or '[' makes the tag a glob; a tag containing
"->" is a derived path. Downstream code switches on Tag.Kind instead of
re-scanning the string.
*/
package tagid
