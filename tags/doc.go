// Package tags indexes a fixed catalog of cache tags.
//
// A tag named "group:leaf" belongs to the group "group"; the group is
// derived from the text before the first colon and is never declared on its
// own. Tags without a colon, or whose only colon is the first character,
// are standalone.
//
// A Store is immutable after New and safe for concurrent use. Catalogs can
// be built in code or read with LoadFile and LoadSQL.
package tags
