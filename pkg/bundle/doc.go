// Package bundle loads the script artifact that converts Markdown into an
// mdast tree.
//
// The default bundle is compiled into the binary (assets/parsemd.js), so a
// release has no runtime file dependency. A bundle on disk can replace it:
//
//	src := bundle.File("/opt/mdast/parsemd.js")
//	b, err := src.Load()
//	if err != nil {
//	    var le *bundle.LoadError // le.Reason is missing, permission or unreadable
//	}
//
// Every bundle carries the sha256 digest of its source. Together with the
// input text it fully determines a parse result.
package bundle
