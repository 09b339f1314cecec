// Package deps reports whether the external tools dubber shells out to are
// installed.
package deps
