// Package textutil turns source video paths into safe output file names.
package textutil
