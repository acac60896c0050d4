// Package logs reads the cuetrack log file for `cuetrack logs`.
//
// Last returns the trailing lines of a file with bounded memory and the offset
// to resume from. Follow polls from that offset and hands each new line to a
// callback until the context ends, restarting from the top when the file is
// truncated or replaced.
package logs
