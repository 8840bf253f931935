package build

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/kforge/kforge/src/kforge/config"
)

var (
	errorLineRe = regexp.MustCompile(`error:`)
	diagLineRe  = regexp.MustCompile(`error:|warning:`)

	// Benign compiler chatter suppressed at every verbosity.
	clangNoise = []*regexp.Regexp{
		regexp.MustCompile(`argument unused during compilation`),
	}

	// Kconfig resolution chatter that would pollute the diagnostic
	// views although it carries no actionable signal.
	kconfigNoise = []*regexp.Regexp{
		regexp.MustCompile(`unmet direct dependencies`),
		regexp.MustCompile(`warning: override: reassigning`),
	}

	// External device-tree compiler warnings, only relevant when the
	// DT-overlay quirk arms an out-of-tree dtc.
	dtcNoise = []*regexp.Regexp{
		regexp.MustCompile(`Warning \(unit_address_vs_reg\)`),
		regexp.MustCompile(`Warning \(unique_unit_address\)`),
		regexp.MustCompile(`Warning \(avoid_unnecessary_addr_size\)`),
		regexp.MustCompile(`Warning \(graph_child_address\)`),
	}
)

// Filter decides which builder output lines reach the terminal. It is
// compiled once per verbosity from a positive match pattern and a list
// of exclusion patterns; a nil match pattern admits every line.
type Filter struct {
	match   *regexp.Regexp
	exclude []*regexp.Regexp
	discard bool
}

// NewFilter compiles the filter for a verbosity level. When dtcQuirk
// is set the device-tree compiler noise patterns join the exclusion
// list of every level that emits output.
func NewFilter(verbosity config.Verbosity, dtcQuirk bool) *Filter {
	f := &Filter{}
	switch verbosity {
	case config.VerbosityErrors:
		f.match = errorLineRe
		f.exclude = append(f.exclude, kconfigNoise...)
	case config.VerbosityWarnings:
		f.match = diagLineRe
		f.exclude = append(f.exclude, kconfigNoise...)
	case config.VerbositySilent:
		f.discard = true
	default:
		f.exclude = append(f.exclude, clangNoise...)
	}
	if dtcQuirk && !f.discard {
		f.exclude = append(f.exclude, dtcNoise...)
	}
	return f
}

// Allow reports whether a single output line passes the filter.
func (f *Filter) Allow(line string) bool {
	if f.discard {
		return false
	}
	if f.match != nil && !f.match.MatchString(line) {
		return false
	}
	for _, re := range f.exclude {
		if re.MatchString(line) {
			return false
		}
	}
	return true
}

// Wrap returns a line-buffered writer that forwards accepted lines to
// dst. Close flushes a trailing unterminated line.
func (f *Filter) Wrap(dst io.Writer) io.WriteCloser {
	return &filterWriter{filter: f, dst: dst}
}

type filterWriter struct {
	filter *Filter
	dst    io.Writer
	buf    bytes.Buffer
}

// Write buffers partial lines so filtering always sees complete ones,
// regardless of how the builder chunks its output.
func (w *filterWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	for {
		data := w.buf.Bytes()
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			return len(p), nil
		}
		line := string(data[:i+1])
		w.buf.Next(i + 1)
		if w.filter.Allow(strings.TrimRight(line, "\r\n")) {
			if _, err := io.WriteString(w.dst, line); err != nil {
				return len(p), err
			}
		}
	}
}

func (w *filterWriter) Close() error {
	if w.buf.Len() == 0 {
		return nil
	}
	line := w.buf.String()
	w.buf.Reset()
	if !w.filter.Allow(line) {
		return nil
	}
	_, err := io.WriteString(w.dst, line+"\n")
	return err
}
