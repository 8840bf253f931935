package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/kforge/kforge/src/kforge/build"
)

// Result is the final outcome of one pipeline run.
type Result struct {
	State         build.State
	ImagePath     string
	KernelRelease string
	Revision      string
	Duration      time.Duration
	ExitCode      int
	ArchivePath   string
	Checksum      string
}

// Success reports whether an artifact was produced.
func (r *Result) Success() bool {
	return r.ImagePath != ""
}

// Render writes the build verdict to w. Condensed mode emits a single
// line so scripted callers get exactly one result record.
func Render(w io.Writer, displayVersion string, condensed bool, res *Result) {
	elapsed := formatDuration(res.Duration)

	if condensed {
		if res.Success() {
			fmt.Fprintf(w, "built %s in %s\n", res.KernelRelease, elapsed)
		} else {
			fmt.Fprintf(w, "no kernel image produced after %s\n", elapsed)
		}
		return
	}

	rule := "------------------------------------------------------------"
	fmt.Fprintln(w, rule)
	if res.Success() {
		if displayVersion != "" {
			fmt.Fprintf(w, " Version        : %s\n", displayVersion)
		}
		fmt.Fprintf(w, " Kernel release : %s\n", res.KernelRelease)
		fmt.Fprintf(w, " Image          : %s\n", res.ImagePath)
		if res.Revision != "" {
			fmt.Fprintf(w, " Revision       : %s\n", res.Revision)
		}
		if res.ArchivePath != "" {
			fmt.Fprintf(w, " Archive        : %s\n", res.ArchivePath)
			fmt.Fprintf(w, " Checksum       : %s\n", res.Checksum)
		}
		fmt.Fprintf(w, " Elapsed        : %s\n", elapsed)
	} else {
		fmt.Fprintln(w, " Build failed: no kernel image produced")
		fmt.Fprintf(w, " Elapsed        : %s\n", elapsed)
	}
	fmt.Fprintln(w, rule)
}

// RingBell sends the terminal bell when f is an interactive terminal,
// so long builds announce themselves.
func RingBell(f *os.File) {
	if term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(f, "\a")
	}
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
