package toolchain

import "sort"

// archInfo describes how a target architecture maps onto the kernel
// build system.
type archInfo struct {
	MakeArch    string // ARCH= value for make
	ClangTriple string // CLANG_TRIPLE= value for Clang builds
}

var archRegistry = map[string]archInfo{
	"arm64":  {MakeArch: "arm64", ClangTriple: "aarch64-linux-gnu-"},
	"arm":    {MakeArch: "arm", ClangTriple: "arm-linux-gnueabi-"},
	"x86_64": {MakeArch: "x86", ClangTriple: "x86_64-linux-gnu-"},
	"x86":    {MakeArch: "x86", ClangTriple: "i686-linux-gnu-"},
}

// MakeArch returns the ARCH value to pass to make for the given
// target architecture. Unknown architectures pass through unchanged.
func MakeArch(arch string) string {
	if info, ok := archRegistry[arch]; ok {
		return info.MakeArch
	}
	return arch
}

// ClangTriple returns the CLANG_TRIPLE value for the given target
// architecture, or empty when none is registered.
func ClangTriple(arch string) string {
	if info, ok := archRegistry[arch]; ok {
		return info.ClangTriple
	}
	return ""
}

// Arches returns the registered target architectures, sorted.
func Arches() []string {
	arches := make([]string, 0, len(archRegistry))
	for arch := range archRegistry {
		arches = append(arches, arch)
	}
	sort.Strings(arches)
	return arches
}
