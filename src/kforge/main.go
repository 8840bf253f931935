// kforge builds Android kernel trees: it resolves cross-toolchains,
// configures the tree, compiles it and reports on the artifacts.
package main

import (
	"github.com/kforge/kforge/src/kforge/core"
)

func main() {
	core.Execute()
}
