package esbuild

import (
	"sort"

	esbuild "github.com/evanw/esbuild/pkg/api"
)

// A stage is a plugin with ordering constraints.  esbuild runs resolve callbacks in plugin order, so a stage that
// must see requests first is listed in the after list of the others.  A stage without a setup is omitted.
type stage struct {
	name  string
	after []string
	setup func(esbuild.PluginBuild)
}

// order returns the plugins in the order the stages were provided, adjusted so that each stage follows the stages
// named in its after list.  Cyclic constraints do not produce an error, the order is simply best effort.
func order(stages ...stage) []esbuild.Plugin {
	byName := make(map[string][]int, len(stages))
	for i, st := range stages {
		byName[st.name] = append(byName[st.name], i)
	}
	plugins := make([]esbuild.Plugin, 0, len(stages))
	placed := make([]bool, len(stages))
	var place func(int)
	place = func(i int) {
		if placed[i] {
			return
		}
		placed[i] = true
		items := make([]int, 0, len(stages[i].after))
		for _, name := range stages[i].after {
			items = append(items, byName[name]...)
		}
		sort.Ints(items) // keep the given order where possible
		for _, j := range items {
			place(j)
		}
		if stages[i].setup != nil {
			plugins = append(plugins, esbuild.Plugin{Name: `pack-` + stages[i].name, Setup: stages[i].setup})
		}
	}
	for i := range stages {
		place(i)
	}
	return plugins
}
