package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/swdunlop/zugzug-go"
	"github.com/swdunlop/zugzug-go/zug/parser"
)

func init() {
	tasks = append(tasks, zugzug.Tasks{
		{Name: "inspect", Use: "Prints the resolved configuration as JSON", Fn: runInspect,
			Parser: parser.New(parser.String(&projectDir, "dir", "C", projectDirUse)), Settings: projectSettings},
	}...)
}

func runInspect(ctx context.Context) error {
	cfg, err := resolveConfig(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent(``, `  `)
	return enc.Encode(cfg)
}
