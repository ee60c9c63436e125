package main

import (
	"errors"
	"os"

	"github.com/qntx/zigbuild/internal/build"
	"github.com/qntx/zigbuild/internal/cli"
	"github.com/qntx/zigbuild/internal/ui"
)

func main() {
	err := cli.Execute()
	if err == nil {
		return
	}

	var exitErr *build.ExitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.Code)
	}
	ui.Error("%v", err)
	os.Exit(1)
}
