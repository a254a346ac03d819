package main

import (
	"os"

	"github.com/mna/mainer"

	"github.com/kestrel-lang/kestrel/internal/runcmd"
)

var (
	version   = "{v}"
	buildDate = "{d}"
)

func main() {
	c := runcmd.Cmd{BuildVersion: version, BuildDate: buildDate}
	os.Exit(c.Main(os.Args, mainer.CurrentStdio()))
}
