package main

import (
	"github.com/picatz/icall/passes/icallcheck"
	"golang.org/x/tools/go/analysis/singlechecker"
)

func main() {
	singlechecker.Main(icallcheck.Analyzer)
}
