package main

import (
	"os"

	fyneapp "fyne.io/fyne/v2/app"

	"github.com/a3tai/fds-extractor/internal/app"
	"github.com/a3tai/fds-extractor/internal/config"
	"github.com/a3tai/fds-extractor/internal/gui"
)

const fyneAppID = "com.a3tai.fds-extractor"

func main() {
	cfg := config.DefaultConfig(config.CommandExtract)
	level, _ := cfg.SlogLevel()
	logger := app.NewLogger(os.Stderr, level)

	runner := gui.Runner{MappingDirs: gui.MappingDirs(), Logger: logger}

	a := fyneapp.NewWithID(fyneAppID)
	w := gui.New(a, runner.Run)
	w.ShowAndRun()
}
