// Package gui is the single-window desktop front-end: pick a folder, run the
// extraction into it, open it and quit.
package gui

import (
	"context"
	"fmt"
	"net/url"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/a3tai/fds-extractor/internal/pdf"
)

const (
	Title            = "FDS Extractor"
	noFolderSelected = "No folder selected"
	selectedPrefix   = "Selected folder:\n"
)

// RunFunc processes a folder and returns the files it wrote. Progress is
// reported on progress, which the caller closes once RunFunc returns.
type RunFunc func(ctx context.Context, folder string, progress chan<- pdf.Progress) ([]string, error)

// Window holds the widgets of the front-end
type Window struct {
	app    fyne.App
	win    fyne.Window
	run    RunFunc
	folder string

	label     *widget.Label
	bar       *widget.ProgressBar
	folderBtn *widget.Button
	runBtn    *widget.Button

	// done is called after a run, on the main thread
	done func(folder string, err error)
}

// New builds the window; run is called from a goroutine when Run is pressed
func New(a fyne.App, run RunFunc) *Window {
	w := &Window{app: a, run: run}
	w.win = a.NewWindow(Title)
	w.done = w.finish

	w.label = widget.NewLabelWithStyle(noFolderSelected, fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	w.folderBtn = widget.NewButtonWithIcon("Select a folder of safety data sheets", theme.FolderOpenIcon(), w.onSelect)
	w.runBtn = widget.NewButtonWithIcon("Run", theme.ConfirmIcon(), w.onRun)
	w.runBtn.Disable()
	w.bar = widget.NewProgressBar()
	w.bar.Hide()

	w.win.SetContent(container.NewVBox(
		w.label,
		w.bar,
		container.NewGridWithColumns(2, w.folderBtn, w.runBtn),
	))
	w.win.Resize(fyne.NewSize(600, 150))
	return w
}

// Window returns the underlying fyne window
func (w *Window) Window() fyne.Window {
	return w.win
}

// Folder returns the selected folder, empty when none
func (w *Window) Folder() string {
	return w.folder
}

// SetFolder records the selection; Run is enabled only with a folder
func (w *Window) SetFolder(folder string) {
	w.folder = folder
	if folder == "" {
		w.label.SetText(noFolderSelected)
		w.runBtn.Disable()
		return
	}
	w.label.SetText(selectedPrefix + folder)
	w.runBtn.Enable()
}

// ShowAndRun shows the window and blocks until the app quits
func (w *Window) ShowAndRun() {
	w.win.ShowAndRun()
}

func (w *Window) onSelect() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			dialog.ShowError(err, w.win)
			return
		}
		if uri == nil {
			w.SetFolder("")
			return
		}
		w.SetFolder(uri.Path())
	}, w.win)
}

func (w *Window) onRun() {
	folder := w.folder
	if folder == "" {
		return
	}

	w.runBtn.Disable()
	w.folderBtn.Disable()
	w.label.SetText("Processing " + folder + " ...")
	w.bar.SetValue(0)
	w.bar.Show()

	progress := make(chan pdf.Progress, 16)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for p := range progress {
			fyne.Do(func() { w.showProgress(p) })
		}
	}()

	go func() {
		_, err := w.run(context.Background(), folder, progress)
		close(progress)
		<-drained
		fyne.Do(func() { w.done(folder, err) })
	}()
}

// showProgress moves the bar to p and names the last processed document
func (w *Window) showProgress(p pdf.Progress) {
	if p.Total > 0 {
		w.bar.Max = float64(p.Total)
	}
	w.bar.SetValue(float64(p.Done))
	w.label.SetText(fmt.Sprintf("Processing %d/%d: %s", p.Done, p.Total, p.Path))
}

// finish opens the folder in the file browser and closes the window, or
// shows the error and lets the user retry
func (w *Window) finish(folder string, err error) {
	w.bar.Hide()
	if err != nil {
		w.folderBtn.Enable()
		w.SetFolder(folder)
		dialog.ShowError(err, w.win)
		return
	}

	if err := w.app.OpenURL(&url.URL{Scheme: "file", Path: folder}); err != nil {
		fyne.LogError("failed to open folder", err)
	}
	w.win.Close()
}
