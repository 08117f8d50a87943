// Package ui provides the terminal user interface for the namer TUI.
package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/namerapp/namer/internal/domain"
	"github.com/namerapp/namer/internal/naming"
)

// fileRow is one directory entry staged in the table.
type fileRow struct {
	originalName string
	baseName     string
	extension    string
	receiverName string
	size         int64
}

// App is the main TUI application.
type App struct {
	app    *tview.Application
	dir    string
	prefix domain.PrefixConfig
	rows   []*fileRow

	mainFlex  *tview.Flex
	header    *tview.TextView
	footer    *tview.TextView
	statusBar *tview.TextView
	table     *tview.Table
	form      *tview.Form
}

// NewApp creates a new TUI application rooted at dir.
func NewApp(dir string) (*App, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve dir: %w", err)
	}

	now := time.Now()
	a := &App{
		app:    tview.NewApplication(),
		dir:    abs,
		prefix: domain.DefaultPrefixConfig(now),
	}

	if err := a.loadDir(); err != nil {
		return nil, err
	}

	a.setupUI()
	return a, nil
}

// loadDir reads the directory and stages every regular file.
func (a *App) loadDir() error {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return fmt.Errorf("read dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	sizes := make(map[string]int64, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		names = append(names, e.Name())
		sizes[e.Name()] = info.Size()
	}
	sort.Strings(names)

	a.rows = a.rows[:0]
	for _, name := range names {
		base, ext := naming.SplitName(name)
		a.rows = append(a.rows, &fileRow{
			originalName: name,
			baseName:     base,
			extension:    ext,
			size:         sizes[name],
		})
	}
	return nil
}

func (a *App) setupUI() {
	a.header = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	a.header.SetBackgroundColor(tcell.ColorDarkBlue)

	a.footer = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText("[yellow]Tab[white]:Switch focus [yellow]Enter[white]:Edit row [yellow]d[white]:Toggle day [yellow]s[white]:Toggle sender [yellow]r[white]:Apply renames [yellow]q[white]:Quit")
	a.footer.SetBackgroundColor(tcell.ColorDarkBlue)

	a.statusBar = tview.NewTextView().SetDynamicColors(true)
	a.statusBar.SetBackgroundColor(tcell.ColorDarkGreen)

	a.table = tview.NewTable().
		SetSelectable(true, false).
		SetFixed(1, 0)
	a.table.SetBorder(true).SetTitle(" Files ")
	a.table.SetSelectedFunc(func(row, col int) {
		if row >= 1 && row <= len(a.rows) {
			a.editRow(a.rows[row-1])
		}
	})

	a.form = tview.NewForm()
	a.form.SetBorder(true).SetTitle(" Prefix ")
	a.buildPrefixForm()

	a.mainFlex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.header, 1, 0, false).
		AddItem(a.form, 9, 0, false).
		AddItem(a.table, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false).
		AddItem(a.footer, 1, 0, false)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if a.app.GetFocus() != a.table {
			return event
		}
		switch event.Rune() {
		case 'q':
			a.app.Stop()
			return nil
		case 'd':
			a.prefix.IncludeDay = !a.prefix.IncludeDay
			a.refresh()
			return nil
		case 's':
			a.prefix.IncludeSender = !a.prefix.IncludeSender
			a.refresh()
			return nil
		case 'r':
			a.applyRenames()
			return nil
		}
		if event.Key() == tcell.KeyTab {
			a.app.SetFocus(a.form)
			return nil
		}
		return event
	})

	a.form.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape {
			a.app.SetFocus(a.table)
			return nil
		}
		return event
	})

	a.refresh()
}

func (a *App) buildPrefixForm() {
	a.form.Clear(true)
	a.form.
		AddInputField("Year", strconv.Itoa(a.prefix.Year), 6, tview.InputFieldInteger, func(text string) {
			if v, err := strconv.Atoi(text); err == nil {
				a.prefix.Year = v
				a.refresh()
			}
		}).
		AddInputField("Month", strconv.Itoa(a.prefix.Month), 4, tview.InputFieldInteger, func(text string) {
			if v, err := strconv.Atoi(text); err == nil {
				a.prefix.Month = v
				a.refresh()
			}
		}).
		AddInputField("Day", strconv.Itoa(a.prefix.Day), 4, tview.InputFieldInteger, func(text string) {
			if v, err := strconv.Atoi(text); err == nil {
				a.prefix.Day = v
				a.refresh()
			}
		}).
		AddInputField("Sender", a.prefix.SenderName, 24, nil, func(text string) {
			a.prefix.SenderName = text
			a.refresh()
		}).
		AddInputField("Receiver (all rows)", "", 24, nil, func(text string) {
			for _, r := range a.rows {
				r.receiverName = text
			}
			a.refresh()
		})
}

// refresh recomputes every preview name and redraws the table.
func (a *App) refresh() {
	a.header.SetText(fmt.Sprintf("[::b]namer[-::-]  %s  prefix: [yellow]%s", a.dir, naming.Prefix(a.prefix, "")))

	a.table.Clear()
	headers := []string{"Original", "New base", "Ext", "Receiver", "Size", "Final name"}
	for c, h := range headers {
		a.table.SetCell(0, c, tview.NewTableCell("[::b]"+h).
			SetSelectable(false).
			SetExpansion(1))
	}

	resolver := naming.NewCollisionResolver()
	for i, r := range a.rows {
		entry := &domain.FileEntry{
			NewBaseName:  r.baseName,
			Extension:    r.extension,
			ReceiverName: r.receiverName,
		}
		final := resolver.Resolve(naming.FinalName(a.prefix, entry))

		a.table.SetCell(i+1, 0, tview.NewTableCell(r.originalName))
		a.table.SetCell(i+1, 1, tview.NewTableCell(r.baseName))
		a.table.SetCell(i+1, 2, tview.NewTableCell(r.extension))
		a.table.SetCell(i+1, 3, tview.NewTableCell(r.receiverName))
		a.table.SetCell(i+1, 4, tview.NewTableCell(formatSize(r.size)))
		a.table.SetCell(i+1, 5, tview.NewTableCell("[green]"+final))
	}

	a.statusBar.SetText(fmt.Sprintf(" %d file(s) staged", len(a.rows)))
}

// editRow opens a modal form for one row's editable fragments.
func (a *App) editRow(r *fileRow) {
	form := tview.NewForm().
		AddInputField("New base name", r.baseName, 40, nil, nil).
		AddInputField("Receiver", r.receiverName, 40, nil, nil)
	form.SetBorder(true).SetTitle(" " + r.originalName + " ")

	form.AddButton("Save", func() {
		base := form.GetFormItem(0).(*tview.InputField).GetText()
		if strings.TrimSpace(base) != "" {
			r.baseName = base
		}
		r.receiverName = form.GetFormItem(1).(*tview.InputField).GetText()
		a.closeModal()
	})
	form.AddButton("Cancel", func() {
		a.closeModal()
	})

	modal := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(form, 11, 0, true).
			AddItem(nil, 0, 1, false), 60, 0, true).
		AddItem(nil, 0, 1, false)

	a.app.SetRoot(modal, true).SetFocus(form)
}

func (a *App) closeModal() {
	a.refresh()
	a.app.SetRoot(a.mainFlex, true).SetFocus(a.table)
}

// applyRenames renames every file on disk to its previewed final name.
func (a *App) applyRenames() {
	resolver := naming.NewCollisionResolver()
	renamed := 0
	for _, r := range a.rows {
		entry := &domain.FileEntry{
			NewBaseName:  r.baseName,
			Extension:    r.extension,
			ReceiverName: r.receiverName,
		}
		final := resolver.Resolve(naming.FinalName(a.prefix, entry))
		if final == r.originalName {
			continue
		}
		src := filepath.Join(a.dir, r.originalName)
		dst := filepath.Join(a.dir, final)
		if err := os.Rename(src, dst); err != nil {
			a.statusBar.SetText(fmt.Sprintf(" [red]rename %s failed: %v", r.originalName, err))
			return
		}
		renamed++
	}

	if err := a.loadDir(); err != nil {
		a.statusBar.SetText(fmt.Sprintf(" [red]reload failed: %v", err))
		return
	}
	a.refresh()
	a.statusBar.SetText(fmt.Sprintf(" [green]renamed %d file(s)", renamed))
}

func formatSize(n int64) string {
	switch {
	case n < 1<<10:
		return fmt.Sprintf("%d B", n)
	case n < 1<<20:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	}
}

// Run starts the application event loop.
func (a *App) Run() error {
	return a.app.SetRoot(a.mainFlex, true).SetFocus(a.table).Run()
}
