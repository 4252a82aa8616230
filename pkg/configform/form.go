// Package configform is the editing session behind the "Configure Tooltips"
// menu: it works on a copy of the stored configuration and only persists it
// on Submit.
package configform

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/tokentip/pkg/attribute"
	"github.com/oakwood-commons/tokentip/pkg/host"
	"github.com/oakwood-commons/tokentip/pkg/layout"
	"github.com/oakwood-commons/tokentip/pkg/settings"
)

// NoFileMessage is shown when an import is confirmed without a file.
const NoFileMessage = "You did not upload a data file!"

// Title is the form's window title.
const Title = "Configure Tooltips"

// Form edits a working copy of the tooltip configuration.
type Form struct {
	reg      *settings.Registry
	notifier host.Notifier
	log      logr.Logger
	working  layout.Config
}

// Open loads the stored configuration into a new form.
func Open(ctx context.Context, reg *settings.Registry, notifier host.Notifier, log logr.Logger) (*Form, error) {
	cfg, err := layout.Load(ctx, reg)
	if err != nil {
		return nil, fmt.Errorf("open tooltip config form: %w", err)
	}
	return &Form{reg: reg, notifier: notifier, log: log, working: cfg.Clone()}, nil
}

// Config returns a copy of the working configuration.
func (f *Form) Config() layout.Config {
	return f.working.Clone()
}

// AddRow appends a default row.
func (f *Form) AddRow() {
	f.working.Attributes = append(f.working.Attributes, attribute.NewRow())
}

// RemoveRow deletes row i.
func (f *Form) RemoveRow(i int) error {
	if err := f.checkIndex(i); err != nil {
		return err
	}
	f.working.Attributes = append(f.working.Attributes[:i], f.working.Attributes[i+1:]...)
	return nil
}

// SetPath is the result of the path editor dialog for row i. A dismissed
// dialog passes nil and keeps the current path.
func (f *Form) SetPath(i int, text *string) error {
	if err := f.checkIndex(i); err != nil {
		return err
	}
	if text != nil {
		f.working.Attributes[i].Path = *text
	}
	return nil
}

// Change applies an edit of the form fields to the working copy.
func (f *Form) Change(update layout.Config) error {
	if update.Attributes == nil {
		update.Attributes = []attribute.Row{}
	}
	if err := update.Validate(); err != nil {
		return err
	}
	f.working = update.Clone()
	return nil
}

// Submit applies update and persists the result.
func (f *Form) Submit(ctx context.Context, update layout.Config) error {
	if err := f.Change(update); err != nil {
		return err
	}
	if err := layout.Save(ctx, f.reg, f.working); err != nil {
		return fmt.Errorf("save tooltip config: %w", err)
	}
	f.log.Info("tooltip configuration saved", "rows", len(f.working.Attributes), "columns", f.working.Columns)
	return nil
}

// Export returns the suggested file name and the working copy as indented JSON.
func (f *Form) Export() (string, []byte, error) {
	data, err := layout.Export(f.working)
	if err != nil {
		return "", nil, err
	}
	return layout.ExportFilename, data, nil
}

// Import reads the first file and applies it on top of the working copy.
func (f *Form) Import(files []string) error {
	if len(files) == 0 {
		if f.notifier != nil {
			f.notifier.Error(NoFileMessage)
		}
		return layout.ErrNoFile
	}
	next, err := layout.ImportFile(f.working, files[0])
	if err != nil {
		return err
	}
	f.working = next
	return nil
}

// ImportData applies an uploaded document on top of the working copy.
func (f *Form) ImportData(data []byte) error {
	next, err := layout.Import(f.working, data)
	if err != nil {
		return err
	}
	f.working = next
	return nil
}

func (f *Form) checkIndex(i int) error {
	if i < 0 || i >= len(f.working.Attributes) {
		return fmt.Errorf("row %d out of range [0, %d)", i, len(f.working.Attributes))
	}
	return nil
}
