// Package notify delivers result messages and report files.
package notify

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/yetanothergithubaccount/DSObest/internal/logging"
)

// Dispatcher sends a text message or a file to the observer.
type Dispatcher interface {
	Text(ctx context.Context, msg string) error
	File(ctx context.Context, path string) error
}

// LogDispatcher writes messages to the log instead of sending them.
type LogDispatcher struct {
	log *logging.Logger
}

// NewLogDispatcher creates a dispatcher that logs at info level.
func NewLogDispatcher(log *logging.Logger) *LogDispatcher {
	if log == nil {
		log = logging.Discard()
	}
	return &LogDispatcher{log: log}
}

// Text implements Dispatcher.
func (d *LogDispatcher) Text(ctx context.Context, msg string) error {
	d.log.Info("message:\n%s", msg)
	return nil
}

// File implements Dispatcher.
func (d *LogDispatcher) File(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	d.log.Info("file: %s (%d bytes)", filepath.Base(path), info.Size())
	return nil
}

// Multi fans a message out to several dispatchers. Every dispatcher is
// tried; the errors are joined.
type Multi []Dispatcher

// Text implements Dispatcher.
func (m Multi) Text(ctx context.Context, msg string) error {
	var errs []error
	for _, d := range m {
		if err := d.Text(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// File implements Dispatcher.
func (m Multi) File(ctx context.Context, path string) error {
	var errs []error
	for _, d := range m {
		if err := d.File(ctx, path); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
