package invoicepdf

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/goliatone/go-invoice/invoice"
)

// Engine converts a rendered document file into PDF bytes. Conversion is an
// external process boundary: possibly slow, fallible, never retried here.
type Engine interface {
	Convert(ctx context.Context, srcPath string) ([]byte, error)
}

// EngineFunc adapts a function to an Engine.
type EngineFunc func(ctx context.Context, srcPath string) ([]byte, error)

func (f EngineFunc) Convert(ctx context.Context, srcPath string) ([]byte, error) {
	if f == nil {
		return nil, errors.New("pdf engine func is nil")
	}
	return f(ctx, srcPath)
}

// CommandEngine invokes an external converter binary, reading the source
// document file and emitting PDF on stdout.
type CommandEngine struct {
	Command string
	Args    []string
	Env     []string
	Timeout time.Duration
}

// Convert executes the converter with the source path and "-" for stdout.
func (e CommandEngine) Convert(ctx context.Context, srcPath string) ([]byte, error) {
	cmdPath := strings.TrimSpace(e.Command)
	if cmdPath == "" {
		cmdPath = "wkhtmltopdf"
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cmdCtx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	args := append([]string{}, e.Args...)
	args = append(args, srcPath, "-")
	cmd := exec.CommandContext(cmdCtx, cmdPath, args...)
	if len(e.Env) > 0 {
		cmd.Env = append(os.Environ(), e.Env...)
	}

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		message := strings.TrimSpace(stderr.String())
		if message == "" {
			message = "pdf conversion failed"
		}
		return nil, invoice.NewError(invoice.KindConversion, message, err)
	}
	return stdout.Bytes(), nil
}
