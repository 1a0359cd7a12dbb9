package archive

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
)

// Archiver bundles a directory of render outputs into a single file.
type Archiver interface {
	// Archive packs dir into archivePath and returns nil only when the
	// archive was fully written.
	Archive(ctx context.Context, dir, archivePath string) error
}

// ZipArchiver shells out to the zip utility, matching how production
// hosts package render outputs.
type ZipArchiver struct {
	command string
}

// NewZipArchiver creates an archiver using the given zip command, or
// "zip" when empty.
func NewZipArchiver(command string) *ZipArchiver {
	if command == "" {
		command = "zip"
	}
	return &ZipArchiver{command: command}
}

func (a *ZipArchiver) Archive(ctx context.Context, dir, archivePath string) error {
	if _, err := exec.LookPath(a.command); err != nil {
		return fmt.Errorf("%s not found in PATH: %w", a.command, err)
	}

	abs, err := filepath.Abs(archivePath)
	if err != nil {
		return fmt.Errorf("failed to resolve archive path: %w", err)
	}

	// Run inside dir so archive entries are relative file names.
	cmd := exec.CommandContext(ctx, a.command, "-r", abs, ".")
	cmd.Dir = dir

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w\nOutput: %s", a.command, err, string(out))
	}

	return nil
}
