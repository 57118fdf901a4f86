package executor

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
)

// Clipboard receives copied locations
type Clipboard interface {
	Copy(text string) error
}

// osClipboard writes through the platform copy utility
type osClipboard struct{}

func (osClipboard) Copy(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard unavailable: no copy utility installed")
	}
	return clipboard.WriteAll(text)
}

// Executor opens annotation locations in an editor and copies them
type Executor struct {
	editor    string
	clipboard Clipboard
}

// NewExecutor creates an executor for the given editor command line. An
// empty editor falls back to the system opener.
func NewExecutor(editor string) *Executor {
	return &Executor{
		editor:    strings.TrimSpace(editor),
		clipboard: osClipboard{},
	}
}

// WithClipboard replaces the system clipboard
func (e *Executor) WithClipboard(c Clipboard) *Executor {
	e.clipboard = c
	return e
}

// Location formats a file and 1-based line as file:line
func Location(file string, line int) string {
	return file + ":" + strconv.Itoa(line)
}

// lineArgs returns the arguments that open file at line for a known editor
func lineArgs(editor, file string, line int) []string {
	name := strings.TrimSuffix(filepath.Base(editor), ".exe")
	switch name {
	case "vi", "vim", "nvim", "nano", "emacs", "emacsclient", "micro", "kak", "hx", "helix":
		return []string{"+" + strconv.Itoa(line), file}
	case "code", "code-insiders", "codium", "cursor", "zed":
		return []string{"-g", Location(file, line)}
	case "subl", "sublime_text":
		return []string{Location(file, line)}
	default:
		return []string{file}
	}
}

// EditorCommand builds the command that opens file at line
func (e *Executor) EditorCommand(file string, line int) *exec.Cmd {
	if e.editor != "" {
		fields := strings.Fields(e.editor)
		args := append(fields[1:], lineArgs(fields[0], file, line)...)
		return exec.Command(fields[0], args...)
	}

	// No editor configured: let the desktop pick one
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", file)
	case "windows":
		return exec.Command("cmd", "/c", "start", "", file)
	default:
		return exec.Command("xdg-open", file)
	}
}

// CopyLocation copies file:line to the clipboard
func (e *Executor) CopyLocation(file string, line int) error {
	return e.clipboard.Copy(Location(file, line))
}
