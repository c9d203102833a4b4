package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrEditorDisabled  = errors.New("file editor is not configured")
	ErrPathOutsideRoot = errors.New("path escapes the editor root")
)

// EditorService backs the admin file editor: list/read/write files under a
// configured root, plus an AI-assisted rewrite of a whole file.
type EditorService struct {
	root    string
	gateway Gateway
	model   string
}

func NewEditorService(root string, gw Gateway, model string) *EditorService {
	return &EditorService{root: root, gateway: gw, model: model}
}

func (s *EditorService) Enabled() bool {
	return s.root != ""
}

// resolve maps a client-supplied relative path onto the root, rejecting
// anything that would escape it.
func (s *EditorService) resolve(rel string) (string, error) {
	if !s.Enabled() {
		return "", ErrEditorDisabled
	}
	rel = filepath.Clean(rel)
	if rel == "." || filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrPathOutsideRoot
	}
	return filepath.Join(s.root, rel), nil
}

func (s *EditorService) ListFiles() ([]string, error) {
	if !s.Enabled() {
		return nil, ErrEditorDisabled
	}
	var files []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != s.root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list editor files: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

func (s *EditorService) ReadFile(rel string) (string, error) {
	path, err := s.resolve(rel)
	if err != nil {
		return "", err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", rel, err)
	}
	return string(content), nil
}

func (s *EditorService) WriteFile(rel, content string) error {
	path, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	return nil
}

// AIEdit asks the gateway to rewrite the whole file per the instruction and
// saves the result. Returns the updated content.
func (s *EditorService) AIEdit(ctx context.Context, rel, instruction string) (string, error) {
	current, err := s.ReadFile(rel)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf("File Path: %s\n\nCurrent File Content:\n---\n%s\n---\n\nUser's Instruction: %s",
		rel, current, instruction)
	updated, err := s.gateway.CompleteOnce(ctx, GenerateRequest{
		Prompt:            prompt,
		SystemInstruction: editorSystemInstruction,
		Options:           GenerationOptions{Model: s.model},
	})
	if err != nil {
		return "", fmt.Errorf("AI edit failed: %w", err)
	}
	updated = stripCodeFence(updated)

	if err := s.WriteFile(rel, updated); err != nil {
		return "", err
	}
	return updated, nil
}

// stripCodeFence unwraps a response the model wrapped in a markdown fence.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return text
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimRight(trimmed, "\n") + "\n"
}
