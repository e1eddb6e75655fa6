package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp3")
	dst := filepath.Join(dir, "dst.mp3")
	if err := os.WriteFile(src, []byte("audio bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "audio bytes" {
		t.Fatalf("content mismatch: %q", got)
	}
	if err := CopyFileVerified(filepath.Join(dir, "missing"), dst); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestMoveFileRenames(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "final.mp3")
	dst := filepath.Join(dir, "out", "meditation_01_renshen.mp3")
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, []byte("track"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatal("source should be gone after move")
	}
	if data, err := os.ReadFile(dst); err != nil || string(data) != "track" {
		t.Fatalf("unexpected destination: %q %v", data, err)
	}
}

func TestMoveFileFallsBackToCopy(t *testing.T) {
	orig := rename
	calls := 0
	rename = func(oldpath, newpath string) error {
		calls++
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: errCrossDevice}
	}
	t.Cleanup(func() { rename = orig })

	dir := t.TempDir()
	src := filepath.Join(dir, "final.mp3")
	dst := filepath.Join(dir, "meditation_02_huangqi.mp3")
	if err := os.WriteFile(src, []byte("track"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one rename attempt, got %d", calls)
	}
	if data, err := os.ReadFile(dst); err != nil || string(data) != "track" {
		t.Fatalf("unexpected destination: %q %v", data, err)
	}
	if _, err := os.Stat(dst + ".part"); !os.IsNotExist(err) {
		t.Fatal("part file should not remain")
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatal("source should be removed after copy")
	}
}

func TestMoveFileReportsOtherErrors(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.mp3")
	if err := MoveFile(filepath.Join(dir, "missing.mp3"), dst); err == nil {
		t.Fatal("expected error for missing source")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatal("destination must not exist after failed move")
	}
}
