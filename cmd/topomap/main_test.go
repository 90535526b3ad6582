package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/topomap/internal/logger"
	"github.com/Faultbox/topomap/internal/pipeline"
	"github.com/Faultbox/topomap/pkg/meshgen"
	"github.com/Faultbox/topomap/pkg/render"
	"github.com/Faultbox/topomap/pkg/slicer"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWriteThumbnail(t *testing.T) {
	preview := slicer.Preview(meshgen.Cube(1), 0)

	tests := []struct {
		name   string
		file   string
		prefix []byte
	}{
		{"png", "slice.png", []byte("\x89PNG\r\n\x1a\n")},
		{"upper case png", "slice.PNG", []byte("\x89PNG\r\n\x1a\n")},
		{"svg", "slice.svg", []byte("<?xml")},
		{"no extension", "slice", []byte("<?xml")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := writeThumbnail(path, preview, render.ThumbnailSize); err != nil {
				t.Fatalf("writeThumbnail failed: %v", err)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("reading thumbnail: %v", err)
			}
			if !bytes.HasPrefix(data, tt.prefix) {
				t.Errorf("file starts with %q, want %q", data[:min(len(data), 8)], tt.prefix)
			}
		})
	}
}

func TestWriteThumbnail_TooSmall(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slice.png")
	if err := writeThumbnail(path, slicer.Preview(meshgen.Cube(1), 0), 4); err == nil {
		t.Error("expected error for a 4px thumbnail")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("failed thumbnail left a file behind")
	}
}

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := logger.Log
	logger.Log = zap.New(core)
	t.Cleanup(func() { logger.Log = prev })
	return logs
}

func TestReportMap(t *testing.T) {
	logs := observeLogs(t)

	reportMap("out.svg", &pipeline.Result{Levels: 20, Lines: 57, Width: 800, Height: 600})

	if logs.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", logs.Len())
	}
	e := logs.All()[0]
	if e.Level != zapcore.InfoLevel || e.Message != "map written" {
		t.Errorf("unexpected entry %v %q", e.Level, e.Message)
	}
	fields := e.ContextMap()
	if fields["path"] != "out.svg" {
		t.Errorf("path = %v", fields["path"])
	}
	if fields["lines"] != int64(57) || fields["levels"] != int64(20) {
		t.Errorf("lines/levels = %v/%v", fields["lines"], fields["levels"])
	}
	if fields["width"] != int64(800) || fields["height"] != int64(600) {
		t.Errorf("size = %vx%v", fields["width"], fields["height"])
	}
}

func TestReportMap_Warnings(t *testing.T) {
	logs := observeLogs(t)

	reportMap("out.svg", &pipeline.Result{Levels: 20, Lines: 10, Failed: 2, Dropped: []string{"Lamp", "Camera"}})

	if n := logs.FilterLevelExact(zapcore.WarnLevel).Len(); n != 2 {
		t.Errorf("expected 2 warnings, got %d", n)
	}
	if n := logs.FilterMessage("some levels were skipped").FilterField(zap.Int("failed", 2)).Len(); n != 1 {
		t.Error("missing skipped-levels warning")
	}
	if n := logs.FilterMessage("ignored objects").Len(); n != 1 {
		t.Error("missing ignored-objects warning")
	}
	if n := logs.FilterMessage("map written").Len(); n != 1 {
		t.Error("missing summary entry")
	}
}
