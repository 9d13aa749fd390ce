package render

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/sitegauge/sitegauge/internal/history"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestRender_EmptyTimelineIsGrayPlaceholder(t *testing.T) {
	r := New(60, "")
	data := r.Render(nil)

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a valid PNG: %v", err)
	}
	if img.Bounds().Dx() != 60 || img.Bounds().Dy() != Height {
		t.Fatalf("dimensions = %dx%d, want 60x%d",
			img.Bounds().Dx(), img.Bounds().Dy(), Height)
	}
	for _, pt := range [][2]int{{0, 0}, {30, 100}, {59, 199}} {
		cr, cg, cb, _ := img.At(pt[0], pt[1]).RGBA()
		if cr>>8 != 128 || cg>>8 != 128 || cb>>8 != 128 {
			t.Errorf("pixel (%d,%d) not gray", pt[0], pt[1])
		}
	}
}

func TestRender_ColumnsMapStates(t *testing.T) {
	r := New(10, "")
	timeline := []history.Record{
		{Timestamp: baseTime, Healthy: true},
		{Timestamp: baseTime.Add(time.Minute), Healthy: false},
	}
	img, err := png.Decode(bytes.NewReader(r.Render(timeline)))
	if err != nil {
		t.Fatalf("invalid PNG: %v", err)
	}

	// Most recent record is the rightmost column.
	cr, cg, cb, _ := img.At(9, Height-1).RGBA()
	if cr>>8 != 255 || cg>>8 != 0 || cb>>8 != 0 {
		t.Errorf("rightmost column not red: %d %d %d", cr>>8, cg>>8, cb>>8)
	}
	cr, cg, cb, _ = img.At(8, Height-1).RGBA()
	if cr>>8 != 0 || cg>>8 != 255 || cb>>8 != 0 {
		t.Errorf("second column not green: %d %d %d", cr>>8, cg>>8, cb>>8)
	}
	// Columns with no data stay gray.
	cr, cg, cb, _ = img.At(0, Height-1).RGBA()
	if cr>>8 != 128 || cg>>8 != 128 || cb>>8 != 128 {
		t.Errorf("empty column not gray: %d %d %d", cr>>8, cg>>8, cb>>8)
	}
}

func TestRender_DateChangeDrawsMarkerBand(t *testing.T) {
	r := New(200, "")
	timeline := []history.Record{
		{Timestamp: time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC), Healthy: true},
		{Timestamp: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Healthy: true},
	}
	img, err := png.Decode(bytes.NewReader(r.Render(timeline)))
	if err != nil {
		t.Fatalf("invalid PNG: %v", err)
	}

	// The midnight entry is the rightmost column; its top band is black
	// while below the band the column is still green.
	cr, cg, cb, _ := img.At(199, 0).RGBA()
	if cr>>8 != 0 || cg>>8 != 0 || cb>>8 != 0 {
		t.Errorf("marker band not black: %d %d %d", cr>>8, cg>>8, cb>>8)
	}
	_, cg, _, _ = img.At(199, Height-1).RGBA()
	if cg>>8 != 255 {
		t.Error("column below the marker band should stay green")
	}
}

func TestRender_TimelineLongerThanWidth(t *testing.T) {
	r := New(5, "")
	var timeline []history.Record
	for i := 0; i < 12; i++ {
		timeline = append(timeline, history.Record{
			Timestamp: baseTime.Add(time.Duration(i) * time.Minute),
			Healthy:   true,
		})
	}
	img, err := png.Decode(bytes.NewReader(r.Render(timeline)))
	if err != nil {
		t.Fatalf("invalid PNG: %v", err)
	}
	if img.Bounds().Dx() != 5 {
		t.Errorf("width = %d, want 5", img.Bounds().Dx())
	}
}

func TestRender_MissingFontFallsBack(t *testing.T) {
	r := New(10, "/nonexistent/font.otf")
	if data := r.Render(nil); len(data) == 0 {
		t.Error("render with missing font returned no image")
	}
}

func TestPlaceholder_FullSize(t *testing.T) {
	r := New(30, "")
	img, err := png.Decode(bytes.NewReader(r.Placeholder()))
	if err != nil {
		t.Fatalf("invalid PNG: %v", err)
	}
	if img.Bounds().Dx() != 30 || img.Bounds().Dy() != Height {
		t.Errorf("placeholder = %dx%d, want 30x%d",
			img.Bounds().Dx(), img.Bounds().Dy(), Height)
	}
}
