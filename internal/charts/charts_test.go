package charts

import (
	"bytes"
	"errors"
	"testing"

	"finboard/internal/core"
	"finboard/internal/summary"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G'}

func TestDaySeriesRendersPNG(t *testing.T) {
	r := NewRenderer()
	days := []summary.DayTotals{
		{Date: core.NewDate(2024, 3, 1), Income: 250000, Expenses: 0},
		{Date: core.NewDate(2024, 3, 2), Income: 0, Expenses: 14530},
		{Date: core.NewDate(2024, 3, 3), Income: 0, Expenses: 5470},
	}

	png, err := r.DaySeries(days)
	if err != nil {
		t.Fatalf("DaySeries: %v", err)
	}
	if !bytes.HasPrefix(png, pngHeader) {
		t.Error("output is not a PNG")
	}
}

func TestDaySeriesEmpty(t *testing.T) {
	if _, err := NewRenderer().DaySeries(nil); !errors.Is(err, ErrNoData) {
		t.Errorf("err = %v, want ErrNoData", err)
	}
}

func TestCategoryPieRendersPNG(t *testing.T) {
	r := NewRenderer()
	categories := []summary.CategoryValue{
		{Name: "Rent", Value: 100000},
		{Name: "Food", Value: 20000},
		{Name: "", Value: 3000},
	}

	png, err := r.CategoryPie(categories)
	if err != nil {
		t.Fatalf("CategoryPie: %v", err)
	}
	if !bytes.HasPrefix(png, pngHeader) {
		t.Error("output is not a PNG")
	}
}

func TestCategoryPieNoData(t *testing.T) {
	r := NewRenderer()
	if _, err := r.CategoryPie(nil); !errors.Is(err, ErrNoData) {
		t.Errorf("empty: err = %v, want ErrNoData", err)
	}
	if _, err := r.CategoryPie([]summary.CategoryValue{{Name: "Zero", Value: 0}}); !errors.Is(err, ErrNoData) {
		t.Errorf("zero total: err = %v, want ErrNoData", err)
	}
}
