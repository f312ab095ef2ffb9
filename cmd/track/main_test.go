package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/example/ride-tracking/internal/models"
	"github.com/example/ride-tracking/internal/view"
)

func TestChangePrinterSkipsUnchangedViews(t *testing.T) {
	var buf bytes.Buffer
	p := &changePrinter{w: &buf}
	st := models.StatusDriverOnWay

	if !p.Print(view.View{RideID: "r1", Status: &st}) {
		t.Fatalf("first view must be printed")
	}
	if p.Print(view.View{RideID: "r1", Status: &st}) {
		t.Fatalf("identical view must be skipped")
	}
	next := models.StatusDriverArrived
	if !p.Print(view.View{RideID: "r1", Status: &next}) {
		t.Fatalf("changed view must be printed")
	}
	if n := strings.Count(buf.String(), `"rideId": "r1"`); n != 2 {
		t.Fatalf("expected 2 printed views, got %d", n)
	}
}
