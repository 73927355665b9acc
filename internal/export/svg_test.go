package export

import (
	"encoding/xml"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/blobsim/internal/sim"
	"github.com/san-kum/blobsim/internal/viz"
	"github.com/san-kum/blobsim/internal/vmath"
)

func wellFormed(t *testing.T, doc string) {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(doc))
	for {
		_, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return
			}
			t.Fatalf("malformed svg: %v", err)
		}
	}
}

func TestSnapshotToSVG(t *testing.T) {
	snap := sim.Snapshot{
		{ID: 0, Position: vmath.Vector2f{X: 10, Y: 20}},
		{ID: 1, Position: vmath.Vector2f{X: 30, Y: 40}},
		{ID: 2, Position: vmath.Vector2f{X: math.NaN(), Y: 1}},
	}

	svg := SnapshotToSVG(100, 50, 4, snap, 2)
	wellFormed(t, svg)

	if !strings.Contains(svg, `width="200" height="100"`) {
		t.Error("expected canvas scaled to 200x100")
	}
	if n := strings.Count(svg, "<rect x="); n != 2 {
		t.Errorf("expected 2 footprints, got %d", n)
	}
	if n := strings.Count(svg, "<circle"); n != 2 {
		t.Errorf("expected 2 dots, got %d", n)
	}
	if !strings.Contains(svg, `<rect x="20.0" y="40.0" width="8.0" height="8.0"/>`) {
		t.Error("footprint of blob 0 not at its scaled position")
	}
}

func TestSnapshotToSVG_DefaultScale(t *testing.T) {
	svg := SnapshotToSVG(10, 10, 1, nil, 0)
	wellFormed(t, svg)
	if !strings.Contains(svg, `width="10" height="10"`) {
		t.Error("non-positive scale should fall back to 1")
	}
}

func TestTrailsToSVG(t *testing.T) {
	snapshots := []sim.Snapshot{
		{{ID: 0, Position: vmath.Vector2f{X: 1, Y: 1}}, {ID: 1, Position: vmath.Vector2f{X: 5, Y: 5}}},
		{{ID: 0, Position: vmath.Vector2f{X: 2, Y: 1}}},
		{{ID: 0, Position: vmath.Vector2f{X: 3, Y: 2}}},
	}

	svg := TrailsToSVG(10, 10, snapshots, 1)
	wellFormed(t, svg)

	if n := strings.Count(svg, "<path"); n != 1 {
		t.Errorf("expected 1 trail (blob 1 has a single point), got %d", n)
	}
	if !strings.Contains(svg, `d="M1.0,1.0 L2.0,1.0 L3.0,2.0"`) {
		t.Errorf("unexpected trail path in %s", svg)
	}
}

func TestCanvasToSVG(t *testing.T) {
	if CanvasToSVG(nil, 1) != "" {
		t.Error("nil canvas should produce empty output")
	}

	c := viz.NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)

	svg := CanvasToSVG(c, 2)
	wellFormed(t, svg)
	if n := strings.Count(svg, "<circle"); n != 2 {
		t.Errorf("expected 2 dots, got %d", n)
	}
	if !strings.Contains(svg, `cx="7.0" cy="7.0"`) {
		t.Error("dot (3, 3) not at its scaled centre")
	}
}
