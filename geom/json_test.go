package geom

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPathJSON(t *testing.T) {
	paths := []FinitePath{
		mustLinear(t, Pt(1, 2), Pt(3, 4)),
		mustCircular(t, Pt(0, 0), NewCircleAngle(Degrees(45)), 120, -math.Pi/3),
		testCompound(t),
	}
	opt := cmp.AllowUnexported(LinearPath{}, CircularPath{}, CompoundPath{})
	for _, p := range paths {
		data, err := json.Marshal(PathJSON{Path: p})
		if err != nil {
			t.Fatalf("marshal: %s", err)
		}
		var got PathJSON
		err = json.Unmarshal(data, &got)
		if err != nil {
			t.Fatalf("unmarshal %s: %s", data, err)
		}
		if diff := cmp.Diff(p, got.Path, opt); diff != "" {
			t.Fatalf("round trip (-want +got):\n%s", diff)
		}
	}
}

func TestPathJSONInvalid(t *testing.T) {
	for _, data := range []string{
		`{"kind":"linear","start":[0,0],"end":[0,0]}`,
		`{"kind":"circular","center":[0,0],"radius":0,"delta":1}`,
		`{"kind":"compound","components":[{"kind":"linear","start":[0,0],"end":[1,0]}]}`,
		`{"kind":"spiral"}`,
	} {
		var p PathJSON
		err := json.Unmarshal([]byte(data), &p)
		if !errors.Is(err, ErrInvalidPath) {
			t.Fatalf("%s: got %v, want ErrInvalidPath", data, err)
		}
	}
}
