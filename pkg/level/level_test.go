package level

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/matzehuels/rowstamp/pkg/errors"
)

func row(parent, offset bool, codes ...ObstacleCode) ObstacleRow {
	return ObstacleRow{Obstacles: codes, IsParent: parent, OffsetChild: offset}
}

func TestScheduledRows(t *testing.T) {
	tests := []struct {
		name string
		rows []ObstacleRow
		want []int
	}{
		{"single", []ObstacleRow{row(false, false)}, []int{0}},
		{"all terminal", []ObstacleRow{row(false, false), row(false, false), row(false, false)}, []int{0, 1, 2}},
		{"one chain", []ObstacleRow{row(true, true), row(true, false), row(false, false)}, []int{0}},
		{
			"mixed",
			[]ObstacleRow{row(true, false), row(false, false), row(false, false), row(true, false), row(false, false)},
			[]int{0, 2, 3},
		},
		{"empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &Level{Rows: tt.rows}
			if got := l.ScheduledRows(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ScheduledRows() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGroups(t *testing.T) {
	l := &Level{Rows: []ObstacleRow{
		row(true, false), row(true, false), row(false, false),
		row(false, false),
		row(true, false),
	}}

	want := []Group{
		{Index: 0, Start: 0, End: 3, Complete: true},
		{Index: 1, Start: 3, End: 4, Complete: true},
		{Index: 2, Start: 4, End: 5, Complete: false},
	}
	if got := l.Groups(); !reflect.DeepEqual(got, want) {
		t.Errorf("Groups() = %+v, want %+v", got, want)
	}
	if got := want[0].Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
}

func TestGenerations(t *testing.T) {
	tests := []struct {
		name string
		rows []ObstacleRow
		want []int
	}{
		{
			"offset chain bumps once",
			[]ObstacleRow{row(true, true), row(true, false), row(false, false)},
			[]int{0, 0, 1},
		},
		{
			"every link offset",
			[]ObstacleRow{row(true, true), row(true, true), row(true, true), row(false, false)},
			[]int{0, 0, 1, 2},
		},
		{
			"no offsets",
			[]ObstacleRow{row(true, false), row(true, false), row(false, false)},
			[]int{0, 0, 0},
		},
		{
			"terminal resets",
			[]ObstacleRow{row(true, true), row(true, true), row(false, false), row(true, false), row(false, false)},
			[]int{0, 0, 1, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &Level{Rows: tt.rows}
			if got := l.Generations(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Generations() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	five := []ObstacleCode{Box, Nothing, Nothing, Nothing, Saw}

	tests := []struct {
		name string
		l    *Level
		code errors.Code
	}{
		{"ok", &Level{Rows: []ObstacleRow{{Obstacles: five}}}, ""},
		{"nil", nil, errors.ErrCodeInvalidLevel},
		{"no rows", &Level{}, errors.ErrCodeInvalidLevel},
		{"short row", &Level{Rows: []ObstacleRow{{Obstacles: five[:4]}}}, errors.ErrCodeInvalidRowShape},
		{"bad code", &Level{Rows: []ObstacleRow{{Obstacles: []ObstacleCode{Box, 200, Nothing, Nothing, Nothing}}}}, errors.ErrCodeInvalidObstacle},
		{"ends in chain", &Level{Rows: []ObstacleRow{{Obstacles: five, IsParent: true}}}, errors.ErrCodeInvalidLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.l.Validate(5)
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("Validate() code = %q, want %q (err=%v)", got, tt.code, err)
			}
		})
	}
}

func TestParseObstacleCode(t *testing.T) {
	tests := []struct {
		in      string
		want    ObstacleCode
		wantErr bool
	}{
		{"Box", Box, false},
		{"spikes", Spikes, false},
		{" SAW ", Saw, false},
		{"Nothing", Nothing, false},
		{"-", Nothing, false},
		{"", Nothing, false},
		{"Lava", Nothing, true},
	}

	for _, tt := range tests {
		got, err := ParseObstacleCode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseObstacleCode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseObstacleCode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if s := ObstacleCode(99).String(); s != "ObstacleCode(99)" {
		t.Errorf("String() = %q", s)
	}
	if len(Codes()) != int(obstacleCodeCount)-1 {
		t.Errorf("Codes() should list every code but Nothing")
	}
}

const tomlLevel = `
name = "tutorial"

[[rows]]
obstacles = ["Box", "Nothing", "-", "Nothing", "Saw"]
parent = true
offset_child = true

[[rows]]
obstacles = ["Nothing", "Wall", "Nothing", "Wall", "Nothing"]
`

func TestDecodeTOML(t *testing.T) {
	l, err := Decode([]byte(tomlLevel), FormatTOML)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	if l.Name != "tutorial" {
		t.Errorf("Name = %q, want tutorial", l.Name)
	}
	if len(l.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(l.Rows))
	}
	want := ObstacleRow{Obstacles: []ObstacleCode{Box, Nothing, Nothing, Nothing, Saw}, IsParent: true, OffsetChild: true}
	if !reflect.DeepEqual(l.Rows[0], want) {
		t.Errorf("Rows[0] = %+v, want %+v", l.Rows[0], want)
	}
	if l.Rows[1].IsParent || l.Rows[1].OffsetChild {
		t.Error("Rows[1] flags should default to false")
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format string
		code   errors.Code
	}{
		{"unknown code", `[[rows]]` + "\n" + `obstacles = ["Lava"]`, FormatTOML, errors.ErrCodeInvalidLevel},
		{"unknown key", `speed = 3`, FormatTOML, errors.ErrCodeInvalidLevel},
		{"bad json", `{"rows": [`, FormatJSON, errors.ErrCodeInvalidLevel},
		{"unknown json field", `{"rows": [], "speed": 1}`, FormatJSON, errors.ErrCodeInvalidLevel},
		{"bad format", `x`, "yaml", errors.ErrCodeInvalidFormat},
		{"bad hcl", `row {`, FormatHCL, errors.ErrCodeInvalidLevel},
		{"hcl missing obstacles", `row {}`, FormatHCL, errors.ErrCodeInvalidLevel},
		{"hcl unknown code", `row { obstacles = ["Lava"] }`, FormatHCL, errors.ErrCodeInvalidLevel},
		{"hcl unknown attribute", `speed = 3`, FormatHCL, errors.ErrCodeInvalidLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data), tt.format)
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("Decode() code = %q, want %q (err=%v)", got, tt.code, err)
			}
		})
	}
}

func TestEncodeRoundTripJSON(t *testing.T) {
	l, err := Decode([]byte(tomlLevel), FormatTOML)
	if err != nil {
		t.Fatal(err)
	}
	data, err := Encode(l, FormatJSON)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	back, err := Decode(data, FormatJSON)
	if err != nil {
		t.Fatalf("Decode(json) error: %v", err)
	}
	if !reflect.DeepEqual(l, back) {
		t.Errorf("json round trip changed the level:\n%+v\n%+v", l, back)
	}
}

const hclTutorial = `
name = "tutorial"

row {
  obstacles    = ["Box", "Nothing", "-", "Nothing", "Saw"]
  parent       = true
  offset_child = true
}

row {
  obstacles = ["Nothing", "Wall", "Nothing", "Wall", "Nothing"]
}
`

func TestDecodeHCL(t *testing.T) {
	fromHCL, err := Decode([]byte(hclTutorial), FormatHCL)
	if err != nil {
		t.Fatalf("Decode(hcl) error: %v", err)
	}
	fromTOML, err := Decode([]byte(tomlLevel), FormatTOML)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(fromHCL, fromTOML) {
		t.Errorf("hcl level = %+v, want %+v", fromHCL, fromTOML)
	}
}

func TestEncodeRoundTripHCL(t *testing.T) {
	l, err := Decode([]byte(tomlLevel), FormatTOML)
	if err != nil {
		t.Fatal(err)
	}
	data, err := Encode(l, FormatHCL)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	back, err := Decode(data, FormatHCL)
	if err != nil {
		t.Fatalf("Decode(hcl) error: %v\n%s", err, data)
	}
	if !reflect.DeepEqual(l, back) {
		t.Errorf("hcl round trip changed the level:\n%+v\n%+v", l, back)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"levels/intro.toml", FormatTOML},
		{"intro.JSON", FormatJSON},
		{"spiral.hcl", FormatHCL},
		{"noext", FormatTOML},
	}
	for _, tt := range tests {
		if got := FormatFromPath(tt.path); got != tt.want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestFileProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spiral.toml")
	if err := os.WriteFile(path, []byte(`[[rows]]`+"\n"+`obstacles = ["Box"]`), 0o644); err != nil {
		t.Fatal(err)
	}

	l, err := FileProvider{Path: path}.GetLevel(context.Background())
	if err != nil {
		t.Fatalf("GetLevel() error: %v", err)
	}
	if l.Name != "spiral" {
		t.Errorf("Name = %q, want file stem %q", l.Name, "spiral")
	}

	_, err = FileProvider{Path: filepath.Join(dir, "missing.toml")}.GetLevel(context.Background())
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v, want %s", err, errors.ErrCodeFileNotFound)
	}
}

func TestStaticProvider(t *testing.T) {
	if _, err := Static(nil).GetLevel(context.Background()); !errors.Is(err, errors.ErrCodeLevelNotFound) {
		t.Errorf("Static(nil) error = %v", err)
	}
	l := &Level{Name: "x"}
	got, err := Static(l).GetLevel(context.Background())
	if err != nil || got != l {
		t.Errorf("Static(l) = %v, %v", got, err)
	}
}

func TestExampleLevels(t *testing.T) {
	var paths []string
	for _, pattern := range []string{"*.toml", "*.json", "*.hcl"} {
		matches, err := filepath.Glob(filepath.Join("..", "..", "examples", "levels", pattern))
		if err != nil {
			t.Fatal(err)
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		t.Fatal("no example levels found")
	}
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			l, _, err := ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile() error: %v", err)
			}
			if err := l.Validate(5); err != nil {
				t.Errorf("Validate() error: %v", err)
			}
		})
	}
}
