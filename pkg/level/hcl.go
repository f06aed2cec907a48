package level

import (
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"

	"github.com/matzehuels/rowstamp/pkg/errors"
)

// hclLevel is the HCL shape of a level: one row block per row.
//
//	name = "intro"
//
//	row {
//	  obstacles    = ["Box", "-", "Spikes", "-", "Box"]
//	  parent       = true
//	  offset_child = true
//	}
type hclLevel struct {
	Name string    `hcl:"name,optional"`
	Rows []*hclRow `hcl:"row,block"`
}

type hclRow struct {
	Obstacles   []string `hcl:"obstacles"`
	Parent      bool     `hcl:"parent,optional"`
	OffsetChild bool     `hcl:"offset_child,optional"`
}

func decodeHCL(data []byte, filename string) (*Level, error) {
	f, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.Wrap(errors.ErrCodeInvalidLevel, diags, "parse hcl level")
	}

	var doc hclLevel
	if diags := gohcl.DecodeBody(f.Body, nil, &doc); diags.HasErrors() {
		return nil, errors.Wrap(errors.ErrCodeInvalidLevel, diags, "decode hcl level")
	}

	l := &Level{Name: doc.Name, Rows: make([]ObstacleRow, len(doc.Rows))}
	for i, r := range doc.Rows {
		codes := make([]ObstacleCode, len(r.Obstacles))
		for lane, s := range r.Obstacles {
			c, err := ParseObstacleCode(s)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidLevel, err, "row %d lane %d", i, lane)
			}
			codes[lane] = c
		}
		l.Rows[i] = ObstacleRow{Obstacles: codes, IsParent: r.Parent, OffsetChild: r.OffsetChild}
	}
	return l, nil
}

func encodeHCL(l *Level) []byte {
	doc := hclLevel{Name: l.Name, Rows: make([]*hclRow, len(l.Rows))}
	for i, r := range l.Rows {
		names := make([]string, len(r.Obstacles))
		for lane, c := range r.Obstacles {
			names[lane] = c.String()
		}
		doc.Rows[i] = &hclRow{Obstacles: names, Parent: r.IsParent, OffsetChild: r.OffsetChild}
	}

	f := hclwrite.NewEmptyFile()
	gohcl.EncodeIntoBody(&doc, f.Body())
	return f.Bytes()
}
