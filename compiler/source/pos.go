package source

import "strconv"

type (
	// Pos is a position in the source text.
	// Line and Col are 1-based, Offset is a byte offset.
	Pos struct {
		Offset int
		Line   int
		Col    int
	}
)

func Start() Pos {
	return Pos{Line: 1, Col: 1}
}

func (p Pos) IsValid() bool { return p.Line > 0 }

// Advance returns the position right after b.
func (p Pos) Advance(b []byte) Pos {
	for _, c := range b {
		p.Offset++

		if c == '\n' {
			p.Line++
			p.Col = 1
		} else {
			p.Col++
		}
	}

	return p
}

func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}

	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Col)
}
