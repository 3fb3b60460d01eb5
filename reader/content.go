package reader

import (
	"bytes"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/tsawler/ttcsv/model"
)

const (
	// baselineTolerance is the share of the font size two glyphs' baselines
	// may differ by and still sit on one line.
	baselineTolerance = 0.3

	// wordGap is the horizontal gap, as a share of the font size, that ends
	// a word when no space glyph separates it from the next one.
	wordGap = 0.3

	// thinRect is the largest rectangle side, in points, still drawn as a
	// single rule rather than a box.
	thinRect = 2.0
)

type glyphLine struct {
	baseline float64
	size     float64
	glyphs   []pdf.Text
}

// MergeGlyphs joins the per-glyph text runs the PDF library reports into
// word fragments. Glyphs are grouped by baseline, ordered left to right, and
// split at space glyphs and at visible gaps.
func MergeGlyphs(texts []pdf.Text) []model.TextFragment {
	var lines []*glyphLine
	for _, t := range texts {
		if t.S == "" {
			continue
		}
		size := math.Max(t.FontSize, 1)

		var line *glyphLine
		for _, l := range lines {
			if math.Abs(l.baseline-t.Y) <= math.Max(size, l.size)*baselineTolerance {
				line = l
				break
			}
		}
		if line == nil {
			line = &glyphLine{baseline: t.Y, size: size}
			lines = append(lines, line)
		}
		line.glyphs = append(line.glyphs, t)
	}

	var fragments []model.TextFragment
	for _, line := range lines {
		sort.SliceStable(line.glyphs, func(i, j int) bool {
			return line.glyphs[i].X < line.glyphs[j].X
		})
		fragments = append(fragments, splitWords(line)...)
	}
	return fragments
}

func splitWords(line *glyphLine) []model.TextFragment {
	var (
		fragments []model.TextFragment
		word      []pdf.Text
	)

	flush := func() {
		if len(word) == 0 {
			return
		}
		var sb strings.Builder
		for _, g := range word {
			sb.WriteString(g.S)
		}
		text := strings.TrimSpace(sb.String())
		first, last := word[0], word[len(word)-1]
		word = word[:0]
		if text == "" {
			return
		}
		fragments = append(fragments, model.TextFragment{
			Text:     text,
			BBox:     model.NewBBox(first.X, line.baseline, last.X+last.W-first.X, line.size),
			FontSize: first.FontSize,
			FontName: first.Font,
		})
	}

	for _, g := range line.glyphs {
		if strings.TrimSpace(g.S) == "" {
			flush()
			continue
		}
		if n := len(word); n > 0 {
			prev := word[n-1]
			if g.X-(prev.X+prev.W) > math.Max(g.FontSize, 1)*wordGap {
				flush()
			}
		}
		word = append(word, g)
	}
	flush()

	return fragments
}

// RectLines turns filled or stroked rectangles into ruling lines. Thin
// rectangles are rules themselves; larger ones contribute their four edges.
func RectLines(rects []pdf.Rect) []model.Line {
	var lines []model.Line
	for _, r := range rects {
		minX, maxX := math.Min(r.Min.X, r.Max.X), math.Max(r.Min.X, r.Max.X)
		minY, maxY := math.Min(r.Min.Y, r.Max.Y), math.Max(r.Min.Y, r.Max.Y)
		w, h := maxX-minX, maxY-minY

		switch {
		case w <= thinRect && h <= thinRect:
			continue
		case w <= thinRect:
			x := (minX + maxX) / 2
			lines = append(lines, model.Line{
				Start: model.Point{X: x, Y: minY},
				End:   model.Point{X: x, Y: maxY},
				Width: w,
			})
		case h <= thinRect:
			y := (minY + maxY) / 2
			lines = append(lines, model.Line{
				Start: model.Point{X: minX, Y: y},
				End:   model.Point{X: maxX, Y: y},
				Width: h,
			})
		default:
			lines = append(lines,
				model.Line{Start: model.Point{X: minX, Y: minY}, End: model.Point{X: maxX, Y: minY}},
				model.Line{Start: model.Point{X: minX, Y: maxY}, End: model.Point{X: maxX, Y: maxY}},
				model.Line{Start: model.Point{X: minX, Y: minY}, End: model.Point{X: minX, Y: maxY}},
				model.Line{Start: model.Point{X: maxX, Y: minY}, End: model.Point{X: maxX, Y: maxY}},
			)
		}
	}
	return lines
}

// Sanitize drops trailing bytes after the last %%EOF marker, which some web
// downloads append. Input that does not look like a PDF is returned as is.
func Sanitize(content []byte) []byte {
	if !bytes.HasPrefix(content, []byte("%PDF-")) {
		return content
	}

	eofMarker := []byte("%%EOF")
	lastEOF := bytes.LastIndex(content, eofMarker)
	if lastEOF == -1 {
		return content
	}

	end := lastEOF + len(eofMarker)
	for end < len(content) && (content[end] == '\n' || content[end] == '\r') {
		end++
	}

	// a few stray bytes are tolerated by every parser
	if len(content)-end > 10 {
		return content[:end]
	}
	return content
}
