package model

// RawBlock is a contiguous span of source text believed to contain one
// question. Blocks live only between the segmenter and the parser; they
// are never persisted.
type RawBlock struct {
	SourceFile string
	SourcePDF  string
	StartLine  int
	EndLine    int
	Lines      []string
}
