package ir

import (
	"strconv"
	"strings"
)

// String renders m as an indented instruction listing, the same
// indent-tracking strings.Builder idiom github.com/eaburns/pea/tree's
// printer uses for its own doc-tree dumps, retargeted at basic blocks
// instead of AST nodes.
func (m *Module) String() string {
	var b strings.Builder
	for i, f := range m.Funcs {
		if i > 0 {
			b.WriteByte('\n')
		}
		f.buildString(&b)
	}
	return b.String()
}

func (f *Function) buildString(b *strings.Builder) {
	b.WriteString("func ")
	b.WriteString(f.Name)
	if f.Strict {
		b.WriteString(" [strict]")
	}
	b.WriteByte('(')
	for i, p := range f.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
	}
	b.WriteString(") {\n")
	for _, blk := range f.Blocks {
		blk.buildString(b)
	}
	b.WriteString("}\n")
}

func (blk *BasicBlock) buildString(b *strings.Builder) {
	b.WriteString("  b")
	b.WriteString(strconv.Itoa(blk.Num))
	b.WriteString(":\n")
	for _, inst := range blk.Instrs {
		if inst.Deleted() {
			continue
		}
		b.WriteString("    ")
		b.WriteString(inst.String())
		if c := inst.Comment(); c != "" {
			b.WriteString("  // ")
			b.WriteString(c)
		}
		b.WriteByte('\n')
	}
}
