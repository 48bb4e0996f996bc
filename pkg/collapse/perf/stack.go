package perf

import (
	"strings"

	"github.com/danpilch/stackfold/pkg/collapse"
	"github.com/danpilch/stackfold/pkg/symbol"
)

const (
	unknownSymbol = "[unknown]"
	inlineSep     = "->"
)

// onStackLine handles one frame of the current sample, like:
//
//	ffffffff8103ce3b native_safe_halt ([kernel.kallsyms])
//	ffffffff81aebbfe start_kernel ([kernel.kallsyms].init.text)
//	7f533952bc77 _dl_check_map_versions+0x597 (/usr/lib/ld-2.28.so)
//	7f722d142778 Ljava/io/PrintStream;::print (/tmp/perf-19982.map)
//	7f53389994d0 [unknown] ([unknown])
func (f *Folder) onStackLine(line string) {
	if f.skipStack {
		return
	}

	pc, rawfunc, module, ok := stackLineParts(line)
	if !ok {
		f.log.WithField("line", line).Warn("weird stack line")
		return
	}

	rawfunc = stripOffset(rawfunc)
	// Process name pseudo frames.
	if strings.HasPrefix(rawfunc, "(") {
		return
	}

	if f.opt.Demangle {
		rawfunc = f.demangle(rawfunc)
	} else {
		rawfunc = symbol.FixPartiallyDemangledRust(rawfunc)
	}

	// Java inlining: "a->b->c" is a with b and c inlined into it.
	f.scratch = f.scratch[:0]
	for _, fn := range strings.Split(rawfunc, inlineSep) {
		fn = withModuleFallback(module, fn, pc, f.opt.IncludeAddrs)
		fn = symbol.TidyGeneric(fn)
		if f.pname == "java" {
			fn = symbol.TidyJava(fn)
		}
		fn += f.annotation(module, len(f.scratch) > 0)
		f.scratch = append(f.scratch, fn)
	}

	for i := len(f.scratch) - 1; i >= 0; i-- {
		f.stack = append(f.stack, f.scratch[i])
	}
}

// stackLineParts splits "<pc> <function> (<module>)". The module must be
// wrapped in parentheses, which is also what tells perf output apart from
// other formats.
func stackLineParts(line string) (pc, rawfunc, module string, ok bool) {
	line = collapse.TrimLeftSpace(line)
	sp := strings.IndexByte(line, ' ')
	if sp < 0 {
		return "", "", "", false
	}
	pc, rest := line[:sp], line[sp+1:]

	sp = strings.LastIndexByte(rest, ' ')
	if sp < 0 {
		return "", "", "", false
	}
	module = rest[sp+1:]
	if len(module) < 2 || module[0] != '(' || module[len(module)-1] != ')' {
		return "", "", "", false
	}
	module = module[1 : len(module)-1]

	// With two spaces between pc and module, as in
	// "7f1e2215d058  (/lib/x86_64-linux-gnu/libc-2.15.so)", the function
	// is a single space.
	rawfunc = collapse.TrimSpace(rest[:sp])
	if rawfunc == "" {
		rawfunc = " "
	}
	return pc, rawfunc, module, true
}

// stripOffset removes a trailing "+0x<hex>" symbol offset.
func stripOffset(fn string) string {
	i := strings.LastIndex(fn, "+0x")
	if i < 0 {
		return fn
	}
	for _, c := range []byte(fn[i+3:]) {
		if !isHexDigit(c) {
			return fn
		}
	}
	return fn[:i]
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
