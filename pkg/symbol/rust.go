package symbol

import "strings"

// rustEscapes are the legacy Rust mangling escapes perf leaves behind when it
// only partially demangles a symbol.
var rustEscapes = map[string]string{
	"$SP$":  "@",
	"$BP$":  "*",
	"$RF$":  "&",
	"$LT$":  "<",
	"$GT$":  ">",
	"$LP$":  "(",
	"$RP$":  ")",
	"$C$":   ",",
	"$u7e$": "~",
	"$u20$": " ",
	"$u27$": "'",
	"$u3d$": "=",
	"$u5b$": "[",
	"$u5d$": "]",
	"$u7b$": "{",
	"$u7d$": "}",
	"$u3b$": ";",
	"$u2b$": "+",
	"$u22$": "\"",
}

// FixPartiallyDemangledRust repairs symbols such as
// "core..ptr..drop_in_place$LT$alloc..vec..Vec$LT$u8$GT$$GT$" into
// "core::ptr::drop_in_place<alloc::vec::Vec<u8>>".
//
// Only symbols carrying at least one known escape are touched, and a symbol
// with an unknown escape is returned unchanged.
func FixPartiallyDemangledRust(sym string) string {
	if !strings.Contains(sym, "$") {
		return sym
	}

	var (
		b       strings.Builder
		rest    = sym
		escaped bool
	)
	b.Grow(len(sym))
	for len(rest) > 0 {
		switch {
		case strings.HasPrefix(rest, ".."):
			b.WriteString("::")
			rest = rest[2:]
		case rest[0] == '$':
			end := strings.IndexByte(rest[1:], '$')
			if end < 0 {
				return sym
			}
			seq := rest[:end+2]
			repl, ok := rustEscapes[seq]
			if !ok {
				return sym
			}
			b.WriteString(repl)
			rest = rest[len(seq):]
			escaped = true
		default:
			next := strings.IndexAny(rest[1:], "$.")
			if next < 0 {
				b.WriteString(rest)
				rest = ""
				continue
			}
			b.WriteString(rest[:next+1])
			rest = rest[next+1:]
		}
	}
	if !escaped {
		return sym
	}
	return b.String()
}
