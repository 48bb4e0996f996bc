// Package symbol normalises raw function names into stable frame names.
package symbol

import "strings"

const anonymousNamespace = "(anonymous namespace)"

// TidyGeneric makes a function name safe for folded output and drops its
// argument list.
//
// Semicolons become colons since ';' separates frames. The name is cut at its
// first '(' unless that paren opens a C++ "(anonymous namespace)" or directly
// follows a '.', as in Go method names like "net/http.(*Client).Do".
func TidyGeneric(fn string) string {
	fn = strings.ReplaceAll(fn, ";", ":")

	paren := strings.IndexByte(fn, '(')
	if paren < 0 {
		return fn
	}
	if strings.HasPrefix(fn[paren:], anonymousNamespace) {
		return fn
	}
	if paren > 0 && fn[paren-1] == '.' {
		return fn
	}
	return fn[:paren]
}

// TidyJava strips the type descriptor prefix from JVM symbols, so that
// "Lorg/mozilla/javascript/MemberBox:.init" becomes
// "org/mozilla/javascript/MemberBox:.init".
func TidyJava(fn string) string {
	if strings.HasPrefix(fn, "L") && strings.Contains(fn, "/") {
		return fn[1:]
	}
	return fn
}
