package symbol

import "github.com/ianlancetaylor/demangle"

// Demangler turns a mangled symbol into a readable one. Names it does not
// understand must be returned unchanged.
type Demangler func(mangled string) string

// Demangle demangles GCC/LLVM C++ and Rust symbols, keeping parameter and
// template lists so TidyGeneric decides what to cut.
func Demangle(mangled string) string {
	return demangle.Filter(mangled)
}
