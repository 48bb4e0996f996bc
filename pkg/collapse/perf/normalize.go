package perf

import "strings"

// withModuleFallback names an unknown symbol after the basename of its
// module, e.g. "[libc-2.28.so]", or "[libc-2.28.so <7f53389994d0>]" when
// addresses are included. An unknown symbol in an unknown module stays
// "[unknown]" unless addresses are included.
func withModuleFallback(module, fn, pc string, includeAddrs bool) string {
	if fn != unknownSymbol {
		return fn
	}

	var name string
	switch {
	case module == unknownSymbol && includeAddrs:
		name = "unknown"
	case module == unknownSymbol:
		return fn
	default:
		name = module[strings.LastIndexByte(module, '/')+1:]
	}

	if includeAddrs {
		return "[" + name + " <" + pc + ">]"
	}
	return "[" + name + "]"
}

// annotation returns the suffix marking a frame as inlined, kernel or JIT
// compiled, in that order of precedence:
//
//	ffffffff8103ce3b native_safe_halt ([kernel.kallsyms])
//	8c3453 tcp_sendmsg (/lib/modules/4.3.0-rc1-virtual/build/vmlinux)
//	7d8 ipv4_conntrack_local+0x7f8f80b8 ([nf_conntrack_ipv4])
//	7f722d142778 Ljava/io/PrintStream;::print (/tmp/perf-19982.map)
func (f *Folder) annotation(module string, inlined bool) string {
	switch {
	case inlined:
		return "_[i]"
	case f.opt.AnnotateKernel && isKernelModule(module):
		return "_[k]"
	case f.opt.AnnotateJIT && isJITModule(module):
		return "_[j]"
	default:
		return ""
	}
}

func isKernelModule(module string) bool {
	return (strings.HasPrefix(module, "[") || strings.HasSuffix(module, "vmlinux")) &&
		module != unknownSymbol
}

func isJITModule(module string) bool {
	return strings.HasPrefix(module, "/tmp/perf-") && strings.HasSuffix(module, ".map")
}
