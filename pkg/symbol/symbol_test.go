package symbol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTidyGeneric(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "native_safe_halt", want: "native_safe_halt"},
		{name: "arguments", in: "foo(int, char*)", want: "foo"},
		{name: "semicolon", in: "Lcom/example/Foo;.bar(I)V", want: "Lcom/example/Foo:.bar"},
		{name: "go method", in: "net/http.(*Client).Do", want: "net/http.(*Client).Do"},
		{name: "anonymous namespace", in: "(anonymous namespace)::helper(int)", want: "(anonymous namespace)::helper(int)"},
		{name: "leading paren", in: "(foo)", want: ""},
		{name: "empty", in: "", want: ""},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, c.want, TidyGeneric(c.in))
		})
	}
}

func TestTidyGenericIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"foo(int)",
		"a;b;c",
		"net/http.(*Client).Do(x)",
		"(anonymous namespace)::f(x);y",
		"std::vector<int>::push_back(int const&)",
		"Ljava/lang/Thread;.run()V",
		"(",
		";(;",
	}
	for _, in := range inputs {
		once := TidyGeneric(in)
		require.Equal(t, once, TidyGeneric(once), "input %q", in)
	}
}

func TestTidyJava(t *testing.T) {
	t.Parallel()

	require.Equal(t, "com/example/Foo:.bar", TidyJava(TidyGeneric("Lcom/example/Foo;.bar(I)V")))
	require.Equal(t, "org/mozilla/javascript/MemberBox:.<init>",
		TidyJava(TidyGeneric("Lorg/mozilla/javascript/MemberBox;.<init>(Ljava/lang/reflect/Method;)V")))
	require.Equal(t, "Interpreter", TidyJava("Interpreter"))
	require.Equal(t, "LinkedList", TidyJava("LinkedList"))
}

func TestFixPartiallyDemangledRust(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "generic",
			in:   "core..ptr..drop_in_place$LT$alloc..vec..Vec$LT$u8$GT$$GT$",
			want: "core::ptr::drop_in_place<alloc::vec::Vec<u8>>",
		},
		{
			name: "reference and comma",
			in:   "_$LT$$RF$T$u20$as$u20$core..fmt..Debug$GT$::fmt",
			want: "_<&T as core::fmt::Debug>::fmt",
		},
		{name: "no escapes", in: "std::rt::lang_start", want: "std::rt::lang_start"},
		{name: "java dots untouched", in: "Foo;..init", want: "Foo;..init"},
		{name: "unknown escape", in: "foo$XX$bar", want: "foo$XX$bar"},
		{name: "unterminated", in: "foo$LT", want: "foo$LT"},
		{name: "lone dollar", in: "$", want: "$"},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, c.want, FixPartiallyDemangledRust(c.in))
		})
	}
}

func TestDemangle(t *testing.T) {
	t.Parallel()

	require.Equal(t, "foo::bar()", Demangle("_ZN3foo3barEv"))
	require.Equal(t, "foo::bar", TidyGeneric(Demangle("_ZN3foo3barEv")))
	require.Equal(t, "main", Demangle("main"))
}
