// File: lixenwraith/blockconf/doc.go

// Package blockconf parses hierarchical, line-oriented block configuration
// files into a tree of scopes, and manages a loaded document.
//
// Syntax:
//
//	// line comment
//	/* block comment,
//	   may span lines */
//	Listen = 0.0.0.0:6697
//	LoadModule = webadmin
//	LoadModule = log
//
//	<User alice>
//		Nick = alice
//		<Network libera>
//			Server = irc.libera.chat +6697
//		</Network>
//	</User>
//
// Keys and tags are case-insensitive and stored lower-cased. Block names and
// values are kept verbatim. A key may repeat; its values are kept in source
// order. A (tag, name) pair may occur only once per scope. Comment markers
// are recognized only where a new construct may start, so
// "Foo = bar // baz" stores the value "bar // baz".
//
// Errors are reported as *ParseError with the exact text
// "Error on line <N>: <Reason>.", for example:
//
//	Error on line 2: Closing tag "bar" which is not open.
//
// Quick Start:
//
//	root := blockconf.NewScope()
//	f, _ := os.Open("app.conf")
//	if err := blockconf.Parse(f, root); err != nil {
//	    log.Fatal(err)
//	}
//	for _, user := range root.Children("user") {
//	    nick, _ := user.Scope.Value("nick")
//	    fmt.Println(user.Name, nick)
//	}
//
// Loaded documents:
//
//	cfg, err := blockconf.NewBuilder().
//	    WithFileDiscovery(blockconf.DefaultDiscoveryOptions("myapp")).
//	    WithValidator(blockconf.RequireEntries("listen")).
//	    Build()
//
// A Config swaps its whole tree on each successful load or reload, so the
// scope returned by Root is never modified afterward. Values stay strings;
// Decode converts a scope into a struct through mapstructure for callers
// that want typed access.
package blockconf
