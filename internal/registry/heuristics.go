package registry

import "strings"

// Name heuristics are a last resort for receivers and parameters whose type
// is Unknown. They never override a declared or inferred type.

var borrowWorthyNames = map[string]bool{
	"config": true, "path": true, "data": true, "args": true, "text": true,
	"content": true, "contents": true, "settings": true, "options": true,
	"params": true, "buffer": true, "message": true, "payload": true,
	"items": true, "records": true, "rows": true, "lines": true,
}

// BorrowWorthyName reports whether a parameter of unknown type named name
// should default to a shared borrow
func BorrowWorthyName(name string) bool {
	name = strings.TrimLeft(name, "_")
	if borrowWorthyNames[name] {
		return true
	}
	for _, suffix := range []string{"_path", "_config", "_data", "_list", "_map", "_dict"} {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// GuessReceiverKind guesses the receiver kind of an untyped variable from
// its name
func GuessReceiverKind(name string) ReceiverKind {
	name = strings.TrimLeft(name, "_")
	switch name {
	case "s", "text", "line", "name", "word", "path", "filename", "message", "prefix", "suffix":
		return RecvString
	case "xs", "items", "values", "lines", "words", "result", "results", "stack", "queue":
		return RecvList
	case "d", "config", "counts", "mapping", "cache", "index", "settings":
		return RecvDict
	case "seen", "visited":
		return RecvSet
	}
	switch {
	case strings.HasSuffix(name, "_str") || strings.HasSuffix(name, "_name") || strings.HasSuffix(name, "_path"):
		return RecvString
	case strings.HasSuffix(name, "_list") || (strings.HasSuffix(name, "s") && len(name) > 3):
		return RecvList
	case strings.HasSuffix(name, "_map") || strings.HasSuffix(name, "_dict"):
		return RecvDict
	case strings.HasSuffix(name, "_set"):
		return RecvSet
	}
	return RecvUnknown
}
