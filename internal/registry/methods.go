package registry

import "github.com/paiml/depyler-sub010/internal/hir"

// ReceiverKind keys the method-on-receiver registry
type ReceiverKind int

const (
	RecvUnknown ReceiverKind = iota
	RecvString
	RecvList
	RecvDict
	RecvSet
	RecvBytes
	RecvFile
	RecvCounter
	RecvDefaultDict
	RecvOrderedDict
	RecvDeque
)

var receiverNames = map[ReceiverKind]string{
	RecvUnknown:     "unknown",
	RecvString:      "str",
	RecvList:        "list",
	RecvDict:        "dict",
	RecvSet:         "set",
	RecvBytes:       "bytes",
	RecvFile:        "file",
	RecvCounter:     "Counter",
	RecvDefaultDict: "defaultdict",
	RecvOrderedDict: "OrderedDict",
	RecvDeque:       "deque",
}

func (k ReceiverKind) String() string { return receiverNames[k] }

// ArgPolicy is how a method's arguments are adjusted before substitution
type ArgPolicy int

const (
	// ArgsOwned passes owned values: string literals get .to_string(),
	// variables used later are cloned
	ArgsOwned ArgPolicy = iota
	// ArgsStr passes every argument as &str
	ArgsStr
	// ArgsKeyRef passes the first argument as a borrowed key, the rest owned
	ArgsKeyRef
	// ArgsBorrowed passes every argument by shared reference
	ArgsBorrowed
	// ArgsAsIs substitutes the lowered arguments unchanged
	ArgsAsIs
)

// ResultShape describes a method's result relative to its receiver type
type ResultShape int

const (
	ResultUnit ResultShape = iota
	ResultSame
	ResultString
	ResultInt
	ResultFloat
	ResultBool
	ResultBytes
	ResultElem
	ResultOptElem
	ResultValue
	ResultOptValue
	ResultKeys
	ResultValues
	ResultItems
	ResultStrings
	ResultCounts
	ResultUnknown
)

// MethodRule is one row of the method-on-receiver registry
type MethodRule struct {
	// Forms[n] is the template for n arguments; "" marks an unsupported arity
	Forms    []string
	Mutating bool
	Args     ArgPolicy
	Result   ResultShape
}

// Form returns the template for a call with n arguments
func (m MethodRule) Form(n int) (string, bool) {
	if n < len(m.Forms) && m.Forms[n] != "" {
		return m.Forms[n], true
	}
	return "", false
}

// ResultType computes the method's result type for a receiver of type recv
func (m MethodRule) ResultType(recv *hir.Type) *hir.Type {
	switch m.Result {
	case ResultUnit:
		return hir.TypeNone
	case ResultSame:
		return recv
	case ResultString:
		return hir.TypeString
	case ResultInt:
		return hir.TypeInt
	case ResultFloat:
		return hir.TypeFloat
	case ResultBool:
		return hir.TypeBool
	case ResultBytes:
		return hir.TypeBytes
	case ResultElem:
		return recv.Elem()
	case ResultOptElem:
		return hir.OptionalOf(recv.Elem())
	case ResultValue:
		return recv.Value()
	case ResultOptValue:
		return hir.OptionalOf(recv.Value())
	case ResultKeys:
		return hir.ListOf(recv.Key())
	case ResultValues:
		return hir.ListOf(recv.Value())
	case ResultItems:
		return hir.ListOf(hir.TupleOf(recv.Key(), recv.Value()))
	case ResultStrings:
		return hir.ListOf(hir.TypeString)
	case ResultCounts:
		return hir.ListOf(hir.TupleOf(recv.Key(), hir.TypeInt))
	}
	return hir.TypeUnknown
}

func rule(result ResultShape, args ArgPolicy, forms ...string) MethodRule {
	return MethodRule{Forms: forms, Args: args, Result: result}
}

func mutating(result ResultShape, args ArgPolicy, forms ...string) MethodRule {
	return MethodRule{Forms: forms, Args: args, Result: result, Mutating: true}
}

const collectStrings = ".map(|s| s.to_string()).collect::<Vec<String>>()"

var methods = map[ReceiverKind]map[string]MethodRule{
	RecvString: {
		"upper":      rule(ResultString, ArgsStr, "{r}.to_uppercase()"),
		"lower":      rule(ResultString, ArgsStr, "{r}.to_lowercase()"),
		"casefold":   rule(ResultString, ArgsStr, "{r}.to_lowercase()"),
		"strip":      rule(ResultString, ArgsStr, "{r}.trim().to_string()", "{r}.trim_matches(|c: char| {0}.contains(c)).to_string()"),
		"lstrip":     rule(ResultString, ArgsStr, "{r}.trim_start().to_string()", "{r}.trim_start_matches(|c: char| {0}.contains(c)).to_string()"),
		"rstrip":     rule(ResultString, ArgsStr, "{r}.trim_end().to_string()", "{r}.trim_end_matches(|c: char| {0}.contains(c)).to_string()"),
		"split":      rule(ResultStrings, ArgsStr, "{r}.split_whitespace()"+collectStrings, "{r}.split({0})"+collectStrings, "{r}.splitn(({1} + 1) as usize, {0})"+collectStrings),
		"rsplit":     rule(ResultStrings, ArgsStr, "{r}.split_whitespace().rev()"+collectStrings, "{r}.rsplit({0})"+collectStrings),
		"splitlines": rule(ResultStrings, ArgsStr, "{r}.lines()"+collectStrings),
		"join":       rule(ResultString, ArgsAsIs, "", "{0}.join(&*{r})"),
		"replace":    rule(ResultString, ArgsStr, "", "", "{r}.replace({0}, {1})", "{r}.replacen({0}, {1}, {2} as usize)"),
		"startswith": rule(ResultBool, ArgsStr, "", "{r}.starts_with({0})"),
		"endswith":   rule(ResultBool, ArgsStr, "", "{r}.ends_with({0})"),
		"find":       rule(ResultInt, ArgsStr, "", "{r}.find({0}).map(|i| i as {int}).unwrap_or(-1)"),
		"rfind":      rule(ResultInt, ArgsStr, "", "{r}.rfind({0}).map(|i| i as {int}).unwrap_or(-1)"),
		"index":      rule(ResultInt, ArgsStr, "", `{r}.find({0}).map(|i| i as {int}).expect("substring not found")`),
		"count":      rule(ResultInt, ArgsStr, "", "{r}.matches({0}).count() as {int}"),
		"isdigit":    rule(ResultBool, ArgsStr, "(!{r}.is_empty() && {r}.chars().all(|c| c.is_ascii_digit()))"),
		"isnumeric":  rule(ResultBool, ArgsStr, "(!{r}.is_empty() && {r}.chars().all(|c| c.is_numeric()))"),
		"isalpha":    rule(ResultBool, ArgsStr, "(!{r}.is_empty() && {r}.chars().all(|c| c.is_alphabetic()))"),
		"isalnum":    rule(ResultBool, ArgsStr, "(!{r}.is_empty() && {r}.chars().all(|c| c.is_alphanumeric()))"),
		"isspace":    rule(ResultBool, ArgsStr, "(!{r}.is_empty() && {r}.chars().all(|c| c.is_whitespace()))"),
		"isupper":    rule(ResultBool, ArgsStr, "({r}.chars().any(|c| c.is_alphabetic()) && {r}.chars().all(|c| !c.is_lowercase()))"),
		"islower":    rule(ResultBool, ArgsStr, "({r}.chars().any(|c| c.is_alphabetic()) && {r}.chars().all(|c| !c.is_uppercase()))"),
		"capitalize": rule(ResultString, ArgsStr, "{ let mut _c = {r}.chars(); match _c.next() { Some(f) => f.to_uppercase().collect::<String>() + &_c.as_str().to_lowercase(), None => String::new() } }"),
		"title":      rule(ResultString, ArgsStr, `{r}.split(' ').map(|w| { let mut _c = w.chars(); match _c.next() { Some(f) => f.to_uppercase().collect::<String>() + &_c.as_str().to_lowercase(), None => String::new() } }).collect::<Vec<String>>().join(" ")`),
		"zfill":      rule(ResultString, ArgsAsIs, "", "format!(\"{:0>width$}\", {r}, width = {0} as usize)"),
		"center":     rule(ResultString, ArgsAsIs, "", "format!(\"{:^width$}\", {r}, width = {0} as usize)"),
		"ljust":      rule(ResultString, ArgsAsIs, "", "format!(\"{:<width$}\", {r}, width = {0} as usize)"),
		"rjust":      rule(ResultString, ArgsAsIs, "", "format!(\"{:>width$}\", {r}, width = {0} as usize)"),
		"encode":     rule(ResultBytes, ArgsStr, "{r}.as_bytes().to_vec()", "{r}.as_bytes().to_vec()"),
		"format":     rule(ResultString, ArgsAsIs, "{r}.to_string()"),
	},

	RecvList: {
		"append":  mutating(ResultUnit, ArgsOwned, "", "{r}.push({0})"),
		"extend":  mutating(ResultUnit, ArgsAsIs, "", "{r}.extend({0}.iter().cloned())"),
		"insert":  mutating(ResultUnit, ArgsOwned, "", "", "{r}.insert({0} as usize, {1})"),
		"pop":     mutating(ResultElem, ArgsAsIs, `{r}.pop().expect("pop from empty list")`, "{r}.remove({0} as usize)"),
		"remove":  mutating(ResultUnit, ArgsAsIs, "", `{ let _pos = {r}.iter().position(|x| *x == {0}).expect("list.remove(x): x not in list"); {r}.remove(_pos); }`),
		"clear":   mutating(ResultUnit, ArgsAsIs, "{r}.clear()"),
		"sort":    mutating(ResultUnit, ArgsAsIs, "{r}.sort()"),
		"reverse": mutating(ResultUnit, ArgsAsIs, "{r}.reverse()"),
		"index":   rule(ResultInt, ArgsAsIs, "", `{r}.iter().position(|x| *x == {0}).map(|i| i as {int}).expect("value not in list")`),
		"count":   rule(ResultInt, ArgsAsIs, "", "{r}.iter().filter(|x| **x == {0}).count() as {int}"),
		"copy":    rule(ResultSame, ArgsAsIs, "{r}.clone()"),
	},

	RecvDict: {
		"get":        rule(ResultOptValue, ArgsKeyRef, "", "{r}.get({0}).cloned()", "{r}.get({0}).cloned().unwrap_or({1})"),
		"keys":       rule(ResultKeys, ArgsAsIs, "{r}.keys().cloned().collect::<Vec<_>>()"),
		"values":     rule(ResultValues, ArgsAsIs, "{r}.values().cloned().collect::<Vec<_>>()"),
		"items":      rule(ResultItems, ArgsAsIs, "{r}.iter().map(|(k, v)| (k.clone(), v.clone())).collect::<Vec<_>>()"),
		"update":     mutating(ResultUnit, ArgsAsIs, "", "{r}.extend({0}.iter().map(|(k, v)| (k.clone(), v.clone())))"),
		"pop":        mutating(ResultValue, ArgsKeyRef, "", `{r}.remove({0}).expect("KeyError")`, "{r}.remove({0}).unwrap_or({1})"),
		"setdefault": mutating(ResultValue, ArgsOwned, "", "", "{r}.entry({0}).or_insert({1}).clone()"),
		"clear":      mutating(ResultUnit, ArgsAsIs, "{r}.clear()"),
		"copy":       rule(ResultSame, ArgsAsIs, "{r}.clone()"),
	},

	RecvSet: {
		"add":                  mutating(ResultUnit, ArgsOwned, "", "{r}.insert({0})"),
		"remove":               mutating(ResultUnit, ArgsKeyRef, "", `if !{r}.remove({0}) { panic!("KeyError") }`),
		"discard":              mutating(ResultUnit, ArgsKeyRef, "", "{r}.remove({0})"),
		"clear":                mutating(ResultUnit, ArgsAsIs, "{r}.clear()"),
		"union":                rule(ResultSame, ArgsBorrowed, "", "{r}.union({0}).cloned().collect::<HashSet<_>>()"),
		"intersection":         rule(ResultSame, ArgsBorrowed, "", "{r}.intersection({0}).cloned().collect::<HashSet<_>>()"),
		"difference":           rule(ResultSame, ArgsBorrowed, "", "{r}.difference({0}).cloned().collect::<HashSet<_>>()"),
		"symmetric_difference": rule(ResultSame, ArgsBorrowed, "", "{r}.symmetric_difference({0}).cloned().collect::<HashSet<_>>()"),
		"issubset":             rule(ResultBool, ArgsBorrowed, "", "{r}.is_subset({0})"),
		"issuperset":           rule(ResultBool, ArgsBorrowed, "", "{r}.is_superset({0})"),
		"isdisjoint":           rule(ResultBool, ArgsBorrowed, "", "{r}.is_disjoint({0})"),
		"copy":                 rule(ResultSame, ArgsAsIs, "{r}.clone()"),
	},

	RecvBytes: {
		"decode": rule(ResultString, ArgsAsIs, "String::from_utf8_lossy(&{r}).to_string()", "String::from_utf8_lossy(&{r}).to_string()"),
		"hex":    rule(ResultString, ArgsAsIs, `{r}.iter().map(|b| format!("{:02x}", b)).collect::<String>()`),
	},

	RecvFile: {
		"read":      mutating(ResultString, ArgsAsIs, `{ let mut _s = String::new(); std::io::Read::read_to_string(&mut {r}, &mut _s).expect("read failed"); _s }`),
		"readlines": mutating(ResultStrings, ArgsAsIs, `std::io::BufRead::lines(std::io::BufReader::new(&{r})).map(|l| l.expect("read failed")).collect::<Vec<String>>()`),
		"write":     mutating(ResultUnit, ArgsStr, "", `std::io::Write::write_all(&mut {r}, {0}.as_bytes()).expect("write failed")`),
		"close":     rule(ResultUnit, ArgsAsIs, "()"),
	},

	RecvCounter: {
		"most_common": rule(ResultCounts, ArgsAsIs,
			"{ let mut _v: Vec<_> = {r}.iter().map(|(k, v)| (k.clone(), *v)).collect(); _v.sort_by(|a, b| b.1.cmp(&a.1)); _v }",
			"{ let mut _v: Vec<_> = {r}.iter().map(|(k, v)| (k.clone(), *v)).collect(); _v.sort_by(|a, b| b.1.cmp(&a.1)); _v.truncate({0} as usize); _v }"),
		"update": mutating(ResultUnit, ArgsAsIs, "", "for _x in {0}.iter() { *{r}.entry(_x.clone()).or_insert(0) += 1; }"),
		"total":  rule(ResultInt, ArgsAsIs, "{r}.values().sum::<{int}>()"),
	},

	RecvDeque: {
		"append":     mutating(ResultUnit, ArgsOwned, "", "{r}.push_back({0})"),
		"appendleft": mutating(ResultUnit, ArgsOwned, "", "{r}.push_front({0})"),
		"pop":        mutating(ResultElem, ArgsAsIs, `{r}.pop_back().expect("pop from an empty deque")`),
		"popleft":    mutating(ResultElem, ArgsAsIs, `{r}.pop_front().expect("pop from an empty deque")`),
		"extend":     mutating(ResultUnit, ArgsAsIs, "", "{r}.extend({0}.iter().cloned())"),
		"clear":      mutating(ResultUnit, ArgsAsIs, "{r}.clear()"),
	},
}

// fallbacks lists where a receiver kind borrows rules from
var fallbacks = map[ReceiverKind][]ReceiverKind{
	RecvCounter:     {RecvDict},
	RecvDefaultDict: {RecvDict},
	RecvOrderedDict: {RecvDict},
	RecvDict:        {RecvCounter},
}

// Method looks up the rule for (kind, name). Unknown receivers search the
// string, list, dict and set tables in that order.
func Method(kind ReceiverKind, name string) (MethodRule, bool) {
	if kind == RecvUnknown {
		for _, k := range []ReceiverKind{RecvString, RecvList, RecvDict, RecvSet} {
			if m, ok := methods[k][name]; ok {
				return m, true
			}
		}
		return MethodRule{}, false
	}
	if m, ok := methods[kind][name]; ok {
		return m, true
	}
	for _, k := range fallbacks[kind] {
		if m, ok := methods[k][name]; ok {
			return m, true
		}
	}
	return MethodRule{}, false
}

var mutatingNames = map[string]bool{
	"append": true, "extend": true, "insert": true, "pop": true, "remove": true,
	"clear": true, "sort": true, "reverse": true, "update": true, "setdefault": true,
	"add": true, "discard": true, "popleft": true, "appendleft": true,
	"__setitem__": true, "write": true, "read": true, "readlines": true,
}

// IsMutatingMethod reports whether calling name on a receiver may mutate it
func IsMutatingMethod(name string) bool {
	return mutatingNames[name]
}

// ReceiverKindOf maps a HIR type to its receiver kind
func ReceiverKindOf(t *hir.Type) ReceiverKind {
	if t == nil {
		return RecvUnknown
	}
	switch t.Kind {
	case hir.KindString:
		return RecvString
	case hir.KindList, hir.KindTuple:
		return RecvList
	case hir.KindDict:
		return RecvDict
	case hir.KindSet:
		return RecvSet
	case hir.KindBytes:
		return RecvBytes
	case hir.KindOptional:
		return ReceiverKindOf(t.Elem())
	case hir.KindGeneric:
		if t.Name == "VecDeque" {
			return RecvDeque
		}
	case hir.KindCustom:
		switch t.Name {
		case "File", "TextIO", "IO", "BinaryIO":
			return RecvFile
		case "Counter":
			return RecvCounter
		case "defaultdict":
			return RecvDefaultDict
		case "OrderedDict":
			return RecvOrderedDict
		}
	}
	return RecvUnknown
}
