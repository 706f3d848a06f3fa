package rustgen

import (
	"strings"

	"github.com/paiml/depyler-sub010/internal/genctx"
	"github.com/paiml/depyler-sub010/internal/rustast"
)

// preamble emits the use declarations and runtime helpers the generated
// items asked for. It runs after every item is generated.
func (g *generator) preamble() []rustast.Item {
	ctx := g.ctx
	var items []rustast.Item
	for _, u := range []struct {
		flag genctx.Flag
		path string
	}{
		{genctx.NeedHashMap, "std::collections::HashMap"},
		{genctx.NeedHashSet, "std::collections::HashSet"},
		{genctx.NeedVecDeque, "std::collections::VecDeque"},
		{genctx.NeedClap, "clap::Parser"},
	} {
		if ctx.Needs(u.flag) {
			items = append(items, &rustast.Use{Path: u.path})
		}
	}
	if ctx.Needs(genctx.NeedErrorType) || len(ctx.ErrorVariants()) > 0 {
		items = append(items, g.errorType()...)
	}
	if ctx.Needs(genctx.NeedDepylerValue) {
		items = append(items, depylerValue(ctx.Needs(genctx.NeedSerdeJSON))...)
	}
	if ctx.Needs(genctx.NeedTruthy) {
		items = append(items, &rustast.RawItem{Text: truthy(ctx.Needs(genctx.NeedDepylerValue))})
	}
	if ctx.Needs(genctx.NeedFloorDiv) {
		items = append(items, &rustast.RawItem{Text: strings.ReplaceAll(floorDiv, "INT", ctx.IntType)})
	}
	if ctx.Needs(genctx.NeedPyMod) {
		items = append(items, &rustast.RawItem{Text: strings.ReplaceAll(pyMod, "INT", ctx.IntType)})
	}
	if ctx.Needs(genctx.NeedPyRange) {
		items = append(items, &rustast.RawItem{Text: strings.ReplaceAll(pyRange, "INT", ctx.IntType)})
	}
	return items
}

// errorType emits DepylerError with one variant per raised or caught
// exception class
func (g *generator) errorType() []rustast.Item {
	variants := g.ctx.ErrorVariants()
	if len(variants) == 0 {
		variants = []string{"Exception"}
	}
	enum := &rustast.Enum{
		Doc:   "Errors raised by the translated program, one variant per exception class.",
		Attrs: []string{"derive(Debug, Clone, PartialEq)"},
		Pub:   true,
		Name:  "DepylerError",
	}
	var arms []string
	for _, v := range variants {
		enum.Variants = append(enum.Variants, rustast.Variant{Name: v, Fields: []rustast.Type{rustast.Named("String")}})
		arms = append(arms, "            DepylerError::"+v+"(msg) => write!(f, \""+v+": {}\", msg),")
	}
	display := &rustast.RawItem{Text: "impl std::fmt::Display for DepylerError {\n" +
		"    fn fmt(&self, f: &mut std::fmt::Formatter<'_>) -> std::fmt::Result {\n" +
		"        match self {\n" + strings.Join(arms, "\n") + "\n        }\n    }\n}"}
	return []rustast.Item{enum, display, &rustast.RawItem{Text: "impl std::error::Error for DepylerError {}"}}
}

func depylerValue(serde bool) []rustast.Item {
	items := []rustast.Item{&rustast.RawItem{Text: `/// A value whose Python type could not be inferred.
#[derive(Debug, Clone, PartialEq, Default)]
pub enum DepylerValue {
    #[default]
    None,
    Bool(bool),
    Int(i64),
    Float(f64),
    Str(String),
    List(Vec<DepylerValue>),
    Dict(std::collections::HashMap<String, DepylerValue>),
}

impl std::fmt::Display for DepylerValue {
    fn fmt(&self, f: &mut std::fmt::Formatter<'_>) -> std::fmt::Result {
        match self {
            DepylerValue::None => write!(f, "None"),
            DepylerValue::Bool(b) => write!(f, "{}", if *b { "True" } else { "False" }),
            DepylerValue::Int(i) => write!(f, "{}", i),
            DepylerValue::Float(x) => write!(f, "{:?}", x),
            DepylerValue::Str(s) => write!(f, "{}", s),
            DepylerValue::List(items) => write!(f, "{:?}", items),
            DepylerValue::Dict(map) => write!(f, "{:?}", map),
        }
    }
}`}}
	items = append(items, &rustast.RawItem{Text: depylerValueFrom})
	if serde {
		items = append(items, &rustast.RawItem{Text: `impl From<serde_json::Value> for DepylerValue {
    fn from(v: serde_json::Value) -> Self {
        match v {
            serde_json::Value::Null => DepylerValue::None,
            serde_json::Value::Bool(b) => DepylerValue::Bool(b),
            serde_json::Value::Number(n) => match n.as_i64() {
                Some(i) => DepylerValue::Int(i),
                None => DepylerValue::Float(n.as_f64().unwrap_or(f64::NAN)),
            },
            serde_json::Value::String(s) => DepylerValue::Str(s),
            serde_json::Value::Array(a) => DepylerValue::List(a.into_iter().map(DepylerValue::from).collect()),
            serde_json::Value::Object(o) => DepylerValue::Dict(o.into_iter().map(|(k, v)| (k, DepylerValue::from(v))).collect()),
        }
    }
}`})
	}
	return items
}

// depylerValueFrom converts the element values a heterogeneous literal can
// hold
const depylerValueFrom = `impl From<bool> for DepylerValue {
    fn from(v: bool) -> Self {
        DepylerValue::Bool(v)
    }
}

impl From<i32> for DepylerValue {
    fn from(v: i32) -> Self {
        DepylerValue::Int(v as i64)
    }
}

impl From<i64> for DepylerValue {
    fn from(v: i64) -> Self {
        DepylerValue::Int(v)
    }
}

impl From<f64> for DepylerValue {
    fn from(v: f64) -> Self {
        DepylerValue::Float(v)
    }
}

impl From<String> for DepylerValue {
    fn from(v: String) -> Self {
        DepylerValue::Str(v)
    }
}

impl From<&str> for DepylerValue {
    fn from(v: &str) -> Self {
        DepylerValue::Str(v.to_string())
    }
}

impl<T: Into<DepylerValue>> From<Vec<T>> for DepylerValue {
    fn from(v: Vec<T>) -> Self {
        DepylerValue::List(v.into_iter().map(Into::into).collect())
    }
}

impl<T: Into<DepylerValue>> From<Option<T>> for DepylerValue {
    fn from(v: Option<T>) -> Self {
        v.map(Into::into).unwrap_or(DepylerValue::None)
    }
}

impl From<()> for DepylerValue {
    fn from(_: ()) -> Self {
        DepylerValue::None
    }
}`

func truthy(value bool) string {
	var sb strings.Builder
	sb.WriteString(`/// Python truthiness for values whose type is only known at run time.
pub trait Truthy {
    fn is_truthy(&self) -> bool;
}

impl Truthy for bool {
    fn is_truthy(&self) -> bool {
        *self
    }
}

impl Truthy for f64 {
    fn is_truthy(&self) -> bool {
        *self != 0.0
    }
}

impl Truthy for str {
    fn is_truthy(&self) -> bool {
        !self.is_empty()
    }
}

impl Truthy for String {
    fn is_truthy(&self) -> bool {
        !self.is_empty()
    }
}

impl<T> Truthy for Vec<T> {
    fn is_truthy(&self) -> bool {
        !self.is_empty()
    }
}

impl<K, V> Truthy for std::collections::HashMap<K, V> {
    fn is_truthy(&self) -> bool {
        !self.is_empty()
    }
}

impl<T> Truthy for std::collections::HashSet<T> {
    fn is_truthy(&self) -> bool {
        !self.is_empty()
    }
}

impl<T> Truthy for Option<T> {
    fn is_truthy(&self) -> bool {
        self.is_some()
    }
}

impl<T: Truthy + ?Sized> Truthy for &T {
    fn is_truthy(&self) -> bool {
        (**self).is_truthy()
    }
}
`)
	for _, t := range []string{"i32", "i64", "u8", "usize"} {
		sb.WriteString("\nimpl Truthy for " + t + " {\n    fn is_truthy(&self) -> bool {\n        *self != 0\n    }\n}\n")
	}
	if value {
		sb.WriteString(`
impl Truthy for DepylerValue {
    fn is_truthy(&self) -> bool {
        match self {
            DepylerValue::None => false,
            DepylerValue::Bool(b) => *b,
            DepylerValue::Int(i) => *i != 0,
            DepylerValue::Float(x) => *x != 0.0,
            DepylerValue::Str(s) => !s.is_empty(),
            DepylerValue::List(items) => !items.is_empty(),
            DepylerValue::Dict(map) => !map.is_empty(),
        }
    }
}
`)
	}
	sb.WriteString(`
pub fn is_truthy<T: Truthy + ?Sized>(x: &T) -> bool {
    x.is_truthy()
}`)
	return sb.String()
}

const floorDiv = `/// Integer division rounding toward negative infinity.
pub fn py_floor_div(a: INT, b: INT) -> INT {
    let q = a / b;
    if (a % b != 0) && ((a < 0) != (b < 0)) {
        q - 1
    } else {
        q
    }
}`

const pyMod = `/// Remainder with the sign of the divisor.
pub fn py_mod(a: INT, b: INT) -> INT {
    let r = a % b;
    if r != 0 && ((r < 0) != (b < 0)) {
        r + b
    } else {
        r
    }
}`

const pyRange = `/// range() with a step only known at run time.
pub fn py_range(start: INT, stop: INT, step: INT) -> impl Iterator<Item = INT> {
    assert!(step != 0, "range() arg 3 must not be zero");
    let mut i = start;
    std::iter::from_fn(move || {
        if (step > 0 && i < stop) || (step < 0 && i > stop) {
            let v = i;
            i += step;
            Some(v)
        } else {
            None
        }
    })
}`
