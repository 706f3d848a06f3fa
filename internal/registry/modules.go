package registry

import "github.com/paiml/depyler-sub010/internal/hir"

var (
	tInt    = hir.TypeInt
	tFloat  = hir.TypeFloat
	tBool   = hir.TypeBool
	tStr    = hir.TypeString
	tNone   = hir.TypeNone
	tStrs   = hir.ListOf(hir.TypeString)
	tAny    = hir.TypeUnknown
	tOptStr = hir.OptionalOf(hir.TypeString)
)

const regexNew = `regex::Regex::new({0}).expect("invalid regex")`

func init() {
	module("math", "std::f64", "",
		fn("sqrt", tFloat, "", "({0} as f64).sqrt()"),
		fn("sin", tFloat, "", "({0} as f64).sin()"),
		fn("cos", tFloat, "", "({0} as f64).cos()"),
		fn("tan", tFloat, "", "({0} as f64).tan()"),
		fn("exp", tFloat, "", "({0} as f64).exp()"),
		fn("log", tFloat, "", "({0} as f64).ln()", "({0} as f64).log({1} as f64)"),
		fn("log10", tFloat, "", "({0} as f64).log10()"),
		fn("log2", tFloat, "", "({0} as f64).log2()"),
		fn("fabs", tFloat, "", "({0} as f64).abs()"),
		fn("floor", tInt, "", "({0} as f64).floor() as {int}"),
		fn("ceil", tInt, "", "({0} as f64).ceil() as {int}"),
		fn("trunc", tInt, "", "({0} as f64).trunc() as {int}"),
		fn("pow", tFloat, "", "", "({0} as f64).powf({1} as f64)"),
		fn("hypot", tFloat, "", "", "({0} as f64).hypot({1} as f64)"),
		fn("isqrt", tInt, "", "(({0} as f64).sqrt() as {int})"),
		fn("isnan", tBool, "", "({0} as f64).is_nan()"),
		fn("isinf", tBool, "", "({0} as f64).is_infinite()"),
		fn("gcd", tInt, "", "", "{ let (mut _a, mut _b) = (({0} as {int}).abs(), ({1} as {int}).abs()); while _b != 0 { let _t = _b; _b = _a % _b; _a = _t; } _a }"),
		constant("pi", tFloat, "std::f64::consts::PI"),
		constant("e", tFloat, "std::f64::consts::E"),
		constant("tau", tFloat, "std::f64::consts::TAU"),
		constant("inf", tFloat, "f64::INFINITY"),
		constant("nan", tFloat, "f64::NAN"),
	)

	module("sys", "std", "",
		constant("argv", tStrs, "std::env::args().collect::<Vec<String>>()"),
		fn("exit", tNone, "std::process::exit(0)", "std::process::exit({0} as i32)"),
		constant("maxsize", tInt, "{int}::MAX"),
	)

	module("os", "std", "",
		fn("getcwd", tStr, `std::env::current_dir().expect("current directory").to_string_lossy().to_string()`),
		fn("getenv", tOptStr, "", "std::env::var({0}).ok()", "std::env::var({0}).unwrap_or_else(|_| {1}.to_string())"),
		fn("listdir", tStrs, "", `std::fs::read_dir({0}).expect("read_dir failed").map(|e| e.expect("dir entry").file_name().to_string_lossy().to_string()).collect::<Vec<String>>()`),
		fn("remove", tNone, "", `std::fs::remove_file({0}).expect("remove failed")`),
		fn("makedirs", tNone, "", `std::fs::create_dir_all({0}).expect("makedirs failed")`),
	)

	module("os.path", "std::path", "",
		fn("join", tStr, "", "", "std::path::Path::new({0}).join({1}).to_string_lossy().to_string()"),
		fn("exists", tBool, "", "std::path::Path::new({0}).exists()"),
		fn("isfile", tBool, "", "std::path::Path::new({0}).is_file()"),
		fn("isdir", tBool, "", "std::path::Path::new({0}).is_dir()"),
		fn("basename", tStr, "", `std::path::Path::new({0}).file_name().map(|s| s.to_string_lossy().to_string()).unwrap_or_default()`),
		fn("dirname", tStr, "", `std::path::Path::new({0}).parent().map(|p| p.to_string_lossy().to_string()).unwrap_or_default()`),
		fn("abspath", tStr, "", `std::fs::canonicalize({0}).map(|p| p.to_string_lossy().to_string()).unwrap_or_else(|_| {0}.to_string())`),
	)

	module("json", "serde_json", "serde_json",
		fn("loads", tAny, "", `serde_json::from_str::<serde_json::Value>({0}).expect("invalid JSON")`),
		fn("dumps", tStr, "", `serde_json::to_string(&{0}).expect("JSON serialization failed")`),
	)

	module("re", "regex", "regex",
		typ("Pattern", "regex::Regex", Constructor{Pattern: ConstructMethod, Method: "new"}),
		fn("compile", hir.CustomType("Pattern"), "", regexNew),
		fn("search", tOptStr, "", "", regexNew+".find({1}).map(|m| m.as_str().to_string())"),
		fn("match", tOptStr, "", "", `regex::Regex::new(&format!("^(?:{})", {0})).expect("invalid regex").find({1}).map(|m| m.as_str().to_string())`),
		fn("fullmatch", tBool, "", "", `regex::Regex::new(&format!("^(?:{})$", {0})).expect("invalid regex").is_match({1})`),
		fn("findall", tStrs, "", "", regexNew+".find_iter({1}).map(|m| m.as_str().to_string()).collect::<Vec<String>>()"),
		fn("sub", tStr, "", "", "", regexNew+".replace_all({2}, {1}).to_string()"),
		fn("split", tStrs, "", "", regexNew+".split({1}).map(|s| s.to_string()).collect::<Vec<String>>()"),
		fn("escape", tStr, "", "regex::escape({0})"),
	)

	module("random", "rand", "rand",
		fn("random", tFloat, "rand::random::<f64>()"),
		fn("randint", tInt, "", "", "rand::Rng::gen_range(&mut rand::thread_rng(), {0}..={1})"),
		fn("randrange", tInt, "", "rand::Rng::gen_range(&mut rand::thread_rng(), 0..{0})", "rand::Rng::gen_range(&mut rand::thread_rng(), {0}..{1})"),
		fn("uniform", tFloat, "", "", "rand::Rng::gen_range(&mut rand::thread_rng(), ({0} as f64)..({1} as f64))"),
		fn("choice", tAny, "", `rand::seq::SliceRandom::choose({0}.as_slice(), &mut rand::thread_rng()).cloned().expect("cannot choose from an empty sequence")`),
		fn("shuffle", tNone, "", "rand::seq::SliceRandom::shuffle({0}.as_mut_slice(), &mut rand::thread_rng())"),
		fn("seed", tNone, "", "let _ = {0}"),
	)

	module("datetime", "chrono", "chrono",
		typ("datetime", "chrono::NaiveDateTime", Constructor{Pattern: ConstructMethod, Method: "default"}),
		typ("date", "chrono::NaiveDate", Constructor{Pattern: ConstructMethod, Method: "from_ymd_opt"}),
		typ("timedelta", "chrono::Duration", Constructor{Pattern: ConstructMethod, Method: "seconds"}),
		fn("datetime.now", hir.CustomType("datetime"), "chrono::Local::now().naive_local()"),
		fn("date.today", hir.CustomType("date"), "chrono::Local::now().date_naive()"),
	)

	module("time", "std::time", "",
		fn("time", tFloat, `std::time::SystemTime::now().duration_since(std::time::UNIX_EPOCH).expect("system clock").as_secs_f64()`),
		fn("sleep", tNone, "", "std::thread::sleep(std::time::Duration::from_secs_f64({0} as f64))"),
		fn("perf_counter", tFloat, `std::time::SystemTime::now().duration_since(std::time::UNIX_EPOCH).expect("system clock").as_secs_f64()`),
	)

	module("hashlib", "sha2", "sha2",
		fn("sha256", tStr, "", `{ use sha2::Digest; format!("{:x}", sha2::Sha256::digest({0})) }`),
		fn("sha512", tStr, "", `{ use sha2::Digest; format!("{:x}", sha2::Sha512::digest({0})) }`),
	)

	module("itertools", "itertools", "itertools",
		fn("chain", hir.ListOf(nil), "", "", "{0}.iter().chain({1}.iter()).cloned().collect::<Vec<_>>()"),
		fn("combinations", hir.ListOf(hir.ListOf(nil)), "", "", "itertools::Itertools::combinations({0}.iter().cloned(), {1} as usize).collect::<Vec<_>>()"),
		fn("permutations", hir.ListOf(hir.ListOf(nil)), "", "itertools::Itertools::permutations({0}.iter().cloned(), {0}.len()).collect::<Vec<_>>()", "itertools::Itertools::permutations({0}.iter().cloned(), {1} as usize).collect::<Vec<_>>()"),
		fn("product", hir.ListOf(hir.TupleOf()), "", "", "itertools::iproduct!({0}.iter().cloned(), {1}.iter().cloned()).collect::<Vec<_>>()"),
	)

	module("functools", "std", "",
		fn("reduce", tAny, "", "", `{1}.iter().cloned().reduce({0}).expect("reduce() of empty iterable")`, "{1}.iter().cloned().fold({2}, {0})"),
	)

	// consumed by the class lowering; the entries only resolve the imports
	module("dataclasses", "std", "",
		fn("dataclass", tNone),
		fn("field", tAny),
	)

	module("string", "std", "",
		constant("ascii_lowercase", tStr, `"abcdefghijklmnopqrstuvwxyz"`),
		constant("ascii_uppercase", tStr, `"ABCDEFGHIJKLMNOPQRSTUVWXYZ"`),
		constant("ascii_letters", tStr, `"abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"`),
		constant("digits", tStr, `"0123456789"`),
		constant("punctuation", tStr, `"!\"#$%&'()*+,-./:;<=>?@[\\]^_`+"`"+`{|}~"`),
	)

	counter := typ("Counter", "std::collections::HashMap", Constructor{Pattern: ConstructNew},
		"HashMap::new()",
		"{0}.iter().fold(HashMap::new(), |mut _m, _x| { *_m.entry(_x.clone()).or_insert(0) += 1; _m })")
	counter.Result = hir.DictOf(nil, hir.TypeInt)
	counter.Needs = []string{"hashmap"}

	defaultdict := typ("defaultdict", "std::collections::HashMap", Constructor{Pattern: ConstructNew}, "HashMap::new()", "HashMap::new()")
	defaultdict.Result = hir.DictOf(nil, nil)
	defaultdict.Needs = []string{"hashmap"}

	ordered := typ("OrderedDict", "std::collections::HashMap", Constructor{Pattern: ConstructNew}, "HashMap::new()", "{0}.into_iter().collect::<HashMap<_, _>>()")
	ordered.Result = hir.DictOf(nil, nil)
	ordered.Needs = []string{"hashmap"}

	deque := typ("deque", "std::collections::VecDeque", Constructor{Pattern: ConstructNew}, "VecDeque::new()", "{0}.iter().cloned().collect::<VecDeque<_>>()")
	deque.Result = hir.GenericType("VecDeque", hir.TypeUnknown)
	deque.Needs = []string{"vecdeque"}

	module("collections", "std::collections", "", counter, defaultdict, ordered, deque)

	module("pathlib", "std::path", "",
		typ("Path", "std::path::PathBuf", Constructor{Pattern: ConstructMethod, Method: "from"}, "", "std::path::PathBuf::from({0})"),
	)

	module("argparse", "clap", "clap",
		typ("ArgumentParser", "clap::Command", Constructor{Pattern: ConstructNew}),
	)

	module("io", "std::io", "",
		typ("StringIO", "std::io::Cursor", Constructor{Pattern: ConstructNew}, "std::io::Cursor::new(Vec::new())"),
	)
}
