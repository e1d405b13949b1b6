package aggregate

// languageColors is a fixed compile-time mapping from canonical language
// name to a 7-character hex color, modeled on GitHub's linguist palette.
// Anything missing here resolves to the fallback gray.
var languageColors = map[string]string{
	"JavaScript":       "#f1e05a",
	"TypeScript":       "#3178c6",
	"Python":           "#3572A5",
	"Java":             "#b07219",
	"Go":               "#00ADD8",
	"Ruby":             "#701516",
	"C":                "#555555",
	"C++":              "#f34b7d",
	"C#":               "#178600",
	"PHP":              "#4F5D95",
	"Swift":            "#F05138",
	"Kotlin":           "#A97BFF",
	"Rust":             "#dea584",
	"Scala":            "#c22d40",
	"Shell":            "#89e051",
	"PowerShell":       "#012456",
	"HTML":             "#e34c26",
	"CSS":              "#563d7c",
	"SCSS":             "#c6538c",
	"Vue":              "#41b883",
	"Dart":             "#00B4AB",
	"Elixir":           "#6e4a7e",
	"Erlang":           "#B83998",
	"Haskell":          "#5e5086",
	"Clojure":          "#db5855",
	"Lua":              "#000080",
	"Perl":             "#0298c3",
	"R":                "#198CE7",
	"Objective-C":      "#438eff",
	"MATLAB":           "#e16737",
	"Groovy":           "#4298b8",
	"Julia":            "#a270ba",
	"Elm":              "#60B5CC",
	"OCaml":            "#3be133",
	"F#":               "#b845fc",
	"Nim":              "#ffc200",
	"Zig":              "#ec915c",
	"Crystal":          "#000100",
	"Vim Script":       "#199f4b",
	"Emacs Lisp":       "#c065db",
	"Common Lisp":      "#3fb68b",
	"Scheme":           "#1e4aec",
	"Assembly":         "#6E4C13",
	"Makefile":         "#427819",
	"Dockerfile":       "#384d54",
	"CMake":            "#DA3434",
	"Batchfile":        "#C1F12E",
	"Jupyter Notebook": "#DA5B0B",
	"TeX":              "#3D6117",
	"Solidity":         "#AA6746",
	"GraphQL":          "#e10098",
	"Protocol Buffer":  "#3a7bc8",
	"YAML":             "#cb171e",
	"JSON":             "#292929",
	"Markdown":         "#083fa1",
	"SQL":              "#e38c00",
	"Svelte":           "#ff3e00",
	"Nix":              "#7e7eff",
	"Hack":             "#878787",
	"Pascal":           "#E3F171",
	"Fortran":          "#4d41b1",
	"COBOL":            "#867db1",
	"Ada":              "#02f88c",
	"Prolog":           "#74283c",
	"ShaderLab":        "#222c37",
}
