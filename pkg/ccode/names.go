package ccode

import "regexp"

var (
	identifierPattern    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	componentNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)
)

var keywords = map[string]bool{
	"auto": true, "bool": true, "break": true, "case": true, "char": true,
	"class": true, "const": true, "continue": true, "default": true,
	"delete": true, "do": true, "double": true, "else": true, "enum": true,
	"extern": true, "false": true, "float": true, "for": true, "goto": true,
	"if": true, "inline": true, "int": true, "long": true, "namespace": true,
	"new": true, "private": true, "public": true, "real": true,
	"register": true, "return": true, "short": true, "signed": true,
	"sizeof": true, "static": true, "struct": true, "switch": true,
	"template": true, "this": true, "true": true, "typedef": true,
	"union": true, "unsigned": true, "using": true, "virtual": true,
	"void": true, "volatile": true, "while": true,
}

// IsIdentifier reports whether s is a usable C/C++ identifier that is not a
// keyword (or the emitted "real" typedef).
func IsIdentifier(s string) bool {
	return identifierPattern.MatchString(s) && !keywords[s]
}

// IsComponentName reports whether s can name a component. Component names
// carry no underscore so that Suffix stays injective: the owner of a mangled
// identifier is always the text after its last underscore.
func IsComponentName(s string) bool {
	return componentNamePattern.MatchString(s) && !keywords[s]
}

// Suffix mangles a component-local variable name with its owner's name.
func Suffix(name, owner string) string {
	return name + "_" + owner
}
