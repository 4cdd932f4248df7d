// Command sqllint checks that every inline SQL constant starts with a
// "--sql <uuid>" marker and that no marker is reused. The marker shows up in
// Postgres logs and lets a slow statement be traced back to its constant.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var sqlKeyword = regexp.MustCompile(`(?i)\b(select|insert|update|delete|with|create|alter|drop)\b`)

type violation struct {
	pos     token.Position
	name    string
	message string
}

func (v violation) String() string {
	return fmt.Sprintf("%s:%d %s (%s)", v.pos.Filename, v.pos.Line, v.message, v.name)
}

type linter struct {
	fset *token.FileSet
	seen map[uuid.UUID]token.Position
}

func newLinter() *linter {
	return &linter{fset: token.NewFileSet(), seen: map[uuid.UUID]token.Position{}}
}

func main() {
	flag.Parse()
	targets := flag.Args()
	if len(targets) == 0 {
		targets = []string{"internal/sqlinline"}
	}

	l := newLinter()
	var violations []violation
	for _, target := range targets {
		vs, err := l.lintPath(target)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sqllint: %v\n", err)
			os.Exit(1)
		}
		violations = append(violations, vs...)
	}

	if len(violations) > 0 {
		fmt.Fprintln(os.Stderr, "sqllint: SQL marker problems")
		for _, v := range violations {
			fmt.Fprintln(os.Stderr, "  "+v.String())
		}
		os.Exit(1)
	}
}

func (l *linter) lintPath(target string) ([]violation, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if filepath.Ext(target) != ".go" {
			return nil, nil
		}
		return l.lintFile(target)
	}
	var out []violation
	err = filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != target && (strings.HasPrefix(d.Name(), ".") || strings.HasPrefix(d.Name(), "_") || d.Name() == "vendor") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		vs, err := l.lintFile(path)
		out = append(out, vs...)
		return err
	})
	return out, err
}

func (l *linter) lintFile(path string) ([]violation, error) {
	file, err := parser.ParseFile(l.fset, path, nil, parser.ParseComments)
	if err != nil {
		return nil, err
	}
	var out []violation
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.CONST {
			continue
		}
		for _, spec := range gen.Specs {
			vs := spec.(*ast.ValueSpec)
			for i, value := range vs.Values {
				lit, ok := value.(*ast.BasicLit)
				if !ok || lit.Kind != token.STRING {
					continue
				}
				raw, err := strconv.Unquote(lit.Value)
				if err != nil || !sqlKeyword.MatchString(raw) {
					continue
				}
				name := "_"
				if i < len(vs.Names) {
					name = vs.Names[i].Name
				}
				if v, bad := l.checkMarker(raw, lit.Pos(), name); bad {
					out = append(out, v)
				}
			}
		}
	}
	return out, nil
}

func (l *linter) checkMarker(raw string, at token.Pos, name string) (violation, bool) {
	pos := l.fset.Position(at)
	marker, ok := strings.CutPrefix(firstLine(raw), "--sql ")
	if !ok {
		return violation{pos: pos, name: name, message: "missing --sql <uuid> marker"}, true
	}
	id, err := uuid.Parse(strings.TrimSpace(marker))
	if err != nil {
		return violation{pos: pos, name: name, message: "invalid marker uuid"}, true
	}
	if prev, dup := l.seen[id]; dup {
		return violation{pos: pos, name: name, message: fmt.Sprintf("marker already used at %s:%d", prev.Filename, prev.Line)}, true
	}
	l.seen[id] = pos
	return violation{}, false
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, "\n\r \t")
	if idx := strings.IndexAny(s, "\n\r"); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}
