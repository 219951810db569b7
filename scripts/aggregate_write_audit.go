package main

import (
	"encoding/json"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"

	domainagg "github.com/yungbote/leancanvas-backend/internal/domain/aggregates"
)

// Reports service methods that write canvas tables through a repo instead of
// the canvas aggregate. Exits 1 when any are found.
//
//	go run ./scripts/aggregate_write_audit.go [repo-root]

type repoField struct {
	Name     string `json:"name"`
	RepoType string `json:"repo_type"`
	Guarded  bool   `json:"guarded"`
}

type methodStats struct {
	StructName             string   `json:"struct_name"`
	Method                 string   `json:"method"`
	File                   string   `json:"file"`
	Line                   int      `json:"line"`
	GuardedRepoWriteCalls  int      `json:"guarded_repo_write_calls"`
	GuardedFieldsWritten   []string `json:"guarded_fields_written"`
	AggregateWriteCalls    int      `json:"aggregate_write_calls"`
	AggregateMethodsCalled []string `json:"aggregate_methods_called"`
}

type auditReport struct {
	GuardedRepoWriteCallsites int           `json:"guarded_repo_write_callsites"`
	AggregateWriteCallsites   int           `json:"aggregate_write_callsites"`
	Violations                []methodStats `json:"violations"`
	AggregateWriters          []methodStats `json:"aggregate_writers"`
	GuardedRepoFields         []repoField   `json:"guarded_repo_fields"`
}

type structFields struct {
	RepoFields      map[string]repoField
	AggregateFields map[string]string
}

// canvas is the contract whose guarded writes services must route through the aggregate.
var canvas = domainagg.CanvasAggregateContract

func main() {
	root := "."
	if len(os.Args) > 1 {
		root = os.Args[1]
	}

	servicesDir := filepath.Join(root, "internal", "services")
	fset := token.NewFileSet()
	pkgs, err := parser.ParseDir(fset, servicesDir, func(fi os.FileInfo) bool {
		name := fi.Name()
		return strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go")
	}, 0)
	if err != nil {
		exitf("parse dir: %v", err)
	}
	pkg, ok := pkgs["services"]
	if !ok {
		exitf("services package not found in %s", servicesDir)
	}

	fieldsByStruct := map[string]structFields{}
	for _, f := range pkg.Files {
		collectStructFields(f, fieldsByStruct)
	}

	var methods []methodStats
	for filePath, f := range pkg.Files {
		rel, err := filepath.Rel(root, filePath)
		if err != nil {
			rel = filePath
		}
		collectMethodStats(fset, f, rel, fieldsByStruct, &methods)
	}

	report := buildReport(fieldsByStruct, methods)
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		exitf("marshal report: %v", err)
	}
	fmt.Println(string(out))
	if len(report.Violations) > 0 {
		os.Exit(1)
	}
}

func collectStructFields(file *ast.File, out map[string]structFields) {
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, s := range gd.Specs {
			ts, ok := s.(*ast.TypeSpec)
			if !ok {
				continue
			}
			st, ok := ts.Type.(*ast.StructType)
			if !ok || st.Fields == nil {
				continue
			}
			sf := structFields{
				RepoFields:      map[string]repoField{},
				AggregateFields: map[string]string{},
			}
			for _, field := range st.Fields.List {
				sel, ok := field.Type.(*ast.SelectorExpr)
				if !ok {
					continue
				}
				pkgIdent, ok := sel.X.(*ast.Ident)
				if !ok {
					continue
				}
				typeName := sel.Sel.Name
				for _, name := range field.Names {
					switch pkgIdent.Name {
					case "repos":
						if strings.HasSuffix(typeName, "Repo") {
							sf.RepoFields[name.Name] = repoField{Name: name.Name, RepoType: typeName, Guarded: canvas.Guards(typeName)}
						}
					case "domainagg":
						if strings.HasSuffix(typeName, "Aggregate") {
							sf.AggregateFields[name.Name] = typeName
						}
					}
				}
			}
			if len(sf.RepoFields) > 0 || len(sf.AggregateFields) > 0 {
				out[ts.Name.Name] = sf
			}
		}
	}
}

func collectMethodStats(fset *token.FileSet, file *ast.File, relFile string, fieldsByStruct map[string]structFields, out *[]methodStats) {
	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Recv == nil || fd.Body == nil || len(fd.Recv.List) == 0 {
			continue
		}
		recvName, recvType := recvInfo(fd.Recv.List[0])
		if recvType == "" || recvName == "" {
			continue
		}
		sf, ok := fieldsByStruct[recvType]
		if !ok {
			continue
		}

		guardedCalls := 0
		guardedFields := map[string]bool{}
		aggCalls := 0
		aggMethods := map[string]bool{}

		ast.Inspect(fd.Body, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			fnSel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			rcvSel, ok := fnSel.X.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			baseIdent, ok := rcvSel.X.(*ast.Ident)
			if !ok || baseIdent.Name != recvName {
				return true
			}
			field, method := rcvSel.Sel.Name, fnSel.Sel.Name
			if rf, ok := sf.RepoFields[field]; ok && rf.Guarded && canvas.IsGuardedWrite(method) {
				guardedCalls++
				guardedFields[field] = true
				return true
			}
			if _, ok := sf.AggregateFields[field]; ok && canvas.IsWriteOp(method) {
				aggCalls++
				aggMethods[method] = true
			}
			return true
		})

		*out = append(*out, methodStats{
			StructName:             recvType,
			Method:                 fd.Name.Name,
			File:                   filepath.ToSlash(relFile),
			Line:                   fset.Position(fd.Pos()).Line,
			GuardedRepoWriteCalls:  guardedCalls,
			GuardedFieldsWritten:   sortedKeys(guardedFields),
			AggregateWriteCalls:    aggCalls,
			AggregateMethodsCalled: sortedKeys(aggMethods),
		})
	}
}

func buildReport(fieldsByStruct map[string]structFields, methods []methodStats) auditReport {
	sort.Slice(methods, func(i, j int) bool {
		if methods[i].File == methods[j].File {
			return methods[i].Line < methods[j].Line
		}
		return methods[i].File < methods[j].File
	})

	var report auditReport
	for _, m := range methods {
		if m.GuardedRepoWriteCalls > 0 {
			report.GuardedRepoWriteCallsites += m.GuardedRepoWriteCalls
			report.Violations = append(report.Violations, m)
		}
		if m.AggregateWriteCalls > 0 {
			report.AggregateWriteCallsites += m.AggregateWriteCalls
			report.AggregateWriters = append(report.AggregateWriters, m)
		}
	}

	keys := make([]string, 0)
	fields := map[string]repoField{}
	for structName, sf := range fieldsByStruct {
		for _, rf := range sf.RepoFields {
			if rf.Guarded {
				k := structName + "." + rf.Name
				keys = append(keys, k)
				fields[k] = rf
			}
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		report.GuardedRepoFields = append(report.GuardedRepoFields, fields[k])
	}
	return report
}

func recvInfo(field *ast.Field) (string, string) {
	if field == nil || len(field.Names) == 0 {
		return "", ""
	}
	recvName := field.Names[0].Name
	switch t := field.Type.(type) {
	case *ast.StarExpr:
		if id, ok := t.X.(*ast.Ident); ok {
			return recvName, id.Name
		}
	case *ast.Ident:
		return recvName, t.Name
	}
	return "", ""
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
