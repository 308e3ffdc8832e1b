package reactive

import (
	"memoc/internal/hir"
)

// wrapScopes groups instruction runs into Scope nodes. A scope is
// materialized only when every instruction carrying its ID forms a single
// contiguous run inside one statement list: reconstruction duplicates join
// blocks and splits ranges across control flow, and a torn scope must not
// be cached twice. Unwrapped scopes keep their reserved cache slots.
func wrapScopes(body []Statement, scopes *hir.ScopeResult) []Statement {
	if len(scopes.Scopes) == 0 {
		return body
	}

	counts := map[hir.ScopeID]int{}
	countScopeInstructions(body, counts)

	byID := map[hir.ScopeID]*hir.ReactiveScope{}
	for i := range scopes.Scopes {
		byID[scopes.Scopes[i].ID] = &scopes.Scopes[i]
	}

	return wrapStatementList(body, counts, byID)
}

func countScopeInstructions(stmts []Statement, counts map[hir.ScopeID]int) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *Instruction:
			if s.Scope != hir.NoScope {
				counts[s.Scope]++
			}
		case *If:
			countScopeInstructions(s.Consequent, counts)
			countScopeInstructions(s.Alternate, counts)
		case *While:
			countScopeInstructions(s.Body, counts)
		case *Switch:
			for _, c := range s.Cases {
				countScopeInstructions(c.Body, counts)
			}
		case *Scope:
			countScopeInstructions(s.Body, counts)
		}
	}
}

func wrapStatementList(stmts []Statement, counts map[hir.ScopeID]int, byID map[hir.ScopeID]*hir.ReactiveScope) []Statement {
	// Wrap nested lists first so a run at this level never swallows an
	// already-wrapped region.
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *If:
			s.Consequent = wrapStatementList(s.Consequent, counts, byID)
			s.Alternate = wrapStatementList(s.Alternate, counts, byID)
		case *While:
			s.Body = wrapStatementList(s.Body, counts, byID)
		case *Switch:
			for i := range s.Cases {
				s.Cases[i].Body = wrapStatementList(s.Cases[i].Body, counts, byID)
			}
		}
	}

	var out []Statement
	for i := 0; i < len(stmts); {
		instr, ok := stmts[i].(*Instruction)
		if !ok || instr.Scope == hir.NoScope {
			out = append(out, stmts[i])
			i++
			continue
		}

		scopeID := instr.Scope
		j := i
		for j < len(stmts) {
			next, ok := stmts[j].(*Instruction)
			if !ok || next.Scope != scopeID {
				break
			}
			j++
		}

		scope := byID[scopeID]
		if scope != nil && j-i == counts[scopeID] {
			node := &Scope{ID: scopeID}
			for _, dep := range scope.Dependencies {
				node.Dependencies = append(node.Dependencies, dep.Identifier)
			}
			for _, decl := range scope.Declarations {
				node.Declarations = append(node.Declarations, decl.Identifier)
			}
			node.Body = append(node.Body, stmts[i:j]...)
			out = append(out, node)
		} else {
			out = append(out, stmts[i:j]...)
		}
		i = j
	}
	return out
}
