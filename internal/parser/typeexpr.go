package parser

import "github.com/rtfs-lang/rtfs/internal/ast"

// parseTypeExpr reads a surface type annotation. Primitive and nullary types
// are bare keywords (":int", ":any"); everything else is a bracketed form
// headed by its constructor keyword (":vector", ":map", ":->", ":resource",
// ":or", ":and", ":val"). A bare symbol is a reference into the
// compilation context's type-alias table.
func (p *Parser) parseTypeExpr() (ast.TypeExpr, error) {
	t := p.cur()
	switch t.Kind {
	case TokKeyword:
		p.advance()
		pos := p.pos2(t)
		switch t.Text {
		case "int":
			return &ast.PrimitiveType{Kind: ast.TInt, Pos: pos}, nil
		case "float":
			return &ast.PrimitiveType{Kind: ast.TFloat, Pos: pos}, nil
		case "string":
			return &ast.PrimitiveType{Kind: ast.TString, Pos: pos}, nil
		case "bool":
			return &ast.PrimitiveType{Kind: ast.TBool, Pos: pos}, nil
		case "nil":
			return &ast.PrimitiveType{Kind: ast.TNil, Pos: pos}, nil
		case "keyword":
			return &ast.PrimitiveType{Kind: ast.TKeyword, Pos: pos}, nil
		case "symbol":
			return &ast.PrimitiveType{Kind: ast.TSymbol, Pos: pos}, nil
		case "any":
			return &ast.AnyType{Pos: pos}, nil
		case "never":
			return &ast.NeverType{Pos: pos}, nil
		default:
			return nil, p.errf("unknown primitive type %q", t.Text)
		}
	case TokSymbol:
		p.advance()
		return &ast.AliasType{Name: t.Text, Pos: p.pos2(t)}, nil
	case TokLBracket:
		return p.parseBracketType()
	default:
		return nil, p.errf("expected a type expression, got %q", t.Text)
	}
}

func (p *Parser) parseBracketType() (ast.TypeExpr, error) {
	open := p.advance() // [
	pos := p.pos2(open)
	kwTok, err := p.expect(TokKeyword, "type constructor keyword")
	if err != nil {
		return nil, err
	}
	switch kwTok.Text {
	case "vector":
		elem, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRBracket, "]"); err != nil {
			return nil, err
		}
		return &ast.VectorType{Element: elem, Pos: pos}, nil

	case "map":
		var entries []ast.MapTypeEntry
		var wildcard ast.TypeExpr
		for p.cur().Kind != TokRBracket {
			if _, err := p.expect(TokLBracket, "["); err != nil {
				return nil, err
			}
			if p.cur().Kind == TokKeyword && p.cur().Text == "*" {
				p.advance()
				wt, err := p.parseTypeExpr()
				if err != nil {
					return nil, err
				}
				wildcard = wt
				if _, err := p.expect(TokRBracket, "]"); err != nil {
					return nil, err
				}
				continue
			}
			keyTok, err := p.expect(TokKeyword, "map type entry key")
			if err != nil {
				return nil, err
			}
			vt, err := p.parseTypeExpr()
			if err != nil {
				return nil, err
			}
			optional := false
			if p.cur().Kind == TokKeyword && p.cur().Text == "optional" {
				p.advance()
				optional = true
			}
			if _, err := p.expect(TokRBracket, "]"); err != nil {
				return nil, err
			}
			entries = append(entries, ast.MapTypeEntry{Key: keyTok.Text, Value: vt, Optional: optional})
		}
		p.advance() // ]
		return &ast.MapType{Entries: entries, Wildcard: wildcard, Pos: pos}, nil

	case "->":
		if _, err := p.expect(TokLBracket, "["); err != nil {
			return nil, err
		}
		var params []ast.TypeExpr
		var variadic ast.TypeExpr
		for p.cur().Kind != TokRBracket {
			if p.cur().Kind == TokAmp {
				p.advance()
				vt, err := p.parseTypeExpr()
				if err != nil {
					return nil, err
				}
				variadic = vt
				continue
			}
			pt, err := p.parseTypeExpr()
			if err != nil {
				return nil, err
			}
			params = append(params, pt)
		}
		p.advance() // ]
		ret, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRBracket, "]"); err != nil {
			return nil, err
		}
		return &ast.FunctionType{Params: params, VariadicTail: variadic, Return: ret, Pos: pos}, nil

	case "resource":
		tagTok, err := p.expect(TokSymbol, "resource type tag")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRBracket, "]"); err != nil {
			return nil, err
		}
		return &ast.ResourceType{Tag: tagTok.Text, Pos: pos}, nil

	case "or":
		var opts []ast.TypeExpr
		for p.cur().Kind != TokRBracket {
			o, err := p.parseTypeExpr()
			if err != nil {
				return nil, err
			}
			opts = append(opts, o)
		}
		p.advance()
		return &ast.UnionType{Options: opts, Pos: pos}, nil

	case "and":
		var opts []ast.TypeExpr
		for p.cur().Kind != TokRBracket {
			o, err := p.parseTypeExpr()
			if err != nil {
				return nil, err
			}
			opts = append(opts, o)
		}
		p.advance()
		return &ast.IntersectionType{Options: opts, Pos: pos}, nil

	case "val":
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		lit, ok := e.(*ast.Literal)
		if !ok {
			return nil, p.errf("[:val ...] requires a literal value")
		}
		if _, err := p.expect(TokRBracket, "]"); err != nil {
			return nil, err
		}
		return &ast.LiteralType{Value: lit.Value, Pos: pos}, nil

	default:
		return nil, p.errf("unknown type constructor %q", kwTok.Text)
	}
}
