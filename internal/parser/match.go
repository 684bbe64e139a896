package parser

import (
	"strconv"

	"github.com/rtfs-lang/rtfs/internal/ast"
)

func (p *Parser) parseMatch(pos ast.Pos) (ast.Expr, error) {
	p.advance() // match
	scrut, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	var clauses []ast.MatchClause
	for p.cur().Kind == TokLParen {
		p.advance() // (
		pat, err := p.parseMatchPattern()
		if err != nil {
			return nil, err
		}
		var guard ast.Expr
		if p.cur().Kind == TokKeyword && p.cur().Text == "when" {
			p.advance()
			guard, err = p.parseExpr()
			if err != nil {
				return nil, err
			}
		}
		body, err := p.parseExprsUntilRParen()
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, ast.MatchClause{Pattern: pat, Guard: guard, Body: body})
	}
	if _, err := p.expect(TokRParen, ")"); err != nil {
		return nil, err
	}
	return &ast.Match{Scrutinee: scrut, Clauses: clauses, Pos: pos}, nil
}

// parseMatchPattern reads the richer pattern grammar match clauses accept:
// literals, keywords, "_", plain symbols (bind), (type T), (as name pat),
// and vector/map shapes with "&rest" tails.
func (p *Parser) parseMatchPattern() (ast.MatchPattern, error) {
	t := p.cur()
	switch t.Kind {
	case TokInt:
		p.advance()
		n, err := strconv.ParseInt(t.Text, 10, 64)
		if err != nil {
			return ast.MatchPattern{}, p.errf("invalid integer literal %q", t.Text)
		}
		return ast.MatchPattern{Kind: ast.MatchLiteral, Literal: n}, nil

	case TokFloat:
		p.advance()
		f, err := strconv.ParseFloat(t.Text, 64)
		if err != nil {
			return ast.MatchPattern{}, p.errf("invalid float literal %q", t.Text)
		}
		return ast.MatchPattern{Kind: ast.MatchLiteral, Literal: f}, nil

	case TokString:
		p.advance()
		return ast.MatchPattern{Kind: ast.MatchLiteral, Literal: t.Text}, nil

	case TokKeyword:
		p.advance()
		return ast.MatchPattern{Kind: ast.MatchKeyword, Keyword: t.Text}, nil

	case TokSymbol:
		p.advance()
		switch t.Text {
		case "_":
			return ast.MatchPattern{Kind: ast.MatchWildcard}, nil
		case "true":
			return ast.MatchPattern{Kind: ast.MatchLiteral, Literal: true}, nil
		case "false":
			return ast.MatchPattern{Kind: ast.MatchLiteral, Literal: false}, nil
		case "nil":
			return ast.MatchPattern{Kind: ast.MatchLiteral, Literal: nil}, nil
		default:
			return ast.MatchPattern{Kind: ast.MatchSymbol, Symbol: t.Text}, nil
		}

	case TokLBracket:
		p.advance()
		var elems []ast.MatchPattern
		rest := ""
		for p.cur().Kind != TokRBracket {
			if p.cur().Kind == TokEOF {
				return ast.MatchPattern{}, p.errf("unterminated vector match pattern")
			}
			if p.cur().Kind == TokAmp {
				p.advance()
				nameTok, err := p.expect(TokSymbol, "rest binding name")
				if err != nil {
					return ast.MatchPattern{}, err
				}
				rest = nameTok.Text
				continue
			}
			e, err := p.parseMatchPattern()
			if err != nil {
				return ast.MatchPattern{}, err
			}
			elems = append(elems, e)
		}
		p.advance()
		return ast.MatchPattern{Kind: ast.MatchVector, Elements: elems, Rest: rest}, nil

	case TokLBrace:
		p.advance()
		var entries []ast.MatchMapEntry
		rest := ""
		for p.cur().Kind != TokRBrace {
			if p.cur().Kind == TokEOF {
				return ast.MatchPattern{}, p.errf("unterminated map match pattern")
			}
			if p.cur().Kind == TokAmp {
				p.advance()
				nameTok, err := p.expect(TokSymbol, "rest binding name")
				if err != nil {
					return ast.MatchPattern{}, err
				}
				rest = nameTok.Text
				continue
			}
			keyTok, err := p.expect(TokKeyword, "map match pattern key")
			if err != nil {
				return ast.MatchPattern{}, err
			}
			pat, err := p.parseMatchPattern()
			if err != nil {
				return ast.MatchPattern{}, err
			}
			entries = append(entries, ast.MatchMapEntry{
				Key:     ast.MapKeyLit{Kind: ast.MapKeyKeyword, Value: keyTok.Text},
				Pattern: pat,
			})
		}
		p.advance()
		return ast.MatchPattern{Kind: ast.MatchMap, MapEntries: entries, MapRest: rest}, nil

	case TokLParen:
		p.advance()
		kwTok, err := p.expect(TokSymbol, "pattern form (type ...) or (as ...)")
		if err != nil {
			return ast.MatchPattern{}, err
		}
		switch kwTok.Text {
		case "type":
			te, err := p.parseTypeExpr()
			if err != nil {
				return ast.MatchPattern{}, err
			}
			// (type T) tests only; (type T name) also binds the scrutinee.
			sym := ""
			if p.cur().Kind == TokSymbol {
				sym = p.advance().Text
			}
			if _, err := p.expect(TokRParen, ")"); err != nil {
				return ast.MatchPattern{}, err
			}
			return ast.MatchPattern{Kind: ast.MatchType, Type: te, Symbol: sym}, nil
		case "as":
			nameTok, err := p.expect(TokSymbol, "alias name")
			if err != nil {
				return ast.MatchPattern{}, err
			}
			inner, err := p.parseMatchPattern()
			if err != nil {
				return ast.MatchPattern{}, err
			}
			if _, err := p.expect(TokRParen, ")"); err != nil {
				return ast.MatchPattern{}, err
			}
			return ast.MatchPattern{Kind: ast.MatchAs, AsName: nameTok.Text, AsInner: &inner}, nil
		default:
			return ast.MatchPattern{}, p.errf("unknown match pattern form %q", kwTok.Text)
		}

	default:
		return ast.MatchPattern{}, p.errf("invalid match pattern near %q", t.Text)
	}
}
