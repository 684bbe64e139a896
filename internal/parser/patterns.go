package parser

import "github.com/rtfs-lang/rtfs/internal/ast"

// parsePatternMaybeTyped reads a pattern, honoring an optional
// "(typed pattern Type)" wrapper.
func (p *Parser) parsePatternMaybeTyped() (ast.Pattern, ast.TypeExpr, error) {
	if p.cur().Kind == TokLParen {
		save := p.pos
		p.advance() // (
		if p.cur().Kind == TokSymbol && p.cur().Text == "typed" {
			p.advance() // typed
			pat, err := p.parsePattern()
			if err != nil {
				return nil, nil, err
			}
			te, err := p.parseTypeExpr()
			if err != nil {
				return nil, nil, err
			}
			if _, err := p.expect(TokRParen, ")"); err != nil {
				return nil, nil, err
			}
			return pat, te, nil
		}
		p.pos = save
	}
	pat, err := p.parsePattern()
	if err != nil {
		return nil, nil, err
	}
	return pat, nil, nil
}

func (p *Parser) parsePattern() (ast.Pattern, error) {
	t := p.cur()
	switch t.Kind {
	case TokSymbol:
		p.advance()
		return &ast.SymbolPattern{Name: t.Text, Pos: p.pos2(t)}, nil
	case TokLBracket:
		return p.parseVectorPattern()
	case TokLBrace:
		return p.parseMapPattern()
	default:
		return nil, p.errf("expected a pattern, got %q", t.Text)
	}
}

func (p *Parser) parseVectorPattern() (ast.Pattern, error) {
	open := p.advance() // [
	pos := p.pos2(open)
	var elems []ast.Pattern
	rest, as := "", ""
	for p.cur().Kind != TokRBracket {
		if p.cur().Kind == TokEOF {
			return nil, p.errf("unterminated vector pattern")
		}
		if p.cur().Kind == TokAmp {
			p.advance()
			nameTok, err := p.expect(TokSymbol, "rest binding name")
			if err != nil {
				return nil, err
			}
			rest = nameTok.Text
			continue
		}
		if p.cur().Kind == TokKeyword && p.cur().Text == "as" {
			p.advance()
			nameTok, err := p.expect(TokSymbol, "alias name")
			if err != nil {
				return nil, err
			}
			as = nameTok.Text
			continue
		}
		e, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	p.advance() // ]
	return &ast.VectorPattern{Elements: elems, Rest: rest, As: as, Pos: pos}, nil
}

func (p *Parser) parseMapPattern() (ast.Pattern, error) {
	open := p.advance() // {
	pos := p.pos2(open)
	mp := &ast.MapPattern{Pos: pos, Defaults: map[string]ast.Expr{}}
	for p.cur().Kind != TokRBrace {
		if p.cur().Kind == TokEOF {
			return nil, p.errf("unterminated map pattern")
		}
		if p.cur().Kind == TokAmp {
			p.advance()
			nameTok, err := p.expect(TokSymbol, "rest binding name")
			if err != nil {
				return nil, err
			}
			mp.Rest = nameTok.Text
			continue
		}
		if p.cur().Kind == TokKeyword {
			switch p.cur().Text {
			case "keys":
				p.advance()
				if _, err := p.expect(TokLBracket, "["); err != nil {
					return nil, err
				}
				for p.cur().Kind != TokRBracket {
					nameTok, err := p.expect(TokSymbol, "key name")
					if err != nil {
						return nil, err
					}
					mp.Keys = append(mp.Keys, nameTok.Text)
				}
				p.advance()
				continue
			case "or":
				p.advance()
				if _, err := p.expect(TokLBrace, "{"); err != nil {
					return nil, err
				}
				for p.cur().Kind != TokRBrace {
					nameTok, err := p.expect(TokSymbol, "default binding name")
					if err != nil {
						return nil, err
					}
					val, err := p.parseExpr()
					if err != nil {
						return nil, err
					}
					mp.Defaults[nameTok.Text] = val
				}
				p.advance()
				continue
			case "as":
				p.advance()
				nameTok, err := p.expect(TokSymbol, "alias name")
				if err != nil {
					return nil, err
				}
				mp.As = nameTok.Text
				continue
			default:
				keyTok := p.advance()
				pat, err := p.parsePattern()
				if err != nil {
					return nil, err
				}
				mp.Entries = append(mp.Entries, ast.MapPatternEntry{
					Key:     ast.MapKeyLit{Kind: ast.MapKeyKeyword, Value: keyTok.Text},
					Pattern: pat,
				})
				continue
			}
		}
		return nil, p.errf("invalid map pattern entry near %q", p.cur().Text)
	}
	p.advance() // }
	return mp, nil
}
