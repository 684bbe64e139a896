package parser

import (
	"fmt"
	"strconv"

	"github.com/rtfs-lang/rtfs/internal/ast"
)

// Parser reads a token stream into internal/ast values. It implements
// internal/module.Parser so a *Registry can load RTFS source files
// directly, and is the reader the CLI and REPL drive for top-level input.
type Parser struct {
	toks []Token
	pos  int
	file string
}

// New returns a fresh Parser. The same value may be reused across calls to
// Parse/ParseProgram/ParseOne; each call re-tokenizes its own input.
func New() *Parser { return &Parser{} }

// Parse implements module.Parser: it expects src to contain exactly one
// top-level module form.
func (p *Parser) Parse(src []byte, path string) (ast.Node, error) {
	forms, err := p.ParseProgram(src, path)
	if err != nil {
		return nil, err
	}
	if len(forms) != 1 {
		return nil, fmt.Errorf("%s: expected exactly one top-level module form, found %d", path, len(forms))
	}
	mf, ok := forms[0].(*ast.ModuleForm)
	if !ok {
		return nil, fmt.Errorf("%s: top-level form is not a module declaration", path)
	}
	return mf, nil
}

// ParseProgram reads every top-level form in src.
func (p *Parser) ParseProgram(src []byte, file string) ([]ast.Expr, error) {
	if err := p.tokenize(src, file); err != nil {
		return nil, err
	}
	var out []ast.Expr
	for p.cur().Kind != TokEOF {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// ParseOne reads a single top-level form, for REPL-style incremental input.
func (p *Parser) ParseOne(src []byte, file string) (ast.Expr, error) {
	if err := p.tokenize(src, file); err != nil {
		return nil, err
	}
	if p.cur().Kind == TokEOF {
		return nil, fmt.Errorf("%s: empty input", file)
	}
	return p.parseExpr()
}

func (p *Parser) tokenize(src []byte, file string) error {
	l := NewLexer(string(src), file)
	p.toks = nil
	p.pos = 0
	p.file = file
	for {
		t, err := l.NextToken()
		if err != nil {
			return err
		}
		p.toks = append(p.toks, t)
		if t.Kind == TokEOF {
			break
		}
	}
	return nil
}

func (p *Parser) cur() Token { return p.toks[p.pos] }
func (p *Parser) advance() Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) pos2(t Token) ast.Pos { return ast.Pos{Line: t.Line, Column: t.Column, File: p.file} }

func (p *Parser) expect(k TokenKind, what string) (Token, error) {
	if p.cur().Kind != k {
		return Token{}, p.errf("expected %s, got %q", what, p.cur().Text)
	}
	return p.advance(), nil
}

func (p *Parser) errf(format string, args ...interface{}) error {
	t := p.cur()
	return fmt.Errorf("%s:%d:%d: %s", p.file, t.Line, t.Column, fmt.Sprintf(format, args...))
}

// parseExpr parses one expression of any shape at the current position.
func (p *Parser) parseExpr() (ast.Expr, error) {
	t := p.cur()
	switch t.Kind {
	case TokInt:
		p.advance()
		n, err := strconv.ParseInt(t.Text, 10, 64)
		if err != nil {
			return nil, p.errf("invalid integer literal %q", t.Text)
		}
		return &ast.Literal{Kind: ast.IntLit, Value: n, Pos: p.pos2(t)}, nil

	case TokFloat:
		p.advance()
		f, err := strconv.ParseFloat(t.Text, 64)
		if err != nil {
			return nil, p.errf("invalid float literal %q", t.Text)
		}
		return &ast.Literal{Kind: ast.FloatLit, Value: f, Pos: p.pos2(t)}, nil

	case TokString:
		p.advance()
		return &ast.Literal{Kind: ast.StringLit, Value: t.Text, Pos: p.pos2(t)}, nil

	case TokKeyword:
		p.advance()
		return &ast.Keyword{Name: t.Text, Pos: p.pos2(t)}, nil

	case TokAtSym:
		p.advance()
		return &ast.TaskContextAccess{Field: t.Text, Pos: p.pos2(t)}, nil

	case TokSymbol:
		p.advance()
		switch t.Text {
		case "true":
			return &ast.Literal{Kind: ast.BoolLit, Value: true, Pos: p.pos2(t)}, nil
		case "false":
			return &ast.Literal{Kind: ast.BoolLit, Value: false, Pos: p.pos2(t)}, nil
		case "nil":
			return &ast.Literal{Kind: ast.NilLit, Value: nil, Pos: p.pos2(t)}, nil
		default:
			return &ast.Symbol{Name: t.Text, Pos: p.pos2(t)}, nil
		}

	case TokLBracket:
		return p.parseVector()

	case TokLBrace:
		return p.parseMap()

	case TokLParen:
		return p.parseList()

	default:
		return nil, p.errf("unexpected token %q", t.Text)
	}
}

func (p *Parser) parseVector() (ast.Expr, error) {
	open := p.advance() // [
	var elems []ast.Expr
	for p.cur().Kind != TokRBracket {
		if p.cur().Kind == TokEOF {
			return nil, p.errf("unterminated vector literal")
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	p.advance() // ]
	return &ast.Vector{Elements: elems, Pos: p.pos2(open)}, nil
}

func (p *Parser) parseMap() (ast.Expr, error) {
	open := p.advance() // {
	var entries []ast.MapEntry
	for p.cur().Kind != TokRBrace {
		if p.cur().Kind == TokEOF {
			return nil, p.errf("unterminated map literal")
		}
		k, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		entries = append(entries, ast.MapEntry{Key: k, Value: v})
	}
	p.advance() // }
	return &ast.MapExpr{Entries: entries, Pos: p.pos2(open)}, nil
}

// parseList parses a parenthesized form: a special form if it opens with a
// recognized keyword symbol, otherwise a function application (or, for
// "list", an explicit unevaluated list literal).
func (p *Parser) parseList() (ast.Expr, error) {
	open := p.advance() // (
	pos := p.pos2(open)

	if p.cur().Kind == TokRParen {
		p.advance()
		return &ast.Do{Pos: pos}, nil // () is an empty do, evaluates to nil
	}

	if p.cur().Kind == TokSymbol {
		switch p.cur().Text {
		case "let":
			return p.parseLet(pos)
		case "if":
			return p.parseIf(pos)
		case "do":
			return p.parseDo(pos)
		case "fn":
			return p.parseFn(pos)
		case "def":
			return p.parseDef(pos)
		case "defn":
			return p.parseDefn(pos)
		case "parallel":
			return p.parseParallel(pos)
		case "with-resource":
			return p.parseWithResource(pos)
		case "try":
			return p.parseTryCatch(pos)
		case "match":
			return p.parseMatch(pos)
		case "log-step":
			return p.parseLogStep(pos)
		case "import":
			return p.parseImport(pos)
		case "module":
			return p.parseModule(pos)
		case "task":
			return p.parseTask(pos)
		case "list":
			p.advance()
			elems, err := p.parseExprsUntilRParen()
			if err != nil {
				return nil, err
			}
			return &ast.List{Elements: elems, Pos: pos}, nil
		}
	}

	fn, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	args, err := p.parseExprsUntilRParen()
	if err != nil {
		return nil, err
	}
	return &ast.Apply{Fn: fn, Args: args, Pos: pos}, nil
}

func (p *Parser) parseExprsUntilRParen() ([]ast.Expr, error) {
	var out []ast.Expr
	for p.cur().Kind != TokRParen {
		if p.cur().Kind == TokEOF {
			return nil, p.errf("unterminated list, expected )")
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	p.advance() // )
	return out, nil
}

func (p *Parser) parseBody() ([]ast.Expr, error) { return p.parseExprsUntilRParen() }

// tryParseTyped recognizes the "(typed pattern-or-name Type)" wrapper
// this reader uses everywhere a surface type annotation may attach. It
// returns (rawPatternOrNameExpr, typeExpr, consumed, err).
func (p *Parser) tryParseTyped() (ast.Expr, ast.TypeExpr, bool, error) {
	if p.cur().Kind != TokLParen {
		return nil, nil, false, nil
	}
	save := p.pos
	p.advance() // (
	if p.cur().Kind != TokSymbol || p.cur().Text != "typed" {
		p.pos = save
		return nil, nil, false, nil
	}
	p.advance() // typed
	inner, err := p.parseExpr()
	if err != nil {
		return nil, nil, false, err
	}
	te, err := p.parseTypeExpr()
	if err != nil {
		return nil, nil, false, err
	}
	if _, err := p.expect(TokRParen, ")"); err != nil {
		return nil, nil, false, err
	}
	return inner, te, true, nil
}

func (p *Parser) parseLet(pos ast.Pos) (ast.Expr, error) {
	p.advance() // let
	if _, err := p.expect(TokLBracket, "["); err != nil {
		return nil, err
	}
	var bindings []ast.Binding
	for p.cur().Kind != TokRBracket {
		pat, typ, err := p.parsePatternMaybeTyped()
		if err != nil {
			return nil, err
		}
		init, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, ast.Binding{Pattern: pat, Type: typ, Init: init})
	}
	p.advance() // ]
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &ast.Let{Bindings: bindings, Body: body, Pos: pos}, nil
}

func (p *Parser) parseIf(pos ast.Pos) (ast.Expr, error) {
	p.advance() // if
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	var els ast.Expr
	if p.cur().Kind != TokRParen {
		els, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(TokRParen, ")"); err != nil {
		return nil, err
	}
	return &ast.If{Cond: cond, Then: then, Else: els, Pos: pos}, nil
}

func (p *Parser) parseDo(pos ast.Pos) (ast.Expr, error) {
	p.advance() // do
	exprs, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &ast.Do{Exprs: exprs, Pos: pos}, nil
}

// parseParamList reads a "[p1 p2 & rest]" formal-parameter vector, where
// each p may be wrapped in "(typed pattern Type)".
func (p *Parser) parseParamList() ([]ast.FnParam, string, ast.TypeExpr, error) {
	if _, err := p.expect(TokLBracket, "["); err != nil {
		return nil, "", nil, err
	}
	var params []ast.FnParam
	var variadicName string
	var variadicType ast.TypeExpr
	for p.cur().Kind != TokRBracket {
		if p.cur().Kind == TokAmp {
			p.advance()
			if vexpr, vt, ok, err := p.tryParseTyped(); err != nil {
				return nil, "", nil, err
			} else if ok {
				sym, ok := vexpr.(*ast.Symbol)
				if !ok {
					return nil, "", nil, p.errf("variadic parameter must be a symbol")
				}
				variadicName = sym.Name
				variadicType = vt
				continue
			}
			sym, err := p.expect(TokSymbol, "variadic parameter name")
			if err != nil {
				return nil, "", nil, err
			}
			variadicName = sym.Text
			continue
		}
		pat, typ, err := p.parsePatternMaybeTyped()
		if err != nil {
			return nil, "", nil, err
		}
		params = append(params, ast.FnParam{Pattern: pat, Type: typ})
	}
	p.advance() // ]
	return params, variadicName, variadicType, nil
}

func (p *Parser) parseFn(pos ast.Pos) (ast.Expr, error) {
	p.advance() // fn
	params, variadicName, variadicType, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	var ret ast.TypeExpr
	if p.cur().Kind == TokSymbol && p.cur().Text == "->" {
		p.advance()
		ret, err = p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &ast.Fn{Params: params, VariadicName: variadicName, VariadicType: variadicType, ReturnType: ret, Body: body, Pos: pos}, nil
}

func (p *Parser) parseDef(pos ast.Pos) (ast.Expr, error) {
	p.advance() // def
	name, typ, err := p.parseNameMaybeTyped()
	if err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokRParen, ")"); err != nil {
		return nil, err
	}
	return &ast.Def{Name: name, Type: typ, Value: value, Pos: pos}, nil
}

func (p *Parser) parseDefn(pos ast.Pos) (ast.Expr, error) {
	p.advance() // defn
	name, err := p.expect(TokSymbol, "function name")
	if err != nil {
		return nil, err
	}
	params, variadicName, variadicType, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	var ret ast.TypeExpr
	if p.cur().Kind == TokSymbol && p.cur().Text == "->" {
		p.advance()
		ret, err = p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &ast.Defn{Name: name.Text, Params: params, VariadicName: variadicName, VariadicType: variadicType, ReturnType: ret, Body: body, Pos: pos}, nil
}

func (p *Parser) parseNameMaybeTyped() (string, ast.TypeExpr, error) {
	if inner, typ, ok, err := p.tryParseTyped(); err != nil {
		return "", nil, err
	} else if ok {
		sym, ok := inner.(*ast.Symbol)
		if !ok {
			return "", nil, p.errf("expected a name inside (typed ...)")
		}
		return sym.Name, typ, nil
	}
	sym, err := p.expect(TokSymbol, "name")
	if err != nil {
		return "", nil, err
	}
	return sym.Text, nil, nil
}

func (p *Parser) parseParallel(pos ast.Pos) (ast.Expr, error) {
	p.advance() // parallel
	var bindings []ast.ParallelBinding
	for p.cur().Kind == TokLBracket {
		p.advance() // [
		name, typ, err := p.parseNameMaybeTyped()
		if err != nil {
			return nil, err
		}
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRBracket, "]"); err != nil {
			return nil, err
		}
		bindings = append(bindings, ast.ParallelBinding{Name: name, Type: typ, Expr: expr})
	}
	if _, err := p.expect(TokRParen, ")"); err != nil {
		return nil, err
	}
	return &ast.Parallel{Bindings: bindings, Pos: pos}, nil
}

func (p *Parser) parseWithResource(pos ast.Pos) (ast.Expr, error) {
	p.advance() // with-resource
	if _, err := p.expect(TokLBracket, "["); err != nil {
		return nil, err
	}
	name, err := p.expect(TokSymbol, "resource binding name")
	if err != nil {
		return nil, err
	}
	typ, err := p.parseTypeExpr()
	if err != nil {
		return nil, err
	}
	init, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokRBracket, "]"); err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &ast.WithResource{Name: name.Text, Type: typ, Init: init, Body: body, Pos: pos}, nil
}

func (p *Parser) parseTryCatch(pos ast.Pos) (ast.Expr, error) {
	p.advance() // try
	var tryBody []ast.Expr
	for p.cur().Kind == TokLParen {
		save := p.pos
		p.advance()
		isCatch := p.cur().Kind == TokSymbol && p.cur().Text == "catch"
		isFinally := p.cur().Kind == TokSymbol && p.cur().Text == "finally"
		p.pos = save
		if isCatch || isFinally {
			break
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		tryBody = append(tryBody, e)
	}
	var catches []ast.CatchClause
	var finally []ast.Expr
	for p.cur().Kind == TokLParen {
		p.advance() // (
		kw, err := p.expect(TokSymbol, "catch or finally")
		if err != nil {
			return nil, err
		}
		switch kw.Text {
		case "catch":
			clause, err := p.parseCatchClause()
			if err != nil {
				return nil, err
			}
			catches = append(catches, clause)
		case "finally":
			finally, err = p.parseExprsUntilRParen()
			if err != nil {
				return nil, err
			}
		default:
			return nil, p.errf("expected catch or finally, got %q", kw.Text)
		}
	}
	if _, err := p.expect(TokRParen, ")"); err != nil {
		return nil, err
	}
	return &ast.TryCatch{Try: tryBody, Catches: catches, Finally: finally, Pos: pos}, nil
}

func (p *Parser) parseCatchClause() (ast.CatchClause, error) {
	var pattern ast.CatchPattern
	var binding string
	switch p.cur().Kind {
	case TokKeyword:
		pattern = ast.CatchPattern{Kind: ast.CatchByKeyword, Keyword: p.advance().Text}
	case TokSymbol:
		name := p.advance().Text
		pattern = ast.CatchPattern{Kind: ast.CatchBySymbol}
		binding = name
	case TokLParen:
		// (type Type) binds no value; (type Type name) also binds.
		p.advance()
		if _, err := p.expect(TokSymbol, "type"); err != nil {
			return ast.CatchClause{}, err
		}
		typ, err := p.parseTypeExpr()
		if err != nil {
			return ast.CatchClause{}, err
		}
		if p.cur().Kind == TokSymbol {
			binding = p.advance().Text
		}
		if _, err := p.expect(TokRParen, ")"); err != nil {
			return ast.CatchClause{}, err
		}
		pattern = ast.CatchPattern{Kind: ast.CatchByType, Type: typ}
	default:
		return ast.CatchClause{}, p.errf("invalid catch selector")
	}
	body, err := p.parseExprsUntilRParen()
	if err != nil {
		return ast.CatchClause{}, err
	}
	return ast.CatchClause{Pattern: pattern, Binding: binding, Body: body}, nil
}

func (p *Parser) parseLogStep(pos ast.Pos) (ast.Expr, error) {
	p.advance() // log-step
	level, err := p.expect(TokKeyword, "log level keyword")
	if err != nil {
		return nil, err
	}
	id, err := p.expect(TokString, "log step id string")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokLBracket, "["); err != nil {
		return nil, err
	}
	var values []ast.Expr
	for p.cur().Kind != TokRBracket {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		values = append(values, e)
	}
	p.advance() // ]
	inner, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokRParen, ")"); err != nil {
		return nil, err
	}
	return &ast.LogStep{Level: level.Text, ID: id.Text, Values: values, Inner: inner, Pos: pos}, nil
}

func (p *Parser) parseImport(pos ast.Pos) (ast.Expr, error) {
	p.advance() // import
	name, err := p.expect(TokSymbol, "module name")
	if err != nil {
		return nil, err
	}
	alias := ""
	if p.cur().Kind == TokKeyword && p.cur().Text == "as" {
		p.advance()
		aliasTok, err := p.expect(TokSymbol, "import alias")
		if err != nil {
			return nil, err
		}
		alias = aliasTok.Text
	}
	if _, err := p.expect(TokRParen, ")"); err != nil {
		return nil, err
	}
	return &ast.Import{ModuleName: name.Text, Alias: alias, Pos: pos}, nil
}

func (p *Parser) parseModule(pos ast.Pos) (ast.Expr, error) {
	p.advance() // module
	name, err := p.expect(TokSymbol, "module name")
	if err != nil {
		return nil, err
	}
	var exports []string
	if p.cur().Kind == TokKeyword && p.cur().Text == "exports" {
		p.advance()
		if _, err := p.expect(TokLBracket, "["); err != nil {
			return nil, err
		}
		for p.cur().Kind != TokRBracket {
			sym, err := p.expect(TokSymbol, "exported name")
			if err != nil {
				return nil, err
			}
			exports = append(exports, sym.Text)
		}
		p.advance() // ]
	}
	body, err := p.parseExprsUntilRParen()
	if err != nil {
		return nil, err
	}
	return &ast.ModuleForm{Name: name.Text, Exports: exports, Body: body, Pos: pos}, nil
}

func (p *Parser) parseTask(pos ast.Pos) (ast.Expr, error) {
	p.advance() // task
	id, err := p.expect(TokString, "task id string")
	if err != nil {
		return nil, err
	}
	task := &ast.Task{TaskID: id.Text, Metadata: map[string]ast.Expr{}, Pos: pos}
	for p.cur().Kind != TokRParen {
		kw, err := p.expect(TokKeyword, "task section keyword")
		if err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		switch kw.Text {
		case "intent":
			task.Intent = val
		case "contract":
			task.Contract = val
		case "plan":
			task.Plan = val
		default:
			task.Metadata[kw.Text] = val
		}
	}
	p.advance() // )
	return task, nil
}
