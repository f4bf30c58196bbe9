// Package ascii implements the USDA text-format reader of section 4.5: a
// hand-written tokenizer and recursive-descent parser producing a
// sdf.Layer. Its line-oriented scanning loop is modeled on
// loader/obj.Decoder.parse in the teacher, generalized from per-line
// dispatch to a proper rune-level tokenizer since USDA's grammar (nested
// braces, inline arrays, triple-quoted strings) does not fit a line-at-a-
// time reader the way OBJ does.
package ascii

import (
	"strings"
	"unicode/utf8"

	"github.com/usdgo/usd/diag"
)

// TokKind enumerates the lexical categories of section 4.5.
type TokKind int

const (
	TokEOF TokKind = iota
	TokIdent
	TokString
	TokNumber
	TokAsset
	TokPath
	TokPunct
)

// Token is one lexical unit, positioned for diagnostics.
type Token struct {
	Kind     TokKind
	Text     string // decoded text (strings/assets already unescaped)
	Triple   bool   // TokString: was triple-quoted
	Pos      diag.Pos
	StartPos diag.Pos // TokString: position of the opening quote (invariant vi)
}

// Lexer tokenizes USDA source held entirely in memory (the grammar's
// triple-quoted strings and deeply nested dictionaries make a streaming
// reader more trouble than it is worth for a format this size).
type Lexer struct {
	src  string
	pos  int
	row  int
	col  int
	peek *Token
}

// NewLexer returns a Lexer positioned at the start of src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src, row: 1, col: 1}
}

func (l *Lexer) curPos() diag.Pos { return diag.Pos{Row: l.row, Col: l.col} }

func (l *Lexer) eof() bool { return l.pos >= len(l.src) }

func (l *Lexer) peekByte() byte {
	if l.eof() {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekByteAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.row++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

// skipSpaceAndComments consumes whitespace, newlines (which are
// insignificant outside of string literals in this grammar), ';'
// statement separators, and '#' comments.
func (l *Lexer) skipSpaceAndComments() {
	for !l.eof() {
		c := l.peekByte()
		switch {
		case c == ' ' || c == '\t' || c == '\f' || c == '\r' || c == '\n' || c == ';':
			l.advance()
		case c == '#':
			for !l.eof() && l.peekByte() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() (Token, error) {
	if l.peek == nil {
		tok, err := l.lex()
		if err != nil {
			return Token{}, err
		}
		l.peek = &tok
	}
	return *l.peek, nil
}

// Next consumes and returns the next token.
func (l *Lexer) Next() (Token, error) {
	if l.peek != nil {
		tok := *l.peek
		l.peek = nil
		return tok, nil
	}
	return l.lex()
}

func (l *Lexer) lex() (Token, error) {
	l.skipSpaceAndComments()
	if l.eof() {
		return Token{Kind: TokEOF, Pos: l.curPos()}, nil
	}
	start := l.curPos()
	c := l.peekByte()
	switch {
	case c == '{' || c == '}' || c == '(' || c == ')' || c == '[' || c == ']' || c == '=' || c == ',':
		l.advance()
		return Token{Kind: TokPunct, Text: string(c), Pos: start}, nil
	case c == '"' || c == '\'':
		return l.lexString(start)
	case c == '@':
		return l.lexAsset(start)
	case c == '<':
		return l.lexPathLiteral(start)
	case c == '-' || c == '+' || (c >= '0' && c <= '9'):
		if tok, ok := l.tryLexNumber(start); ok {
			return tok, nil
		}
		fallthrough
	default:
		return l.lexIdent(start)
	}
}

func (l *Lexer) lexIdent(start diag.Pos) (Token, error) {
	begin := l.pos
	for !l.eof() {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if isIdentRune(r) {
			for i := 0; i < size; i++ {
				l.advance()
			}
			continue
		}
		break
	}
	if l.pos == begin {
		r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
		return Token{}, diag.At(diag.KindLex, start, "unexpected character %q", r)
	}
	return Token{Kind: TokIdent, Text: l.src[begin:l.pos], Pos: start}, nil
}

func isIdentRune(r rune) bool {
	return r == '_' || r == ':' || r == '.' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func (l *Lexer) tryLexNumber(start diag.Pos) (Token, bool) {
	begin := l.pos
	i := l.pos
	if l.src[i] == '+' || l.src[i] == '-' {
		i++
	}
	// inf / nan with optional sign
	rest := l.src[i:]
	if strings.HasPrefix(rest, "inf") && !followsIdentRune(rest, 3) {
		i += 3
		return l.finishNumber(begin, i, start)
	}
	if strings.HasPrefix(rest, "nan") && !followsIdentRune(rest, 3) {
		i += 3
		return l.finishNumber(begin, i, start)
	}
	sawDigit := false
	for i < len(l.src) && l.src[i] >= '0' && l.src[i] <= '9' {
		i++
		sawDigit = true
	}
	if i < len(l.src) && l.src[i] == '.' {
		i++
		for i < len(l.src) && l.src[i] >= '0' && l.src[i] <= '9' {
			i++
			sawDigit = true
		}
	}
	if !sawDigit {
		return Token{}, false
	}
	if i < len(l.src) && (l.src[i] == 'e' || l.src[i] == 'E') {
		j := i + 1
		if j < len(l.src) && (l.src[j] == '+' || l.src[j] == '-') {
			j++
		}
		k := j
		for k < len(l.src) && l.src[k] >= '0' && l.src[k] <= '9' {
			k++
		}
		if k > j {
			i = k
		}
	}
	return l.finishNumber(begin, i, start)
}

func followsIdentRune(s string, at int) bool {
	if at >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[at:])
	return isIdentRune(r)
}

func (l *Lexer) finishNumber(begin, end int, start diag.Pos) (Token, bool) {
	for l.pos < end {
		l.advance()
	}
	return Token{Kind: TokNumber, Text: l.src[begin:end], Pos: start}, true
}

func (l *Lexer) lexAsset(start diag.Pos) (Token, error) {
	triple := l.peekByteAt(1) == '@' && l.peekByteAt(2) == '@'
	delim := "@"
	if triple {
		delim = "@@@"
	}
	for i := 0; i < len(delim); i++ {
		l.advance()
	}
	begin := l.pos
	for {
		if l.eof() {
			return Token{}, diag.At(diag.KindLex, start, "unterminated asset path literal")
		}
		if triple {
			if strings.HasPrefix(l.src[l.pos:], `\@@@`) {
				l.advance()
				l.advance()
				l.advance()
				l.advance()
				continue
			}
			if strings.HasPrefix(l.src[l.pos:], "@@@") {
				break
			}
		} else if l.peekByte() == '@' {
			break
		}
		l.advance()
	}
	raw := l.src[begin:l.pos]
	for i := 0; i < len(delim); i++ {
		l.advance()
	}
	if triple {
		raw = strings.ReplaceAll(raw, `\@@@`, "@@@")
	}
	return Token{Kind: TokAsset, Text: raw, Triple: triple, Pos: start}, nil
}

func (l *Lexer) lexPathLiteral(start diag.Pos) (Token, error) {
	l.advance() // '<'
	begin := l.pos
	depth := 1
	for {
		if l.eof() {
			return Token{}, diag.At(diag.KindLex, start, "unterminated path literal")
		}
		c := l.peekByte()
		if c == '<' {
			depth++
		} else if c == '>' {
			depth--
			if depth == 0 {
				break
			}
		}
		l.advance()
	}
	text := l.src[begin:l.pos]
	l.advance() // '>'
	return Token{Kind: TokPath, Text: text, Pos: start}, nil
}

func (l *Lexer) lexString(start diag.Pos) (Token, error) {
	quote := l.peekByte()
	triple := l.peekByteAt(1) == quote && l.peekByteAt(2) == quote
	n := 1
	if triple {
		n = 3
	}
	for i := 0; i < n; i++ {
		l.advance()
	}
	begin := l.pos
	delim := strings.Repeat(string(quote), n)
	for {
		if l.eof() {
			return Token{}, diag.At(diag.KindLex, start, "unterminated string literal")
		}
		if l.peekByte() == '\\' {
			l.advance()
			if !l.eof() {
				l.advance()
			}
			continue
		}
		if strings.HasPrefix(l.src[l.pos:], delim) {
			break
		}
		l.advance()
	}
	raw := l.src[begin:l.pos]
	for i := 0; i < n; i++ {
		l.advance()
	}
	return Token{Kind: TokString, Text: unescapeUSDA(raw), Triple: triple, Pos: start, StartPos: start}, nil
}

// unescapeUSDA inverts the escaping rules of section 4.3.
func unescapeUSDA(raw string) string {
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			b.WriteByte(raw[i])
			continue
		}
		switch raw[i+1] {
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		case '"':
			b.WriteByte('"')
		case '\'':
			b.WriteByte('\'')
		default:
			i++
			continue
		}
		i++
	}
	return b.String()
}
