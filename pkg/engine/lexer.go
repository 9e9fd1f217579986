package engine

import "strings"

// kwPrefix marks a keyword argument once translate has turned it into a
// string literal.
const kwPrefix = "__kw_"

// translate turns a model description into source zygomys reads. Keywords
// such as :same-sense become "__kw_same-sense" strings, so they never
// collide with variables. Hyphenated names such as swept-solid become
// swept_solid, since zygomys reads a bare hyphen as minus. Semicolon
// comments become // comments. String literals pass through untouched and
// every newline is kept, so zygomys line numbers match the description.
func translate(description string) string {
	l := &lexer{src: description}
	l.out.Grow(len(description) + len(description)/4)
	for l.pos < len(l.src) {
		switch c := l.src[l.pos]; {
		case c == '"':
			l.quoted('"', true)
		case c == '`':
			l.quoted('`', false)
		case c == ';':
			l.comment()
		case c == ':' && l.keyword():
		case c == '-' && l.joinsName():
			l.out.WriteByte('_')
			l.pos++
		default:
			l.out.WriteByte(c)
			l.pos++
		}
	}
	return l.out.String()
}

type lexer struct {
	src string
	pos int
	out strings.Builder
}

// quoted copies a literal up to and including its closing delimiter.
func (l *lexer) quoted(delim byte, escapes bool) {
	end := l.pos + 1
	for end < len(l.src) && l.src[end] != delim {
		if escapes && l.src[end] == '\\' {
			end++
		}
		end++
	}
	end = min(end+1, len(l.src))
	l.out.WriteString(l.src[l.pos:end])
	l.pos = end
}

// comment rewrites a run of semicolons as // and copies the rest of the line.
func (l *lexer) comment() {
	for l.pos < len(l.src) && l.src[l.pos] == ';' {
		l.pos++
	}
	end := strings.IndexByte(l.src[l.pos:], '\n')
	if end < 0 {
		end = len(l.src) - l.pos
	}
	l.out.WriteString("//")
	l.out.WriteString(l.src[l.pos : l.pos+end])
	l.pos += end
}

// keyword rewrites :name at the cursor. It reports false, consuming
// nothing, when the colon does not start a keyword; := is zygomys
// assignment and passes through.
func (l *lexer) keyword() bool {
	if l.pos+1 >= len(l.src) {
		return false
	}
	if l.src[l.pos+1] == '=' {
		l.out.WriteString(":=")
		l.pos += 2
		return true
	}
	if !letter(l.src[l.pos+1]) {
		return false
	}
	end := l.pos + 1
	for end < len(l.src) && keywordByte(l.src[end]) {
		end++
	}
	l.out.WriteByte('"')
	l.out.WriteString(kwPrefix)
	l.out.WriteString(l.src[l.pos+1 : end])
	l.out.WriteByte('"')
	l.pos = end
	return true
}

// joinsName reports whether the hyphen at the cursor sits inside a name
// rather than acting as minus or a sign: swept-solid, not (- a b) or 1e-3.
func (l *lexer) joinsName() bool {
	if l.pos == 0 || l.pos+1 >= len(l.src) || !letter(l.src[l.pos+1]) {
		return false
	}
	prev := l.src[l.pos-1]
	return letter(prev) || digit(prev) || prev == '_'
}

func letter(c byte) bool { return c|0x20 >= 'a' && c|0x20 <= 'z' }
func digit(c byte) bool  { return c >= '0' && c <= '9' }

func keywordByte(c byte) bool {
	return letter(c) || digit(c) || c == '-' || c == '_'
}
