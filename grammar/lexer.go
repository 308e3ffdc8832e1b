package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// SourceLexer tokenizes the JavaScript-like surface language. Longest
// operators must come first inside an alternation because Go regexps pick
// the leftmost alternative, not the longest match.
var SourceLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		// Comments
		{Name: "Comment", Pattern: `//[^\n]*|/\*([^*]|\*+[^*/])*\*+/`},

		// String literals, single or double quoted, with escapes
		{Name: "String", Pattern: `"(\\.|[^"\\])*"|'(\\.|[^'\\])*'`},

		// Numeric literals
		{Name: "Number", Pattern: `[0-9]+(\.[0-9]+)?([eE][+-]?[0-9]+)?`},

		// Keywords and identifiers
		{Name: "Ident", Pattern: `[a-zA-Z_$][a-zA-Z0-9_$]*`},

		// Operators (order matters)
		{Name: "Operator", Pattern: `>>>=|===|!==|\.\.\.|\*\*|<<=|>>=|>>>|\+\+|--|&&|\|\||\?\?|<=|>=|==|!=|\+=|-=|\*=|/=|%=|&=|\|=|\^=|<<|>>|[-+*/%<>=!&|^~?:.]`},

		// Punctuation
		{Name: "Punct", Pattern: `[{}()\[\];,]`},

		// Whitespace
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	},
})

var symbols = SourceLexer.Symbols()

// Symbol resolves a token type by its rule name.
func Symbol(name string) lexer.TokenType {
	return symbols[name]
}

// Tokenize lexes source into a token slice with whitespace and comments
// elided. The trailing EOF token is kept so the parser always has a
// position to report against.
func Tokenize(filename, source string) ([]lexer.Token, error) {
	lx, err := SourceLexer.LexString(filename, source)
	if err != nil {
		return nil, err
	}

	skip := map[lexer.TokenType]bool{
		Symbol("Whitespace"): true,
		Symbol("Comment"):    true,
	}

	var tokens []lexer.Token
	for {
		tok, err := lx.Next()
		if err != nil {
			return tokens, err
		}
		if skip[tok.Type] {
			continue
		}
		tokens = append(tokens, tok)
		if tok.EOF() {
			return tokens, nil
		}
	}
}
