// Package pgscan is a hand-written lexical scanner for the subset of
// PostgreSQL syntax this system needs to recognize: enough to find
// FROM/JOIN/INSERT INTO/UPDATE/DELETE FROM/CREATE TABLE/DROP TABLE targets
// and their schema-qualified identifiers, without validating SQL.
package pgscan

// TokenType identifies the lexical class of a scanned token.
type TokenType int

const (
	EOFToken TokenType = iota + 1
	WhitespaceToken
	LeftParenToken
	RightParenToken
	SemicolonToken
	EqualToken
	CommaToken
	DotToken

	NumberToken

	MultilineCommentToken
	SinglelineCommentToken

	ReservedWordToken
	QuotedIdentifierToken
	UnquotedIdentifierToken

	StringLiteralToken
	DollarQuotedStringToken
	BitStringLiteralToken
	HexStringLiteralToken
	PositionalParameterToken

	OtherToken

	UnterminatedStringLiteralErrorToken
	UnterminatedQuotedIdentifierErrorToken
	NonUTF8ErrorToken
)

// FileRef identifies the source file a token came from, for error messages.
type FileRef string

// Pos is a 1-indexed line/column position within a source file.
type Pos struct {
	File      FileRef
	Line, Col int
}

// PosString is a string value tagged with the position it was read from.
type PosString struct {
	Pos
	Value string
}

func (p PosString) String() string {
	return p.Value
}

// Unparsed is a single token captured verbatim, together with its start
// and stop positions.
type Unparsed struct {
	Type        TokenType
	Start, Stop Pos
	RawValue    string
}

func CreateUnparsed(s *Scanner) Unparsed {
	return Unparsed{
		Type:     s.TokenType(),
		Start:    s.Start(),
		Stop:     s.Stop(),
		RawValue: s.Token(),
	}
}
