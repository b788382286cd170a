package pgscan

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ScannerInput holds the raw input buffer and the file it came from.
// It is embedded by TokenScanner and exists as a separate type so that
// SetInput/SetFile can be shared without duplicating fields.
type ScannerInput struct {
	input string
	file  FileRef
}

func (s *ScannerInput) SetInput(input []byte) {
	s.input = string(input)
}

func (s *ScannerInput) SetFile(file FileRef) {
	s.file = file
}

// TokenScanner is a cursor into an input buffer. It tracks the byte offset
// and line number of both the start and the end of the "current" token, so
// that Start()/Stop() can report 1-indexed line/column positions without
// rescanning the buffer from the top.
//
// Unlike a traditional lexer that produces a token stream up front,
// TokenScanner is driven one token at a time: NextToken advances the
// cursor and returns the new token's type; Token/TokenLower/Start/Stop
// describe whatever token the cursor currently sits on.
type TokenScanner struct {
	ScannerInput

	curIndex   int
	startIndex int

	startLine        int
	stopLine         int
	indexAtStartLine int
	indexAtStopLine  int

	tokenType    TokenType
	reservedWord string

	// NextToken is assigned by the dialect-specific scanner; it performs
	// the actual tokenization starting at curIndex.
	NextToken func() TokenType
}

// IncIndexes moves the "start" position to the current cursor position,
// preparing to scan a new token, and clears the previous reserved word.
func (s *TokenScanner) IncIndexes() {
	s.startIndex = s.curIndex
	s.startLine = s.stopLine
	s.indexAtStartLine = s.indexAtStopLine
	s.reservedWord = ""
}

func (s *TokenScanner) TokenType() TokenType {
	return s.tokenType
}

func (s *TokenScanner) SetToken(t TokenType) {
	s.tokenType = t
}

// Token returns the raw text of the current token.
func (s *TokenScanner) Token() string {
	return s.input[s.startIndex:s.curIndex]
}

func (s *TokenScanner) TokenLower() string {
	return strings.ToLower(s.Token())
}

// ReservedWord returns the lowercase reserved word if the current token
// is a ReservedWordToken, or an empty string otherwise.
func (s *TokenScanner) ReservedWord() string {
	return s.reservedWord
}

func (s *TokenScanner) SetReservedWord(word string) {
	s.reservedWord = word
}

// TokenRune decodes the rune at offset off from the current cursor,
// without advancing it. Returns (utf8.RuneError, 0) at end of input.
func (s *TokenScanner) TokenRune(off int) (rune, int) {
	idx := s.curIndex + off
	if idx >= len(s.input) {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRuneInString(s.input[idx:])
}

// TokenChar returns the remainder of the input starting at the cursor.
func (s *TokenScanner) TokenChar() string {
	return s.input[s.curIndex:]
}

// IncCurIndex advances the cursor by n bytes from its current position.
func (s *TokenScanner) IncCurIndex(n int) {
	s.curIndex += n
}

// SetCurIndex moves the cursor to the end of the input; used when a scan
// routine runs off the end of the buffer (unterminated literal/comment).
func (s *TokenScanner) SetCurIndex() {
	s.curIndex = len(s.input)
}

// BumpLine records that a newline was found at offset `at` (relative to
// the cursor) while scanning a multi-byte token (string, comment, quoted
// identifier). It updates the "stop" line bookkeeping only; IncIndexes
// copies it into "start" bookkeeping for the next token.
func (s *TokenScanner) BumpLine(at int) {
	s.stopLine++
	s.indexAtStopLine = s.curIndex + at + 1
}

func (s *TokenScanner) Start() Pos {
	return Pos{
		File: s.file,
		Line: s.startLine + 1,
		Col:  s.startIndex - s.indexAtStartLine + 1,
	}
}

func (s *TokenScanner) Stop() Pos {
	return Pos{
		File: s.file,
		Line: s.stopLine + 1,
		Col:  s.curIndex - s.indexAtStopLine + 1,
	}
}

// IsStartOfLine reports whether the token just scanned began a new line
// relative to the token before it.
func (s *TokenScanner) IsStartOfLine() bool {
	return s.startLine != s.stopLine
}

// ScanMultilineComment scans a /* ... */ comment; the cursor must already
// be positioned just after the opening "/*".
func (s *TokenScanner) ScanMultilineComment() TokenType {
	chars := s.TokenChar()
	for i := 0; i < len(chars); i++ {
		if chars[i] == '\n' {
			s.BumpLine(i)
		}
		if chars[i] == '*' && i+1 < len(chars) && chars[i+1] == '/' {
			s.IncCurIndex(i + 2)
			return MultilineCommentToken
		}
	}
	s.SetCurIndex()
	return MultilineCommentToken
}

// ScanSinglelineComment scans a -- comment up to (not including) the
// trailing newline; the cursor must already be positioned just after the
// opening "--".
func (s *TokenScanner) ScanSinglelineComment() TokenType {
	chars := s.TokenChar()
	for i := 0; i < len(chars); i++ {
		if chars[i] == '\n' {
			s.IncCurIndex(i)
			return SinglelineCommentToken
		}
	}
	s.SetCurIndex()
	return SinglelineCommentToken
}

// ScanWhitespace scans a maximal run of whitespace starting at the cursor.
func (s *TokenScanner) ScanWhitespace() TokenType {
	chars := s.TokenChar()
	for i := 0; i < len(chars); i++ {
		r, w := utf8.DecodeRuneInString(chars[i:])
		if !unicode.IsSpace(r) {
			s.IncCurIndex(i)
			return WhitespaceToken
		}
		if r == '\n' {
			s.BumpLine(i)
		}
		i += w - 1
	}
	s.SetCurIndex()
	return WhitespaceToken
}

func (s *TokenScanner) SkipWhitespace() {
	for s.tokenType == WhitespaceToken {
		s.tokenType = s.NextToken()
	}
}

func (s *TokenScanner) SkipWhitespaceComments() {
	for s.tokenType == WhitespaceToken || s.tokenType == SinglelineCommentToken || s.tokenType == MultilineCommentToken {
		s.tokenType = s.NextToken()
	}
}

// NextNonWhitespaceToken advances until a non-whitespace token is found.
func (s *TokenScanner) NextNonWhitespaceToken() TokenType {
	for {
		tt := s.NextToken()
		s.tokenType = tt
		if tt != WhitespaceToken {
			return tt
		}
	}
}

// NextNonWhitespaceCommentToken advances until a token that is neither
// whitespace nor a comment is found.
func (s *TokenScanner) NextNonWhitespaceCommentToken() TokenType {
	for {
		tt := s.NextToken()
		s.tokenType = tt
		if tt != WhitespaceToken && tt != SinglelineCommentToken && tt != MultilineCommentToken {
			return tt
		}
	}
}
