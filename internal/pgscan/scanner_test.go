package pgscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanner_BasicTokens(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected TokenType
		token    string
	}{
		{"left paren", "(", LeftParenToken, "("},
		{"right paren", ")", RightParenToken, ")"},
		{"semicolon", ";", SemicolonToken, ";"},
		{"equal", "=", EqualToken, "="},
		{"comma", ",", CommaToken, ","},
		{"dot", ".", DotToken, "."},
		{"EOF", "", EOFToken, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScanner("test.sql", tt.input)
			tokenType := s.NextToken()
			assert.Equal(t, tt.expected, tokenType)
			assert.Equal(t, tt.token, s.Token())
		})
	}
}

func TestScanner_Whitespace(t *testing.T) {
	s := NewScanner("test.sql", "   \n\t  ")
	tokenType := s.NextToken()
	assert.Equal(t, WhitespaceToken, tokenType)
}

func TestScanner_SingleLineComment(t *testing.T) {
	s := NewScanner("test.sql", "-- this is a comment\nSELECT")

	tokenType := s.NextToken()
	assert.Equal(t, SinglelineCommentToken, tokenType)
	assert.Equal(t, "-- this is a comment", s.Token())

	s.NextToken() // whitespace
	tokenType = s.NextToken()
	assert.Equal(t, ReservedWordToken, tokenType)
	assert.Equal(t, "SELECT", s.Token())
}

func TestScanner_MultiLineComment(t *testing.T) {
	s := NewScanner("test.sql", "/* multi\nline\ncomment */SELECT")

	tokenType := s.NextToken()
	assert.Equal(t, MultilineCommentToken, tokenType)
	assert.Equal(t, "/* multi\nline\ncomment */", s.Token())

	tokenType = s.NextToken()
	assert.Equal(t, ReservedWordToken, tokenType)
}

func TestScanner_StringLiteral(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple string", "'hello'", "'hello'"},
		{"escaped quote", "'it''s'", "'it''s'"},
		{"empty string", "''", "''"},
		{"multiline string", "'line1\nline2'", "'line1\nline2'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScanner("test.sql", tt.input)
			tokenType := s.NextToken()
			assert.Equal(t, StringLiteralToken, tokenType)
			assert.Equal(t, tt.expected, s.Token())
		})
	}
}

func TestScanner_EscapeStringLiteral(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple escape string", "E'hello'", "E'hello'"},
		{"backslash escape", "E'it\\'s'", "E'it\\'s'"},
		{"newline escape", "E'line1\\nline2'", "E'line1\\nline2'"},
		{"lowercase e", "e'hello'", "e'hello'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScanner("test.sql", tt.input)
			tokenType := s.NextToken()
			assert.Equal(t, StringLiteralToken, tokenType)
			assert.Equal(t, tt.expected, s.Token())
		})
	}
}

func TestScanner_DollarQuotedString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple dollar quote", "$$hello$$", "$$hello$$"},
		{"tagged dollar quote", "$body$hello$body$", "$body$hello$body$"},
		{"multiline dollar quote", "$$line1\nline2$$", "$$line1\nline2$$"},
		{"nested quotes in dollar", "$$it's a 'test'$$", "$$it's a 'test'$$"},
		{"function body", "$func$\nBEGIN\n  RETURN 1;\nEND;\n$func$", "$func$\nBEGIN\n  RETURN 1;\nEND;\n$func$"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScanner("test.sql", tt.input)
			tokenType := s.NextToken()
			assert.Equal(t, DollarQuotedStringToken, tokenType)
			assert.Equal(t, tt.expected, s.Token())
		})
	}
}

func TestScanner_PositionalParameter(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"param 1", "$1", "$1"},
		{"param 10", "$10", "$10"},
		{"param 123", "$123", "$123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScanner("test.sql", tt.input)
			tokenType := s.NextToken()
			assert.Equal(t, PositionalParameterToken, tokenType)
			assert.Equal(t, tt.expected, s.Token())
		})
	}
}

func TestScanner_QuotedIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple quoted", "\"MyTable\"", "\"MyTable\""},
		{"escaped quote", "\"My\"\"Table\"", "\"My\"\"Table\""},
		{"with spaces", "\"My Table\"", "\"My Table\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScanner("test.sql", tt.input)
			tokenType := s.NextToken()
			assert.Equal(t, QuotedIdentifierToken, tokenType)
			assert.Equal(t, tt.expected, s.Token())
		})
	}
}

func TestScanner_BitStringLiteral(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"bit string", "B'101010'", "B'101010'"},
		{"lowercase b", "b'1100'", "b'1100'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScanner("test.sql", tt.input)
			tokenType := s.NextToken()
			assert.Equal(t, BitStringLiteralToken, tokenType)
			assert.Equal(t, tt.expected, s.Token())
		})
	}
}

func TestScanner_HexStringLiteral(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"hex string", "X'1A2B'", "X'1A2B'"},
		{"lowercase x", "x'deadbeef'", "x'deadbeef'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScanner("test.sql", tt.input)
			tokenType := s.NextToken()
			assert.Equal(t, HexStringLiteralToken, tokenType)
			assert.Equal(t, tt.expected, s.Token())
		})
	}
}

func TestScanner_Number(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"integer", "123", "123"},
		{"decimal", "123.456", "123.456"},
		{"negative", "-123", "-123"},
		{"positive", "+123", "+123"},
		{"scientific", "1.23e10", "1.23e10"},
		{"scientific negative exp", "1.23e-10", "1.23e-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScanner("test.sql", tt.input)
			tokenType := s.NextToken()
			assert.Equal(t, NumberToken, tokenType)
			assert.Equal(t, tt.expected, s.Token())
		})
	}
}

func TestScanner_ReservedWords(t *testing.T) {
	words := []string{
		"SELECT", "FROM", "WHERE", "CREATE", "INSERT", "INTO", "UPDATE",
		"DELETE", "DROP", "TABLE", "JOIN", "LEFT", "RIGHT", "INNER", "OUTER",
		"IF", "NOT", "EXISTS", "AND", "OR", "AS", "NULL",
	}

	for _, word := range words {
		t.Run(word, func(t *testing.T) {
			s := NewScanner("test.sql", word)
			tokenType := s.NextToken()
			assert.Equal(t, ReservedWordToken, tokenType)
			assert.Equal(t, word, s.Token())
		})
	}
}

func TestScanner_Identifier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple identifier", "my_table", "my_table"},
		{"with numbers", "table1", "table1"},
		{"underscore start", "_private", "_private"},
		{"mixed case", "MyOrders", "MyOrders"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScanner("test.sql", tt.input)
			tokenType := s.NextToken()
			assert.Equal(t, UnquotedIdentifierToken, tokenType)
			assert.Equal(t, tt.expected, s.Token())
		})
	}
}

func TestScanner_TypeCastOperator(t *testing.T) {
	s := NewScanner("test.sql", "my_value::my_type")

	tokenType := s.NextToken()
	assert.Equal(t, UnquotedIdentifierToken, tokenType)
	assert.Equal(t, "my_value", s.Token())

	tokenType = s.NextToken()
	assert.Equal(t, OtherToken, tokenType)
	assert.Equal(t, "::", s.Token())

	tokenType = s.NextToken()
	assert.Equal(t, UnquotedIdentifierToken, tokenType)
	assert.Equal(t, "my_type", s.Token())
}

func TestScanner_InsertStatement(t *testing.T) {
	input := `INSERT INTO raw_events (event_id, payload)
SELECT id, data FROM staging.incoming;`

	s := NewScanner("test.sql", input)

	tokens := []struct {
		tokenType TokenType
		token     string
	}{
		{ReservedWordToken, "INSERT"},
		{WhitespaceToken, " "},
		{ReservedWordToken, "INTO"},
		{WhitespaceToken, " "},
		{UnquotedIdentifierToken, "raw_events"},
		{WhitespaceToken, " "},
		{LeftParenToken, "("},
		{UnquotedIdentifierToken, "event_id"},
		{CommaToken, ","},
		{WhitespaceToken, " "},
		{UnquotedIdentifierToken, "payload"},
		{RightParenToken, ")"},
	}

	for i, expected := range tokens {
		tokenType := s.NextToken()
		assert.Equal(t, expected.tokenType, tokenType, "token %d type mismatch", i)
		assert.Equal(t, expected.token, s.Token(), "token %d value mismatch", i)
	}
}

func TestScanner_SchemaQualifiedReference(t *testing.T) {
	input := "FROM staging.incoming_events e"
	s := NewScanner("test.sql", input)

	tokens := []struct {
		tokenType TokenType
		token     string
	}{
		{ReservedWordToken, "FROM"},
		{WhitespaceToken, " "},
		{UnquotedIdentifierToken, "staging"},
		{DotToken, "."},
		{UnquotedIdentifierToken, "incoming_events"},
		{WhitespaceToken, " "},
		{UnquotedIdentifierToken, "e"},
	}

	for i, expected := range tokens {
		tokenType := s.NextToken()
		assert.Equal(t, expected.tokenType, tokenType, "token %d type mismatch", i)
		assert.Equal(t, expected.token, s.Token(), "token %d value mismatch", i)
	}
}

func TestScanner_FunctionBodyIsOpaqueDollarQuote(t *testing.T) {
	input := `CREATE FUNCTION refresh_daily() RETURNS VOID AS $$
BEGIN
    INSERT INTO daily_totals SELECT * FROM staging.daily;
END;
$$ LANGUAGE plpgsql;`

	s := NewScanner("test.sql", input)

	var body string
	for {
		tt := s.NextToken()
		if tt == EOFToken {
			break
		}
		if tt == DollarQuotedStringToken {
			body = s.Token()
			break
		}
	}

	require.NotEmpty(t, body)
	assert.Contains(t, body, "INSERT INTO daily_totals")
}

func TestScanner_UnterminatedStrings(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected TokenType
	}{
		{"unterminated string", "'hello", UnterminatedStringLiteralErrorToken},
		{"unterminated quoted identifier", "\"MyTable", UnterminatedQuotedIdentifierErrorToken},
		{"unterminated dollar quote", "$$hello", UnterminatedStringLiteralErrorToken},
		{"unterminated escape string", "E'hello", UnterminatedStringLiteralErrorToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScanner("test.sql", tt.input)
			tokenType := s.NextToken()
			assert.Equal(t, tt.expected, tokenType)
		})
	}
}

func TestScanner_UnicodeString(t *testing.T) {
	input := `U&'d\0061t\+000061'`
	s := NewScanner("test.sql", input)
	tokenType := s.NextToken()
	assert.Equal(t, StringLiteralToken, tokenType)
}

func TestScanner_UnicodeIdentifier(t *testing.T) {
	input := `U&"d\0061t\+000061"`
	s := NewScanner("test.sql", input)
	tokenType := s.NextToken()
	assert.Equal(t, QuotedIdentifierToken, tokenType)
}

func TestScanner_Position(t *testing.T) {
	input := "SELECT\nFROM"
	s := NewScanner("test.sql", input)

	s.NextToken() // SELECT
	start := s.Start()
	assert.Equal(t, 1, start.Line)
	assert.Equal(t, 1, start.Col)

	s.NextToken() // \n
	s.NextToken() // FROM
	start = s.Start()
	assert.Equal(t, 2, start.Line)
	assert.Equal(t, 1, start.Col)
}

func TestScanner_ComparisonOperators(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"<>", "<>"},
		{">=", ">="},
		{"<=", "<="},
		{"!=", "!="},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s := NewScanner("test.sql", tt.input)
			tokenType := s.NextToken()
			assert.Equal(t, OtherToken, tokenType)
			assert.Equal(t, tt.expected, s.Token())
		})
	}
}
