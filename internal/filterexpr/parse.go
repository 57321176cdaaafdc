package filterexpr

import "encoding/json"

// Parse parses a filter expression string into a Filter tree.
//
// The empty string parses to a nil Filter, meaning "no filter" (match
// everything). Any string the grammar does not fully consume yields a
// *SyntaxError.
//
// The grammar recognizes three alternatives:
//
//	scalar_filter   = "(" key "," scalar_op "," json_value ")"
//	compound_filter = "(" key "," compound_op "," scalar_filter ")"
//	boolean_filter  = "(" ("and"|"or") ("," filter)+ ")"
//
// where scalar_op is one of :eq :ne :gt :gte :lt :lte :like, compound_op is
// :any or :all, key matches [A-Za-z0-9_. ]*, and json_value is a
// double-quoted string, true/false/null, or a JSON number. There is no
// whitespace skipping; spaces are legal only inside keys.
//
// Parsing is a single recursive descent that produces the tagged AST
// directly, decoding JSON literals into native values as it goes.
func Parse(s string) (Filter, error) {
	if s == "" {
		return nil, nil
	}

	p := &parser{input: s}
	f, err := p.parseFilter()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.input) {
		// Trailing input after a complete filter is an error.
		return nil, &SyntaxError{Offset: p.pos}
	}
	return f, nil
}

type parser struct {
	input string
	pos   int
}

func (p *parser) fail() error {
	return &SyntaxError{Offset: p.pos}
}

func (p *parser) peek() (byte, bool) {
	if p.pos >= len(p.input) {
		return 0, false
	}
	return p.input[p.pos], true
}

func (p *parser) expect(c byte) error {
	if b, ok := p.peek(); !ok || b != c {
		return p.fail()
	}
	p.pos++
	return nil
}

// parseFilter parses any of the three filter alternatives. The shared "("
// key "," prefix is consumed first; the character that follows decides
// which alternative applies.
func (p *parser) parseFilter() (Filter, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}

	key := p.scanKey()

	if err := p.expect(','); err != nil {
		return nil, err
	}

	b, ok := p.peek()
	if !ok {
		return nil, p.fail()
	}
	switch b {
	case ':':
		return p.parseOperation(key)
	case '(':
		return p.parseBooleanRest(key)
	default:
		return nil, p.fail()
	}
}

// parseOperation finishes a scalar or compound filter after "(" key ",".
func (p *parser) parseOperation(key string) (Filter, error) {
	op, err := p.scanOperator()
	if err != nil {
		return nil, err
	}
	if err := p.expect(','); err != nil {
		return nil, err
	}

	switch op {
	case string(OpAny), string(OpAll):
		inner, err := p.parseFilter()
		if err != nil {
			return nil, err
		}
		scalar, ok := inner.(*Scalar)
		if !ok {
			// Quantifiers bind one level only: the operand must be a
			// scalar comparison.
			return nil, p.fail()
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return &Compound{Key: key, Op: CompoundOp(op), Inner: scalar}, nil

	default:
		value, err := p.parseJSONValue()
		if err != nil {
			return nil, err
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return &Scalar{Key: key, Op: ScalarOp(op), Value: value}, nil
	}
}

// parseBooleanRest finishes a boolean filter after "(" op ",". The first
// operand's opening paren has been peeked but not consumed.
func (p *parser) parseBooleanRest(op string) (Filter, error) {
	if op != string(OpAnd) && op != string(OpOr) {
		return nil, p.fail()
	}

	var operands []Filter
	for {
		operand, err := p.parseFilter()
		if err != nil {
			return nil, err
		}
		operands = append(operands, operand)

		b, ok := p.peek()
		if !ok {
			return nil, p.fail()
		}
		if b == ',' {
			p.pos++
			continue
		}
		break
	}

	if err := p.expect(')'); err != nil {
		return nil, err
	}
	return &Boolean{Op: BoolOp(op), Operands: operands}, nil
}

// scanKey consumes a possibly-empty run of key characters: letters,
// digits, underscore, dot, and space.
func (p *parser) scanKey() string {
	start := p.pos
	for p.pos < len(p.input) && isKeyChar(p.input[p.pos]) {
		p.pos++
	}
	return p.input[start:p.pos]
}

func isKeyChar(b byte) bool {
	return b >= 'a' && b <= 'z' ||
		b >= 'A' && b <= 'Z' ||
		b >= '0' && b <= '9' ||
		b == '_' || b == '.' || b == ' '
}

// scanOperator consumes a ":"-prefixed operator token and validates it
// against the known operator set.
func (p *parser) scanOperator() (string, error) {
	if err := p.expect(':'); err != nil {
		return "", err
	}
	start := p.pos
	for p.pos < len(p.input) && p.input[p.pos] >= 'a' && p.input[p.pos] <= 'z' {
		p.pos++
	}
	op := ":" + p.input[start:p.pos]

	switch op {
	case string(OpEq), string(OpNe), string(OpGt), string(OpGte),
		string(OpLt), string(OpLte), string(OpLike),
		string(OpAny), string(OpAll):
		return op, nil
	default:
		p.pos = start - 1
		return "", p.fail()
	}
}

// parseJSONValue consumes a JSON literal: a double-quoted string,
// true/false/null, or a number with optional fraction and exponent.
// The literal is decoded to its native Go value (string, bool, float64,
// or nil).
func (p *parser) parseJSONValue() (any, error) {
	b, ok := p.peek()
	if !ok {
		return nil, p.fail()
	}

	switch {
	case b == '"':
		return p.parseString()
	case b == 't':
		return true, p.consumeWord("true")
	case b == 'f':
		return false, p.consumeWord("false")
	case b == 'n':
		return nil, p.consumeWord("null")
	case b == '-' || b >= '0' && b <= '9':
		return p.parseNumber()
	default:
		return nil, p.fail()
	}
}

func (p *parser) consumeWord(word string) error {
	if len(p.input)-p.pos < len(word) || p.input[p.pos:p.pos+len(word)] != word {
		return p.fail()
	}
	p.pos += len(word)
	return nil
}

// parseString consumes a double-quoted string. The grammar does not admit
// escaped quotes; the raw token is handed to encoding/json for decoding so
// backslash sequences inside the string behave like JSON.
func (p *parser) parseString() (any, error) {
	start := p.pos
	p.pos++ // opening quote
	for {
		b, ok := p.peek()
		if !ok {
			return nil, p.fail()
		}
		p.pos++
		if b == '"' {
			break
		}
	}

	var s string
	if err := json.Unmarshal([]byte(p.input[start:p.pos]), &s); err != nil {
		return nil, &SyntaxError{Offset: start}
	}
	return s, nil
}

// parseNumber consumes a JSON number: -? int frac? exp? with no leading
// zeros in the integer part.
func (p *parser) parseNumber() (any, error) {
	start := p.pos

	if b, _ := p.peek(); b == '-' {
		p.pos++
	}

	// Integer part: "0" or [1-9][0-9]*.
	b, ok := p.peek()
	if !ok || b < '0' || b > '9' {
		return nil, p.fail()
	}
	if b == '0' {
		p.pos++
	} else {
		p.scanDigits()
	}

	if b, ok := p.peek(); ok && b == '.' {
		p.pos++
		if n := p.scanDigits(); n == 0 {
			return nil, p.fail()
		}
	}

	if b, ok := p.peek(); ok && (b == 'e' || b == 'E') {
		p.pos++
		if b, ok := p.peek(); ok && (b == '+' || b == '-') {
			p.pos++
		}
		if n := p.scanDigits(); n == 0 {
			return nil, p.fail()
		}
	}

	var f float64
	if err := json.Unmarshal([]byte(p.input[start:p.pos]), &f); err != nil {
		return nil, &SyntaxError{Offset: start}
	}
	return f, nil
}

func (p *parser) scanDigits() int {
	n := 0
	for p.pos < len(p.input) && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
		p.pos++
		n++
	}
	return n
}
