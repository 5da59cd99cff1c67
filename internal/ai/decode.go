package ai

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// DecodeClaimRecord parses a model reply into a ClaimRecord.
//
// The reply must be one flat object literal, either JSON or the dict form
// with single-quoted strings and True/False/None. Every key must be present
// exactly once and no other keys are allowed. Any deviation is
// ErrMalformedReply.
func DecodeClaimRecord(raw string) (ClaimRecord, error) {
	f, err := newFields(raw)
	if err != nil {
		return ClaimRecord{}, err
	}

	rec := ClaimRecord{
		ContainStreetInformation: f.boolean("contain_street_information"),
		ContainTravelDirection:   f.boolean("contain_travel_direction"),
		Street:                   f.str("street"),
		FullAddress:              f.str("full_address"),
		SeverityLevel:            Severity(f.str("severity_level")),
		SeverityConfidence:       f.number("severity_confidence"),
		SeverityReasoning:        f.str("severity_reasoning"),
		TravelDirection:          f.str("travel_direction"),
		CrashSceneEndType:        EndType(f.str("crash_scene_end_type")),
	}

	if f.has("severity_level") {
		switch rec.SeverityLevel {
		case SeverityLow, SeverityMid, SeverityHigh:
		default:
			f.fail("severity_level: unknown value %q", rec.SeverityLevel)
		}
	}
	if f.has("severity_confidence") && (rec.SeverityConfidence < 0 || rec.SeverityConfidence > 1) {
		f.fail("severity_confidence: %v outside [0, 1]", rec.SeverityConfidence)
	}
	if f.has("crash_scene_end_type") {
		switch rec.CrashSceneEndType {
		case EndSuddenStop, EndTripContinues:
		default:
			f.fail("crash_scene_end_type: unknown value %q", rec.CrashSceneEndType)
		}
	}

	if err := f.finish(); err != nil {
		return ClaimRecord{}, err
	}
	return rec, nil
}

// DecodeLocationTask parses a model reply into a LocationTaskRecord under the
// same rules as DecodeClaimRecord. Radii must be non-negative.
func DecodeLocationTask(raw string) (LocationTaskRecord, error) {
	f, err := newFields(raw)
	if err != nil {
		return LocationTaskRecord{}, err
	}

	rec := LocationTaskRecord{
		Address:    f.str("address"),
		Coordinate: f.boolean("coordinate"),
		Risk:       f.boolean("risk"),
		WayRadius:  f.number("way_radius"),
		NodeRadius: f.number("node_radius"),
	}

	if rec.WayRadius < 0 {
		f.fail("way_radius: negative value %v", rec.WayRadius)
	}
	if rec.NodeRadius < 0 {
		f.fail("node_radius: negative value %v", rec.NodeRadius)
	}

	if err := f.finish(); err != nil {
		return LocationTaskRecord{}, err
	}
	return rec, nil
}

// ─── FIELD ACCESS ─────────────────────────────────────────────────────────────

// fields reads typed values out of a parsed literal and collects every
// problem so the error names all of them at once.
type fields struct {
	values map[string]any
	used   map[string]bool
	errs   []error
}

func newFields(raw string) (*fields, error) {
	values, err := parseLiteral(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedReply, err)
	}
	return &fields{values: values, used: make(map[string]bool, len(values))}, nil
}

func (f *fields) fail(format string, args ...any) {
	f.errs = append(f.errs, fmt.Errorf(format, args...))
}

func (f *fields) has(key string) bool {
	_, ok := f.values[key]
	return ok
}

func (f *fields) lookup(key string) (any, bool) {
	f.used[key] = true
	v, ok := f.values[key]
	if !ok {
		f.fail("%s: missing", key)
	}
	return v, ok
}

func (f *fields) boolean(key string) bool {
	v, ok := f.lookup(key)
	if !ok {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		f.fail("%s: want boolean, got %s", key, describe(v))
	}
	return b
}

func (f *fields) str(key string) string {
	v, ok := f.lookup(key)
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		f.fail("%s: want string, got %s", key, describe(v))
	}
	return s
}

func (f *fields) number(key string) float64 {
	v, ok := f.lookup(key)
	if !ok {
		return 0
	}
	n, ok := v.(float64)
	if !ok {
		f.fail("%s: want number, got %s", key, describe(v))
	}
	return n
}

// finish reports unknown keys plus everything collected so far.
func (f *fields) finish() error {
	var unknown []string
	for k := range f.values {
		if !f.used[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		f.fail("%s: unknown key", k)
	}
	if len(f.errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrMalformedReply, errors.Join(f.errs...))
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case float64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// ─── LITERAL PARSER ───────────────────────────────────────────────────────────

// parseLiteral reads one flat object literal. Values are strings, numbers,
// booleans or null; nested objects and lists are rejected. Nothing in the
// reply is ever evaluated.
func parseLiteral(raw string) (map[string]any, error) {
	p := &literalParser{src: stripFences(raw)}

	p.skipSpace()
	if !p.consume('{') {
		return nil, p.errorf("expected '{'")
	}

	out := make(map[string]any)
	for {
		p.skipSpace()
		if p.consume('}') {
			break
		}

		key, err := p.parseKey()
		if err != nil {
			return nil, err
		}
		if _, dup := out[key]; dup {
			return nil, p.errorf("duplicate key %q", key)
		}

		p.skipSpace()
		if !p.consume(':') {
			return nil, p.errorf("expected ':' after key %q", key)
		}
		p.skipSpace()

		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		out[key] = val

		p.skipSpace()
		if p.consume(',') {
			continue
		}
		if p.consume('}') {
			break
		}
		return nil, p.errorf("expected ',' or '}'")
	}

	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("trailing content after object")
	}
	return out, nil
}

// stripFences removes a markdown code fence the model may have wrapped
// around its reply.
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```python")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	return strings.TrimSpace(raw)
}

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) errorf(format string, args ...any) error {
	return fmt.Errorf("offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}

func (p *literalParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *literalParser) consume(c byte) bool {
	if p.peek() == c && p.pos < len(p.src) {
		p.pos++
		return true
	}
	return false
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *literalParser) parseKey() (string, error) {
	c := p.peek()
	if c != '"' && c != '\'' {
		return "", p.errorf("expected quoted key")
	}
	return p.parseString()
}

func (p *literalParser) parseValue() (any, error) {
	c := p.peek()
	switch {
	case c == '"' || c == '\'':
		return p.parseString()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	case c == '{' || c == '[' || c == '(':
		return nil, p.errorf("nested values are not allowed")
	case isIdentByte(c):
		return p.parseIdent()
	case c == 0:
		return nil, p.errorf("unexpected end of input")
	default:
		return nil, p.errorf("unexpected character %q", c)
	}
}

func (p *literalParser) parseString() (string, error) {
	quote := p.src[p.pos]
	p.pos++

	var sb strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return sb.String(), nil
		case c == '\\':
			p.pos++
			if p.pos >= len(p.src) {
				return "", p.errorf("unterminated escape")
			}
			esc := p.src[p.pos]
			p.pos++
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\', '\'', '"', '/':
				sb.WriteByte(esc)
			case 'u':
				r, err := p.parseHex4()
				if err != nil {
					return "", err
				}
				// A high surrogate followed by a \u low surrogate is one
				// astral code point; a lone half becomes U+FFFD.
				if utf16.IsSurrogate(r) && strings.HasPrefix(p.src[p.pos:], "\\u") {
					save := p.pos
					p.pos += 2
					low, err := p.parseHex4()
					if err == nil {
						if pair := utf16.DecodeRune(r, low); pair != utf8.RuneError {
							sb.WriteRune(pair)
							continue
						}
					}
					p.pos = save
				}
				sb.WriteRune(r)
			default:
				return "", p.errorf("unsupported escape \\%c", esc)
			}
		default:
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			sb.WriteRune(r)
			p.pos += size
		}
	}
	return "", p.errorf("unterminated string")
}

// parseHex4 reads the four hex digits of a \u escape.
func (p *literalParser) parseHex4() (rune, error) {
	if p.pos+4 > len(p.src) {
		return 0, p.errorf("short \\u escape")
	}
	code, err := strconv.ParseUint(p.src[p.pos:p.pos+4], 16, 32)
	if err != nil {
		return 0, p.errorf("bad \\u escape")
	}
	p.pos += 4
	return rune(code), nil
}

func (p *literalParser) parseNumber() (float64, error) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E' {
			p.pos++
			continue
		}
		break
	}
	text := p.src[start:p.pos]
	n, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("offset %d: bad number %q", start, text)
	}
	return n, nil
}

func (p *literalParser) parseIdent() (any, error) {
	start := p.pos
	for p.pos < len(p.src) && isIdentByte(p.src[p.pos]) {
		p.pos++
	}
	switch word := p.src[start:p.pos]; word {
	case "true", "True":
		return true, nil
	case "false", "False":
		return false, nil
	case "null", "None":
		return nil, nil
	default:
		return nil, fmt.Errorf("offset %d: unknown identifier %q", start, word)
	}
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
