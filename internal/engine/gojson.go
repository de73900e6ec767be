package engine

import (
	"bytes"
	"io"
	"strconv"

	j "github.com/goccy/go-json"
)

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type frame struct {
	kind         containerKind
	expectingKey bool
}

// goJSONSource is a TokenSource over goccy/go-json's streaming Decoder.
type goJSONSource struct {
	dec   *j.Decoder
	stack []frame
}

// NewReader wraps an io.Reader into a TokenSource for JSON using go-json.
func NewReader(r io.Reader) TokenSource {
	dec := j.NewDecoder(r)
	dec.UseNumber()
	return &goJSONSource{dec: dec}
}

// NewBytes wraps a byte slice into a TokenSource for JSON using go-json.
func NewBytes(b []byte) TokenSource { return NewReader(bytes.NewReader(b)) }

// valueDone marks the enclosing object as waiting for its next key.
func (s *goJSONSource) valueDone() {
	if n := len(s.stack); n > 0 {
		top := &s.stack[n-1]
		if top.kind == kindObject && !top.expectingKey {
			top.expectingKey = true
		}
	}
}

func (s *goJSONSource) pop() {
	if n := len(s.stack); n > 0 {
		s.stack = s.stack[:n-1]
	}
	s.valueDone()
}

func (s *goJSONSource) NextToken() (Token, error) {
	tok, err := s.dec.Token()
	if err != nil {
		return Token{}, err
	}
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			s.stack = append(s.stack, frame{kind: kindObject, expectingKey: true})
			return Token{Kind: KindBeginObject, Offset: -1}, nil
		case '}':
			s.pop()
			return Token{Kind: KindEndObject, Offset: -1}, nil
		case '[':
			s.stack = append(s.stack, frame{kind: kindArray})
			return Token{Kind: KindBeginArray, Offset: -1}, nil
		case ']':
			s.pop()
			return Token{Kind: KindEndArray, Offset: -1}, nil
		}
	case string:
		if n := len(s.stack); n > 0 {
			top := &s.stack[n-1]
			if top.kind == kindObject && top.expectingKey {
				top.expectingKey = false
				return Token{Kind: KindKey, String: v, Offset: -1}, nil
			}
		}
		s.valueDone()
		return Token{Kind: KindString, String: v, Offset: -1}, nil
	case bool:
		s.valueDone()
		return Token{Kind: KindBool, Bool: v, Offset: -1}, nil
	case j.Number:
		s.valueDone()
		return Token{Kind: KindNumber, Number: string(v), Offset: -1}, nil
	case float64:
		s.valueDone()
		return Token{Kind: KindNumber, Number: strconv.FormatFloat(v, 'g', -1, 64), Offset: -1}, nil
	}
	s.valueDone()
	return Token{Kind: KindNull, Offset: -1}, nil
}

func (s *goJSONSource) Location() int64 { return -1 }
